package textgen

import (
	"context"

	"articleforge/internal/infra"
	"articleforge/internal/infra/credentials"
)

// BuildRegistry registers every backend the configuration can support. Keys
// come from the environment first and the credentials store second; a
// backend without credentials is skipped. The static backend is always
// available.
func BuildRegistry(ctx context.Context, cfg *infra.Config, store *credentials.Store, logger infra.Logger) *Registry {
	defaults := append([]string{cfg.TextGenProvider}, cfg.TextGenFallbacks...)
	defaults = append(defaults, ProviderStatic)
	reg := NewRegistry(logger, defaults...)

	if key := resolveKey(ctx, store, credentials.ProviderGemini, cfg.GeminiAPIKey, logger); key != "" {
		if g, err := NewGemini(GeminiOptions{APIKey: key, Model: cfg.GeminiModel, BaseURL: cfg.GeminiBaseURL}); err == nil {
			reg.Register(g)
		} else {
			logger.Warn().Err(err).Str("provider", ProviderGemini).Msg("backend disabled")
		}
	}
	if key := resolveKey(ctx, store, credentials.ProviderOpenAI, cfg.OpenAIAPIKey, logger); key != "" {
		if c, err := NewOpenAI(ChatOptions{APIKey: key, Model: cfg.OpenAIModel, BaseURL: cfg.OpenAIBaseURL}); err == nil {
			reg.Register(c)
		} else {
			logger.Warn().Err(err).Str("provider", ProviderOpenAI).Msg("backend disabled")
		}
	}
	if key := resolveKey(ctx, store, credentials.ProviderQwen, cfg.QwenAPIKey, logger); key != "" {
		if c, err := NewQwen(ChatOptions{APIKey: key, Model: cfg.QwenModel, BaseURL: cfg.QwenBaseURL}); err == nil {
			reg.Register(c)
		} else {
			logger.Warn().Err(err).Str("provider", ProviderQwen).Msg("backend disabled")
		}
	}
	if cfg.VertexProject != "" {
		if v, err := NewVertex(ctx, VertexOptions{Project: cfg.VertexProject, Location: cfg.VertexLocation, Model: cfg.VertexModel}); err == nil {
			reg.Register(v)
		} else {
			logger.Warn().Err(err).Str("provider", ProviderVertex).Msg("backend disabled")
		}
	}
	reg.Register(NewStatic())

	logger.Info().Strs("providers", reg.Names()).Strs("defaults", defaults).Msg("text generation backends ready")
	return reg
}

func resolveKey(ctx context.Context, store *credentials.Store, provider, envValue string, logger infra.Logger) string {
	key, err := credentials.ResolveKey(ctx, store, provider, envValue)
	if err != nil {
		logger.Warn().Err(err).Str("provider", provider).Msg("credential lookup failed")
		return ""
	}
	return key
}
