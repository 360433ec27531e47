package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const ProviderVertex = "vertex"

// VertexOptions configures the Vertex AI backend. Credentials come from
// Application Default Credentials.
type VertexOptions struct {
	Project  string
	Location string
	Model    string
}

// Vertex generates text through the genai SDK against Vertex AI.
type Vertex struct {
	client *genai.Client
	model  string
}

// NewVertex creates the SDK client; it fails when no project is configured.
func NewVertex(ctx context.Context, opts VertexOptions) (*Vertex, error) {
	if strings.TrimSpace(opts.Project) == "" {
		return nil, errors.New("vertex project is required")
	}
	location := strings.TrimSpace(opts.Location)
	if location == "" {
		location = "us-central1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = geminiDefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  strings.TrimSpace(opts.Project),
		Location: location,
	})
	if err != nil {
		return nil, fmt.Errorf("vertex: create client: %w", err)
	}
	return &Vertex{client: client, model: model}, nil
}

func (v *Vertex) Name() string { return ProviderVertex }

func (v *Vertex) Generate(ctx context.Context, req Request) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if strings.TrimSpace(req.System) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	resp, err := v.client.Models.GenerateContent(ctx, v.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("vertex: generate: %w", err)
	}
	return resp.Text(), nil
}

var _ Generator = (*Vertex)(nil)
