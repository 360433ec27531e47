package textgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	ProviderOpenAI     = "openai"
	ProviderQwen       = "qwen"
	openAIDefaultModel = "gpt-4o-mini"
	qwenDefaultModel   = "qwen-plus"
	qwenDefaultBaseURL = "https://dashscope-intl.aliyuncs.com/compatible-mode/v1"
)

// ChatOptions configures an OpenAI-compatible chat completion backend.
type ChatOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Chat is a chat-completions backend. The same type serves OpenAI and Qwen
// (DashScope's OpenAI-compatible mode); only id, model and base URL differ.
type Chat struct {
	id     string
	model  string
	client openai.Client
}

// NewOpenAI creates the openai backend.
func NewOpenAI(opts ChatOptions) (*Chat, error) {
	return newChat(ProviderOpenAI, openAIDefaultModel, "", opts)
}

// NewQwen creates the qwen backend.
func NewQwen(opts ChatOptions) (*Chat, error) {
	return newChat(ProviderQwen, qwenDefaultModel, qwenDefaultBaseURL, opts)
}

func newChat(id, defaultModel, defaultBaseURL string, opts ChatOptions) (*Chat, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, fmt.Errorf("%s api key is required", id)
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(key), option.WithMaxRetries(0)}
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	return &Chat{id: id, model: model, client: openai.NewClient(reqOpts...)}, nil
}

func (c *Chat) Name() string { return c.id }

func (c *Chat) Generate(ctx context.Context, req Request) (string, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	if strings.TrimSpace(req.System) != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: msgs,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s: chat completion: %w", c.id, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(c.id + ": empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ Generator = (*Chat)(nil)
