// Package genai provides the language model gateway used by the flow engine:
// uniform text generation and intent classification with a deterministic
// template fallback. Downstream failures never escape the gateway boundary
// when the fallback wrapper is in place.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// GenerateRequest describes one text-generation call.
type GenerateRequest struct {
	System      string  // optional system prompt
	Prompt      string  // user prompt
	Temperature float64 // sampling temperature
	MaxTokens   int64   // completion token cap, 0 means gateway default
	Fallback    string  // deterministic template used when the model is unavailable
}

// Classification is the result of an intent classification call.
type Classification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Client is the gateway contract consumed by the flow layer.
type Client interface {
	// Generate produces free text for the given request.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	// Classify assigns one of the candidate labels to the text with a
	// confidence in [0,1].
	Classify(ctx context.Context, text string, candidates []string) (Classification, error)
}

// Default gateway tuning.
const (
	DefaultModel       = openai.ChatModelGPT4oMini
	DefaultMaxTokens   = 512
	DefaultCallTimeout = 20 * time.Second
)

// Opts holds OpenAI client configuration.
type Opts struct {
	APIKey      string
	Model       string
	CallTimeout time.Duration
}

// Option configures the OpenAI gateway client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the chat model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// WithCallTimeout bounds each model call.
func WithCallTimeout(d time.Duration) Option {
	return func(o *Opts) { o.CallTimeout = d }
}

// chatService is the minimal completion surface used by the gateway, kept
// narrow so tests can substitute it.
type chatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAIClient implements Client against the OpenAI Chat Completions API.
type OpenAIClient struct {
	chat    chatService
	model   string
	timeout time.Duration
}

// NewOpenAIClient creates a gateway client backed by the OpenAI API.
func NewOpenAIClient(opts ...Option) (*OpenAIClient, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not set")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	slog.Debug("genai.NewOpenAIClient: gateway created", "model", cfg.Model, "timeout", cfg.CallTimeout)
	return &OpenAIClient{chat: &cli.Chat.Completions, model: cfg.Model, timeout: cfg.CallTimeout}, nil
}

// Generate produces free text via a chat completion bounded by the call timeout.
func (c *OpenAIClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               c.model,
		Temperature:         openai.Float(req.Temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	})
	if err != nil {
		slog.Warn("genai.Generate: completion failed", "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// classifyJSONRe extracts the first JSON object from a model reply; models
// occasionally wrap the object in prose or code fences.
var classifyJSONRe = regexp.MustCompile(`(?s)\{.*\}`)

// Classify asks the model for a single JSON object {label, confidence}
// constrained to the candidate set.
func (c *OpenAIClient) Classify(ctx context.Context, text string, candidates []string) (Classification, error) {
	system := fmt.Sprintf(
		"You are an intent classifier for a travel insurance assistant. "+
			"Return a single JSON object with fields: label (one of %q) and confidence (a number between 0 and 1). "+
			"Return nothing but the JSON object.", candidates)

	out, err := c.Generate(ctx, GenerateRequest{
		System: system,
		Prompt: text,
		// deterministic-ish labels
		Temperature: 0,
		MaxTokens:   64,
	})
	if err != nil {
		return Classification{}, err
	}

	raw := classifyJSONRe.FindString(out)
	if raw == "" {
		return Classification{}, fmt.Errorf("classifier returned no JSON object: %q", out)
	}
	var result Classification
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return Classification{}, fmt.Errorf("failed to parse classifier reply: %w", err)
	}
	result.Label = strings.ToLower(strings.TrimSpace(result.Label))
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	for _, cand := range candidates {
		if result.Label == cand {
			slog.Debug("genai.Classify: classified", "label", result.Label, "confidence", result.Confidence)
			return result, nil
		}
	}
	return Classification{}, fmt.Errorf("classifier returned label outside candidate set: %q", result.Label)
}
