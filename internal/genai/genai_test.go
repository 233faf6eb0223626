package genai

import (
	"context"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChat substitutes the completion service with a canned reply.
type fakeChat struct {
	reply string
	err   error
	calls int
}

func (f *fakeChat) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.reply}},
		},
	}, nil
}

func newFakeClient(reply string, err error) (*OpenAIClient, *fakeChat) {
	fake := &fakeChat{reply: reply, err: err}
	return &OpenAIClient{chat: fake, model: DefaultModel, timeout: time.Second}, fake
}

func TestOpenAIGenerate(t *testing.T) {
	client, fake := newFakeClient("  hello there  ", nil)
	out, err := client.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)
	assert.Equal(t, 1, fake.calls)
}

func TestOpenAIGenerateError(t *testing.T) {
	client, _ := newFakeClient("", assert.AnError)
	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	assert.Error(t, err)
}

func TestOpenAIClassify(t *testing.T) {
	client, _ := newFakeClient("Sure! Here you go:\n```json\n{\"label\": \"Quote\", \"confidence\": 0.92}\n```", nil)
	result, err := client.Classify(context.Background(), "I need insurance", []string{"quote", "claims_guidance"})
	require.NoError(t, err)
	assert.Equal(t, "quote", result.Label)
	assert.InDelta(t, 0.92, result.Confidence, 1e-9)
}

func TestOpenAIClassifyClampsConfidence(t *testing.T) {
	client, _ := newFakeClient(`{"label": "quote", "confidence": 1.7}`, nil)
	result, err := client.Classify(context.Background(), "x", []string{"quote"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestOpenAIClassifyRejectsUnknownLabel(t *testing.T) {
	client, _ := newFakeClient(`{"label": "weather", "confidence": 0.9}`, nil)
	_, err := client.Classify(context.Background(), "x", []string{"quote"})
	assert.Error(t, err)
}

func TestOpenAIClassifyRejectsNonJSON(t *testing.T) {
	client, _ := newFakeClient("I cannot classify that.", nil)
	_, err := client.Classify(context.Background(), "x", []string{"quote"})
	assert.Error(t, err)
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient()
	assert.Error(t, err)
}

func TestTemplateGenerate(t *testing.T) {
	client := NewTemplateClient()
	out, err := client.Generate(context.Background(), GenerateRequest{Prompt: "x", Fallback: "static line"})
	require.NoError(t, err)
	assert.Equal(t, "static line", out)

	out, err = client.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestTemplateClassify(t *testing.T) {
	client := NewTemplateClient()
	candidates := []string{"quote", "policy_explanation", "claims_guidance", "human_handoff"}

	result, err := client.Classify(context.Background(), "I need travel insurance", candidates)
	require.NoError(t, err)
	assert.Equal(t, "quote", result.Label)
	assert.Equal(t, KeywordHitConfidence, result.Confidence)

	result, err = client.Classify(context.Background(), "zzz qqq", candidates)
	require.NoError(t, err)
	assert.Equal(t, "human_handoff", result.Label)
	assert.Equal(t, NoMatchConfidence, result.Confidence)
}

// failingClient always errors, to exercise the fallback wrapper.
type failingClient struct{}

func (failingClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	return "", assert.AnError
}

func (failingClient) Classify(ctx context.Context, text string, candidates []string) (Classification, error) {
	return Classification{}, assert.AnError
}

func TestWithFallback(t *testing.T) {
	client := WithFallback(failingClient{}, NewTemplateClient())

	out, err := client.Generate(context.Background(), GenerateRequest{Prompt: "x", Fallback: "fallback text"})
	require.NoError(t, err)
	assert.Equal(t, "fallback text", out)

	result, err := client.Classify(context.Background(), "I need a quote", []string{"quote", "human_handoff"})
	require.NoError(t, err)
	assert.Equal(t, "quote", result.Label)
}
