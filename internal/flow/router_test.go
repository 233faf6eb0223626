package flow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quotepilot/quotepilot/internal/genai"
	"github.com/quotepilot/quotepilot/internal/models"
)

// errorGateway fails every call.
type errorGateway struct{}

func (errorGateway) Generate(ctx context.Context, req genai.GenerateRequest) (string, error) {
	return "", assert.AnError
}

func (errorGateway) Classify(ctx context.Context, text string, candidates []string) (genai.Classification, error) {
	return genai.Classification{}, assert.AnError
}

func TestRouteClassifies(t *testing.T) {
	r := NewRouter(genai.NewTemplateClient())
	state := models.NewConversationState("s", "u")

	intent, conf, classified := r.Route(context.Background(), state, "I need travel insurance")
	assert.Equal(t, models.IntentQuote, intent)
	assert.Equal(t, genai.KeywordHitConfidence, conf)
	assert.True(t, classified)
}

func TestRouteKeepsIntentMidFlow(t *testing.T) {
	r := NewRouter(genai.NewTemplateClient())
	state := models.NewConversationState("s", "u")
	state.CurrentIntent = models.IntentQuote
	state.ConfidenceScore = 0.8
	state.AwaitingField = models.SlotDestination

	// "Japan" alone would not classify as quote, but the flow is mid-collection
	intent, conf, classified := r.Route(context.Background(), state, "Japan")
	assert.Equal(t, models.IntentQuote, intent)
	assert.Equal(t, 0.8, conf)
	assert.False(t, classified)
}

func TestRouteHandoffTriggerOverridesFlow(t *testing.T) {
	r := NewRouter(genai.NewTemplateClient())
	state := models.NewConversationState("s", "u")
	state.CurrentIntent = models.IntentQuote
	state.AwaitingField = models.SlotDestination

	intent, _, _ := r.Route(context.Background(), state, "I want to speak to someone")
	assert.Equal(t, models.IntentHumanHandoff, intent)
}

func TestRouteRestartBeginsQuote(t *testing.T) {
	r := NewRouter(genai.NewTemplateClient())
	state := models.NewConversationState("s", "u")
	state.CurrentIntent = models.IntentQuote
	state.AwaitingConfirmation = true

	intent, _, classified := r.Route(context.Background(), state, "let's start over")
	assert.Equal(t, models.IntentQuote, intent)
	assert.False(t, classified)
}

func TestRouteFailureDefaultsToHandoff(t *testing.T) {
	r := NewRouter(errorGateway{})
	state := models.NewConversationState("s", "u")

	intent, conf, classified := r.Route(context.Background(), state, "anything")
	assert.Equal(t, models.IntentHumanHandoff, intent)
	assert.Equal(t, 0.0, conf)
	assert.True(t, classified)
}

func TestIsRestart(t *testing.T) {
	assert.True(t, IsRestart("let's start over"))
	assert.True(t, IsRestart("I want a new quote"))
	assert.False(t, IsRestart("Japan"))
}
