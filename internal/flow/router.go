package flow

import (
	"context"
	"log/slog"
	"strings"

	"github.com/quotepilot/quotepilot/internal/genai"
	"github.com/quotepilot/quotepilot/internal/models"
)

// DefaultConfidenceThreshold gates intent classification. Classifications
// below the threshold force a human handoff regardless of label. The value is
// configurable; it is not a calibrated figure.
const DefaultConfidenceThreshold = 0.6

// intentCandidates is the closed label set presented to the classifier.
var intentCandidates = []string{
	string(models.IntentQuote),
	string(models.IntentPolicyExplanation),
	string(models.IntentClaimsGuidance),
	string(models.IntentHumanHandoff),
}

var restartTriggers = []string{"start over", "restart", "start again", "new quote", "reset"}

var handoffTriggers = []string{
	"human", "agent", "representative", "real person",
	"speak to someone", "talk to someone",
}

// IsRestart reports whether the message explicitly restarts the flow.
func IsRestart(message string) bool {
	lowered := strings.ToLower(message)
	for _, t := range restartTriggers {
		if strings.Contains(lowered, t) {
			return true
		}
	}
	return false
}

// IsHandoffTrigger reports whether the message explicitly asks for a human.
func IsHandoffTrigger(message string) bool {
	lowered := strings.ToLower(message)
	for _, t := range handoffTriggers {
		if strings.Contains(lowered, t) {
			return true
		}
	}
	return false
}

// Router assigns a top-level intent to each turn.
type Router struct {
	gateway genai.Client
}

// NewRouter creates a router backed by the given gateway.
func NewRouter(gateway genai.Client) *Router {
	return &Router{gateway: gateway}
}

// Route selects the intent for the turn. While a flow is mid-collection the
// current intent is kept, unless the message is an explicit restart or
// handoff trigger. The classified return value reports whether a fresh
// classification happened, so the caller can apply confidence gating.
func (r *Router) Route(ctx context.Context, state *models.ConversationState, message string) (intent models.Intent, confidence float64, classified bool) {
	if IsHandoffTrigger(message) {
		return models.IntentHumanHandoff, 1, false
	}
	if IsRestart(message) {
		// an explicit restart always begins a fresh quote flow
		return models.IntentQuote, 1, false
	}
	if state.FlowInProgress() {
		return state.CurrentIntent, state.ConfidenceScore, false
	}

	result, err := r.gateway.Classify(ctx, message, intentCandidates)
	if err != nil {
		slog.Warn("Router.Route: classification failed, defaulting to handoff", "error", err)
		return models.IntentHumanHandoff, 0, true
	}
	routed := models.Intent(result.Label)
	if !models.IsValidIntent(routed) {
		slog.Warn("Router.Route: label outside candidate set, defaulting to handoff", "label", result.Label)
		return models.IntentHumanHandoff, 0, true
	}
	slog.Debug("Router.Route: classified", "intent", routed, "confidence", result.Confidence)
	return routed, result.Confidence, true
}
