// Handlers for the policy-explanation, claims-guidance, and human-handoff
// intents.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quotepilot/quotepilot/internal/genai"
	"github.com/quotepilot/quotepilot/internal/models"
)

// handlePolicy answers a coverage question grounded on retrieved policy
// snippets. The model only rephrases retrieved text; with no model available
// the top snippet is returned verbatim with its citation.
func (e *Engine) handlePolicy(ctx context.Context, state *models.ConversationState, message string) (string, error) {
	state.PolicyQuestion = message

	result := e.tools.SearchDocuments(ctx, message, nil)
	if !result.Success {
		return e.composer.DegradedReply(), nil
	}
	if len(result.Matches) == 0 {
		return "I couldn't find anything in the policy wording about that. Could you rephrase the question, or would you like to speak to an agent?", nil
	}

	top := result.Matches[0]
	fallback := fmt.Sprintf("%s (%s)", top.Text, top.Citation)

	var snippets strings.Builder
	for i, m := range result.Matches {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&snippets, "[%s] %s\n", m.Citation, m.Text)
	}

	out, err := e.gateway.Generate(ctx, genai.GenerateRequest{
		System: "You are a travel insurance assistant. Answer the user's question using ONLY the policy excerpts " +
			"provided. Cite the excerpt you used. If the excerpts do not answer the question, say so.",
		Prompt:      fmt.Sprintf("Policy excerpts:\n%s\nQuestion: %s", snippets.String(), message),
		Temperature: 0.2,
		MaxTokens:   256,
		Fallback:    fallback,
	})
	if err != nil || strings.TrimSpace(out) == "" {
		return fallback, nil
	}
	return out, nil
}

// claimTypeKeywords maps claim types to the words that identify them in a
// user message. Order matters: the first matching type wins.
var claimTypeKeywords = []struct {
	claimType string
	keywords  []string
}{
	{"cancellation", []string{"cancel"}},
	{"delay", []string{"delay", "missed connection"}},
	{"baggage", []string{"baggage", "luggage", "suitcase", "lost", "stolen", "theft"}},
	{"medical", []string{"medical", "hospital", "doctor", "sick", "ill", "injur", "accident"}},
}

func detectClaimType(message string) string {
	lowered := strings.ToLower(message)
	for _, entry := range claimTypeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lowered, kw) {
				return entry.claimType
			}
		}
	}
	return ""
}

// handleClaims identifies the claim type and lists its documentation
// requirements.
func (e *Engine) handleClaims(ctx context.Context, state *models.ConversationState, message string) (string, error) {
	claimType := detectClaimType(message)
	if claimType == "" && state.ClaimType != "" {
		claimType = state.ClaimType
	}
	if claimType == "" {
		return "I can help with that. What kind of claim is it: medical, cancellation, baggage, or delay?", nil
	}
	state.ClaimType = claimType

	result := e.tools.GetClaimRequirements(ctx, claimType)
	if !result.Success {
		return e.composer.DegradedReply(), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "For a %s claim you'll need:\n", claimType)
	for _, doc := range result.Requirements.RequiredDocuments {
		fmt.Fprintf(&b, "- %s\n", doc)
	}
	if len(result.Requirements.RequiredInfo) > 0 {
		b.WriteString("Please also have ready: ")
		b.WriteString(strings.Join(result.Requirements.RequiredInfo, "; "))
		b.WriteString(".")
	}
	return b.String(), nil
}

// handleHandoff opens a support ticket and marks the conversation for a
// human agent. Once the flag is set it is never cleared automatically.
func (e *Engine) handleHandoff(ctx context.Context, state *models.ConversationState, message string) (string, error) {
	if state.HandoffReason == "" {
		state.HandoffReason = "user_requested"
	}

	result := e.tools.CreateHandoff(ctx, state.UserID, state.HandoffReason, message)
	if !result.Success {
		slog.Warn("Engine.handleHandoff: ticket creation failed", "sessionID", state.SessionID, "error", result.Error)
		return "I couldn't reach our support desk just now. Please try again in a moment.", nil
	}

	state.RequiresHuman = true
	slog.Info("Engine.handleHandoff: escalated", "sessionID", state.SessionID, "ticketID", result.TicketID)
	return e.composer.HandoffNotice(result.TicketID), nil
}
