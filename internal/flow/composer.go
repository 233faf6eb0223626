package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/quotepilot/quotepilot/internal/genai"
	"github.com/quotepilot/quotepilot/internal/models"
	"github.com/quotepilot/quotepilot/internal/tools"
)

// slotPrompts are the deterministic templates for each quote slot. They double
// as the fallback when the language model is unavailable.
var slotPrompts = map[string]string{
	models.SlotDestination:     "Where are you traveling to?",
	models.SlotDepartureDate:   "When does your trip start? A date like 2025-12-15 works best.",
	models.SlotReturnDate:      "And when do you return? A date like 2025-12-22 works best.",
	models.SlotTravelers:       "Who is traveling? Please list each traveler's age, e.g. \"2 adults ages 30 and 35\".",
	models.SlotAdventureSports: "Will anyone be doing adventure sports on this trip (scuba diving, skiing, trekking)? Yes or no.",
}

// slotReprompts are the error-aware variants used after a failed parse.
var slotReprompts = map[string]string{
	models.SlotDestination:     "Sorry, I didn't catch the destination. Which country or city are you visiting?",
	models.SlotDepartureDate:   "Sorry, I couldn't read that as a departure date. Could you give it as YYYY-MM-DD?",
	models.SlotReturnDate:      "Sorry, I couldn't read that as a return date. Could you give it as YYYY-MM-DD?",
	models.SlotTravelers:       "Sorry, I couldn't work out the travelers. Please list each traveler's age, e.g. \"ages 30 and 35\".",
	models.SlotAdventureSports: "Sorry, I need a yes or no: will anyone be doing adventure sports on this trip?",
}

// Composer produces the outbound phrasing for each turn. Slot prompts may be
// rephrased by the language model with the static template as fallback;
// summaries and quote formatting are always deterministic so figures are
// never regenerated by the model.
type Composer struct {
	gateway genai.Client
}

// NewComposer creates a composer backed by the given gateway.
func NewComposer(gateway genai.Client) *Composer {
	return &Composer{gateway: gateway}
}

// SlotPrompt asks for the named slot, phrased with conversational context
// when the model is available.
func (c *Composer) SlotPrompt(ctx context.Context, state *models.ConversationState, slot string) string {
	template := slotPrompts[slot]
	if template == "" {
		template = "Could you tell me more about your trip?"
	}
	out, err := c.gateway.Generate(ctx, genai.GenerateRequest{
		System: "You are a friendly travel insurance assistant. Rephrase the question naturally in one sentence. " +
			"Ask only for the requested detail, nothing else.",
		Prompt:      c.contextPrompt(state, "Ask the user: "+template),
		Temperature: 0.4,
		MaxTokens:   96,
		Fallback:    template,
	})
	if err != nil || strings.TrimSpace(out) == "" {
		return template
	}
	return out
}

// SlotReprompt re-asks for the same slot after a failed parse or validation.
func (c *Composer) SlotReprompt(ctx context.Context, state *models.ConversationState, slot string, cause error) string {
	template := slotReprompts[slot]
	if template == "" {
		template = slotPrompts[slot]
	}
	if cause == models.ErrReturnBeforeDeparture {
		template = "That return date is before your departure. When do you actually come back? A date like YYYY-MM-DD works best."
	}
	if cause == models.ErrDepartureAfterReturn {
		template = "That departure date is after your return date. When does the trip actually start? A date like YYYY-MM-DD works best."
	}
	if cause == models.ErrNoAdultTraveler {
		template = "At least one traveler must be an adult (18 or older). Could you list the travelers' ages again?"
	}
	return template
}

// contextPrompt folds the recent conversation into a generation prompt.
func (c *Composer) contextPrompt(state *models.ConversationState, instruction string) string {
	var b strings.Builder
	recent := state.Messages
	if len(recent) > 6 {
		recent = recent[len(recent)-6:]
	}
	for _, m := range recent {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Text)
	}
	b.WriteString(instruction)
	return b.String()
}

// ConfirmationSummary renders the collected trip for user sign-off. The
// summary is deterministic.
func (c *Composer) ConfirmationSummary(state *models.ConversationState) string {
	var b strings.Builder
	b.WriteString("Here's what I have:\n")
	if state.TripDetails.Destination != nil {
		fmt.Fprintf(&b, "- Destination: %s\n", *state.TripDetails.Destination)
	}
	if state.TripDetails.DepartureDate != nil {
		fmt.Fprintf(&b, "- Departure: %s\n", *state.TripDetails.DepartureDate)
	}
	if state.TripDetails.ReturnDate != nil {
		fmt.Fprintf(&b, "- Return: %s\n", *state.TripDetails.ReturnDate)
	}
	if len(state.TravelersData.Ages) > 0 {
		ageStrs := make([]string, len(state.TravelersData.Ages))
		for i, a := range state.TravelersData.Ages {
			ageStrs[i] = fmt.Sprintf("%d", a)
		}
		fmt.Fprintf(&b, "- Travelers: %d (ages %s)\n", state.TravelersData.Count, strings.Join(ageStrs, ", "))
	}
	if state.Preferences.AdventureSports != nil {
		answer := "no"
		if *state.Preferences.AdventureSports {
			answer = "yes"
		}
		fmt.Fprintf(&b, "- Adventure sports: %s\n", answer)
	}
	b.WriteString("Is everything correct? Reply yes to get your quote, or tell me what to change.")
	return b.String()
}

// FormatQuote renders the tiered quote deterministically. Prices are never
// passed back through the model.
func (c *Composer) FormatQuote(q *models.QuoteData) string {
	var b strings.Builder
	b.WriteString("Here is your travel insurance quote:\n")
	for _, tier := range q.Tiers {
		fmt.Fprintf(&b, "- %s: %.2f %s", titleCase(tier.Name), tier.Price, tier.Currency)
		if len(tier.Coverage) > 0 {
			fmt.Fprintf(&b, " (medical %.0f, cancellation %.0f, baggage %.0f)",
				tier.Coverage["medical"], tier.Coverage["cancellation"], tier.Coverage["baggage"])
		}
		b.WriteString("\n")
	}
	b.WriteString("Let me know if you'd like to proceed with one of these or have questions about the coverage.")
	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// RangePreview renders the indicative price band shown with the confirmation
// summary. Deterministic, like all price formatting.
func (c *Composer) RangePreview(r tools.PriceRange) string {
	return fmt.Sprintf("Trips like this usually come in between %.2f and %.2f %s.", r.PriceMin, r.PriceMax, r.Currency)
}

// HandoffNotice is the terminal message shown once a conversation is routed
// to a human agent.
func (c *Composer) HandoffNotice(ticketID string) string {
	if ticketID != "" {
		return fmt.Sprintf("I've passed your conversation to a human agent (reference %s). Someone will be with you shortly.", ticketID)
	}
	return "I've passed your conversation to a human agent. Someone will be with you shortly."
}

// DegradedReply is the non-fatal message used when a downstream tool fails.
func (c *Composer) DegradedReply() string {
	return "I couldn't retrieve that right now. Please try again in a moment."
}
