// Confirmation step for the quote flow: summary sign-off, correction
// targeting, and the pricing call that produces quote data.
package flow

import (
	"context"
	"log/slog"
	"strings"

	"github.com/quotepilot/quotepilot/internal/models"
	"github.com/quotepilot/quotepilot/internal/tools"
)

// correctionTarget pairs a slot with the keywords a correction message uses
// to name it. Order matters: the first matching slot wins.
type correctionTarget struct {
	slot     string
	keywords []string
}

var correctionTargets = []correctionTarget{
	{models.SlotDepartureDate, []string{"departure", "depart", "leave", "leaving", "start date", "starts"}},
	{models.SlotReturnDate, []string{"return", "come back", "coming back", "end date", "ends"}},
	{models.SlotTravelers, []string{"traveler", "traveller", "people", "adult", "child", "kid", "ages", "age", "passenger"}},
	{models.SlotAdventureSports, []string{"adventure", "sports", "activities", "activity"}},
	{models.SlotDestination, []string{"destination", "country", "place", "city", "location", "going"}},
}

// correctionSlot returns the slot a correction message targets, or "".
func correctionSlot(message string) string {
	lowered := strings.ToLower(message)
	for _, target := range correctionTargets {
		for _, kw := range target.keywords {
			if strings.Contains(lowered, kw) {
				return target.slot
			}
		}
	}
	return ""
}

// handleConfirmation processes the user's reply to the confirmation summary.
// Affirmative answers trigger pricing; corrections reset exactly the named
// slot and re-enter slot filling there; anything else asks the user to
// restate which field is wrong.
func (e *Engine) handleConfirmation(ctx context.Context, state *models.ConversationState, message string) (string, error) {
	if IsAffirmative(message) {
		return e.priceQuote(ctx, state)
	}

	if slot := correctionSlot(message); slot != "" {
		state.ResetSlot(slot)
		state.AwaitingConfirmation = false
		state.AwaitingField = slot
		slog.Debug("Engine.handleConfirmation: correction", "sessionID", state.SessionID, "slot", slot)
		// the correction message may already carry the new value
		return e.handleQuote(ctx, state, message)
	}

	if IsNegative(message) {
		return "No problem. Which detail should I change: destination, departure date, return date, travelers, or adventure sports?", nil
	}
	return "Just to be sure: is the summary above correct? Reply yes, or tell me which detail to change.", nil
}

// priceQuote runs risk assessment and prices every product tier. Any tool
// failure leaves the state at the confirmation step so the user can retry.
func (e *Engine) priceQuote(ctx context.Context, state *models.ConversationState) (string, error) {
	if state.QuoteData != nil {
		// already priced; never quote twice for the same confirmation
		state.AwaitingConfirmation = false
		state.ConfirmationReceived = true
		return e.composer.FormatQuote(state.QuoteData), nil
	}

	input := quoteInput(state)

	risk := e.tools.AssessRisk(ctx, input.TravelerAges, input.Activities, input.Destinations)
	if risk.Success {
		input.Risk = &risk.Factors
	}

	quote := &models.QuoteData{}
	for _, product := range tools.Products {
		in := input
		in.Product = product
		res := e.tools.FirmPrice(ctx, in)
		if !res.Success {
			slog.Warn("Engine.priceQuote: pricing failed", "sessionID", state.SessionID, "product", product, "error", res.Error)
			return e.composer.DegradedReply(), nil
		}
		quote.Currency = res.Price.Currency
		quote.Tiers = append(quote.Tiers, models.QuoteTier{
			Name:     product,
			Price:    res.Price.Price,
			Currency: res.Price.Currency,
			Coverage: res.Price.Breakdown,
		})
	}

	state.ConfirmationReceived = true
	state.AwaitingConfirmation = false
	state.QuoteData = quote
	slog.Info("Engine.priceQuote: quote produced", "sessionID", state.SessionID, "tiers", len(quote.Tiers))
	return e.composer.FormatQuote(quote), nil
}

// quoteInput assembles the pricing request from collected state.
func quoteInput(state *models.ConversationState) tools.QuoteInput {
	var activities []string
	if state.Preferences.AdventureSports != nil && *state.Preferences.AdventureSports {
		activities = append(activities, "adventure_sports")
	}
	var destinations []string
	if state.TripDetails.Destination != nil {
		destinations = append(destinations, *state.TripDetails.Destination)
	}
	return tools.QuoteInput{
		TravelerAges: state.TravelersData.Ages,
		Activities:   activities,
		DurationDays: state.TripDetails.DurationDays(),
		Destinations: destinations,
	}
}
