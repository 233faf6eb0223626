// The quote intent handler: a slot-filling state machine that collects
// destination, dates, traveler ages, and the adventure-sports preference in a
// fixed order, then hands off to the confirmation step.
package flow

import (
	"context"
	"log/slog"
	"time"

	"github.com/quotepilot/quotepilot/internal/models"
	"github.com/quotepilot/quotepilot/internal/tools"
)

// handleQuote advances the slot-filling machine by one turn. A single message
// may fill several slots at once; when every slot holds a value the state
// moves to confirmation instead of pricing directly.
func (e *Engine) handleQuote(ctx context.Context, state *models.ConversationState, message string) (string, error) {
	if state.AwaitingConfirmation {
		return e.handleConfirmation(ctx, state, message)
	}

	previousAwaiting := state.AwaitingField
	filled, parseErr := e.fillSlots(state, message)

	if parseErr != nil {
		// validation failure: re-prompt the offending slot, everything else
		// untouched
		state.AwaitingField = state.FirstMissingSlot()
		return e.composer.SlotReprompt(ctx, state, state.AwaitingField, parseErr), nil
	}

	missing := state.FirstMissingSlot()
	if missing == "" {
		state.AwaitingField = ""
		state.AwaitingConfirmation = true
		slog.Debug("Engine.handleQuote: all slots filled", "sessionID", state.SessionID)
		summary := e.composer.ConfirmationSummary(state)
		// an indicative range helps the user decide; skip it quietly on failure
		in := quoteInput(state)
		in.Product = tools.ProductStandard
		if r := e.tools.QuoteRange(ctx, in); r.Success {
			summary = e.composer.RangePreview(r.Range) + "\n" + summary
		}
		return summary, nil
	}

	state.AwaitingField = missing
	if filled == 0 && previousAwaiting == missing {
		// the awaited slot was asked for and the message supplied nothing
		return e.composer.SlotReprompt(ctx, state, missing, nil), nil
	}
	return e.composer.SlotPrompt(ctx, state, missing), nil
}

// fillSlots attempts to parse every still-missing slot from the message and
// returns how many were filled. A validation error leaves the offending slot
// empty and is reported to the caller; slots already filled are never
// overwritten here.
func (e *Engine) fillSlots(state *models.ConversationState, message string) (int, error) {
	filled := 0
	now := time.Now().UTC()

	if !state.SlotFilled(models.SlotDestination) {
		if dest, found := ParseDestination(message, state.AwaitingField == models.SlotDestination); found {
			state.TripDetails.Destination = &dest
			state.TripDetails.ArrivalCountry = &dest
			filled++
		}
	}

	if err := e.fillDates(state, message, now, &filled); err != nil {
		return filled, err
	}

	if !state.SlotFilled(models.SlotTravelers) {
		if ages, found := ParseAges(message); found {
			if err := ValidateAges(ages); err != nil {
				return filled, err
			}
			adults, children := CountAdults(ages)
			state.TravelersData = models.TravelersData{Ages: ages, Count: len(ages)}
			state.TripDetails.AdultsCount = &adults
			state.TripDetails.ChildrenCount = &children
			filled++
		}
	}

	if !state.SlotFilled(models.SlotAdventureSports) {
		if pref, found := ParseAdventure(message, state.AwaitingField == models.SlotAdventureSports); found {
			state.Preferences.AdventureSports = pref
			filled++
		}
	}

	return filled, nil
}

// fillDates resolves departure and return dates from the message. ISO dates
// are taken in order (first departure, second return); a month-name range
// fills both; a lone natural-language date answers the awaited date slot.
func (e *Engine) fillDates(state *models.ConversationState, message string, now time.Time, filled *int) error {
	depMissing := !state.SlotFilled(models.SlotDepartureDate)
	retMissing := !state.SlotFilled(models.SlotReturnDate)
	if !depMissing && !retMissing {
		return nil
	}

	isoDates := ParseISODates(message)

	if depMissing && retMissing {
		if dep, ret, found := ParseDateRange(message, now); found {
			return e.setDates(state, dep, ret, filled)
		}
		if len(isoDates) >= 2 {
			return e.setDates(state, isoDates[0], isoDates[1], filled)
		}
	}

	candidate := ""
	if len(isoDates) > 0 {
		candidate = isoDates[0]
	} else if state.AwaitingField == models.SlotDepartureDate || state.AwaitingField == models.SlotReturnDate {
		if d, found := ParseSingleDate(message, now); found {
			candidate = d
		}
	}
	if candidate == "" {
		return nil
	}

	if depMissing {
		return e.setDeparture(state, candidate, filled)
	}
	return e.setReturn(state, candidate, filled)
}

// setDates writes both dates at once. Ordering is checked before either slot
// is touched, so a reversed span leaves both empty.
func (e *Engine) setDates(state *models.ConversationState, dep, ret string, filled *int) error {
	if err := checkDateOrder(dep, ret); err != nil {
		return err
	}
	state.TripDetails.DepartureDate = &dep
	*filled++
	state.TripDetails.ReturnDate = &ret
	*filled++
	return nil
}

// setDeparture writes the departure date after checking ordering against an
// already-filled return date. On a violation the departure stays empty so the
// same slot is re-prompted.
func (e *Engine) setDeparture(state *models.ConversationState, dep string, filled *int) error {
	if state.TripDetails.ReturnDate != nil {
		if err := checkDateOrder(dep, *state.TripDetails.ReturnDate); err != nil {
			return models.ErrDepartureAfterReturn
		}
	}
	state.TripDetails.DepartureDate = &dep
	*filled++
	return nil
}

// setReturn writes the return date after checking trip ordering. On a
// violation the return date stays empty so the same slot is re-prompted.
func (e *Engine) setReturn(state *models.ConversationState, ret string, filled *int) error {
	if state.TripDetails.DepartureDate != nil {
		if err := checkDateOrder(*state.TripDetails.DepartureDate, ret); err != nil {
			return err
		}
	}
	state.TripDetails.ReturnDate = &ret
	*filled++
	return nil
}

func checkDateOrder(dep, ret string) error {
	depT, errDep := time.Parse(models.DateLayout, dep)
	retT, errRet := time.Parse(models.DateLayout, ret)
	if errDep == nil && errRet == nil && retT.Before(depT) {
		return models.ErrReturnBeforeDeparture
	}
	return nil
}
