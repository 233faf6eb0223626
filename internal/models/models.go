// Package models defines the core data structures for QuotePilot.
//
// It includes the conversation state object shared between the flow engine,
// the state store, and the HTTP API.
package models

import (
	"errors"
	"time"
)

// Intent identifies the top-level purpose of a user turn.
type Intent string

const (
	// IntentQuote drives the slot-filling quote flow.
	IntentQuote Intent = "quote"
	// IntentPolicyExplanation answers questions about coverage and policy terms.
	IntentPolicyExplanation Intent = "policy_explanation"
	// IntentClaimsGuidance walks the user through claim requirements.
	IntentClaimsGuidance Intent = "claims_guidance"
	// IntentHumanHandoff escalates the conversation to a human agent.
	IntentHumanHandoff Intent = "human_handoff"
	// IntentUnset marks a session that has not been routed yet.
	IntentUnset Intent = ""
)

// IsValidIntent checks whether the given intent is part of the closed set.
func IsValidIntent(i Intent) bool {
	switch i {
	case IntentQuote, IntentPolicyExplanation, IntentClaimsGuidance, IntentHumanHandoff:
		return true
	default:
		return false
	}
}

// Slot names used by the quote flow.
const (
	SlotDestination     = "destination"
	SlotDepartureDate   = "departure_date"
	SlotReturnDate      = "return_date"
	SlotTravelers       = "travelers"
	SlotAdventureSports = "adventure_sports"
)

// QuoteSlotOrder is the required collection order for the quote intent.
var QuoteSlotOrder = []string{
	SlotDestination,
	SlotDepartureDate,
	SlotReturnDate,
	SlotTravelers,
	SlotAdventureSports,
}

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single turn record in the conversation history.
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// DateLayout is the canonical wire format for trip dates.
const DateLayout = "2006-01-02"

// TripDetails holds the trip slots collected by the quote flow.
// Fields are nil until filled.
type TripDetails struct {
	Destination      *string `json:"destination,omitempty"`
	DepartureDate    *string `json:"departure_date,omitempty"` // YYYY-MM-DD
	ReturnDate       *string `json:"return_date,omitempty"`    // YYYY-MM-DD
	DepartureCountry *string `json:"departure_country,omitempty"`
	ArrivalCountry   *string `json:"arrival_country,omitempty"`
	AdultsCount      *int    `json:"adults_count,omitempty"`
	ChildrenCount    *int    `json:"children_count,omitempty"`
}

// DurationDays returns the trip length in days, inclusive of the departure
// day, or 0 when either date is missing or malformed.
func (t *TripDetails) DurationDays() int {
	if t.DepartureDate == nil || t.ReturnDate == nil {
		return 0
	}
	dep, err := time.Parse(DateLayout, *t.DepartureDate)
	if err != nil {
		return 0
	}
	ret, err := time.Parse(DateLayout, *t.ReturnDate)
	if err != nil {
		return 0
	}
	days := int(ret.Sub(dep).Hours()/24) + 1
	if days < 1 {
		return 0
	}
	return days
}

// TravelersData holds the traveler ages collected by the quote flow.
type TravelersData struct {
	Ages  []int `json:"ages,omitempty"`
	Count int   `json:"count"`
}

// Preferences holds optional coverage preferences.
type Preferences struct {
	AdventureSports *bool `json:"adventure_sports,omitempty"`
}

// QuoteTier is one priced product level.
type QuoteTier struct {
	Name     string             `json:"name"`
	Price    float64            `json:"price"`
	Currency string             `json:"currency"`
	Coverage map[string]float64 `json:"coverage,omitempty"`
}

// QuoteData is the structured pricing result attached to a session once
// pricing succeeds.
type QuoteData struct {
	Currency string      `json:"currency"`
	Tiers    []QuoteTier `json:"tiers"`
}

// ConversationState is the full per-session state object. It is owned by the
// state store and mutated only by flow handlers, once per turn.
type ConversationState struct {
	SessionID            string        `json:"session_id"`
	UserID               string        `json:"user_id,omitempty"`
	Messages             []Message     `json:"messages"`
	CurrentIntent        Intent        `json:"current_intent"`
	ConfidenceScore      float64       `json:"confidence_score"`
	TripDetails          TripDetails   `json:"trip_details"`
	TravelersData        TravelersData `json:"travelers_data"`
	Preferences          Preferences   `json:"preferences"`
	AwaitingField        string        `json:"awaiting_field,omitempty"`
	AwaitingConfirmation bool          `json:"awaiting_confirmation"`
	ConfirmationReceived bool          `json:"confirmation_received"`
	PolicyQuestion       string        `json:"policy_question,omitempty"`
	ClaimType            string        `json:"claim_type,omitempty"`
	HandoffReason        string        `json:"handoff_reason,omitempty"`
	QuoteData            *QuoteData    `json:"quote_data,omitempty"`
	RequiresHuman        bool          `json:"requires_human"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// NewConversationState initializes an empty state for a session.
func NewConversationState(sessionID, userID string) *ConversationState {
	now := time.Now().UTC()
	return &ConversationState{
		SessionID:     sessionID,
		UserID:        userID,
		Messages:      []Message{},
		CurrentIntent: IntentUnset,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// AppendMessage appends a turn record to the ordered history.
func (s *ConversationState) AppendMessage(role Role, text string) {
	s.Messages = append(s.Messages, Message{Role: role, Text: text, Timestamp: time.Now().UTC()})
}

// FlowInProgress reports whether a flow is mid-collection, in which case the
// intent router must not re-route ordinary messages.
func (s *ConversationState) FlowInProgress() bool {
	return s.AwaitingField != "" || s.AwaitingConfirmation
}

// SlotFilled reports whether the named quote slot holds a value.
func (s *ConversationState) SlotFilled(slot string) bool {
	switch slot {
	case SlotDestination:
		return s.TripDetails.Destination != nil
	case SlotDepartureDate:
		return s.TripDetails.DepartureDate != nil
	case SlotReturnDate:
		return s.TripDetails.ReturnDate != nil
	case SlotTravelers:
		return len(s.TravelersData.Ages) > 0
	case SlotAdventureSports:
		return s.Preferences.AdventureSports != nil
	default:
		return false
	}
}

// FirstMissingSlot returns the first unfilled quote slot in required order,
// or "" when every slot holds a value.
func (s *ConversationState) FirstMissingSlot() string {
	for _, slot := range QuoteSlotOrder {
		if !s.SlotFilled(slot) {
			return slot
		}
	}
	return ""
}

// ResetSlot clears exactly one slot. Unrelated slots are untouched.
func (s *ConversationState) ResetSlot(slot string) {
	switch slot {
	case SlotDestination:
		s.TripDetails.Destination = nil
		s.TripDetails.ArrivalCountry = nil
	case SlotDepartureDate:
		s.TripDetails.DepartureDate = nil
	case SlotReturnDate:
		s.TripDetails.ReturnDate = nil
	case SlotTravelers:
		s.TravelersData = TravelersData{}
		s.TripDetails.AdultsCount = nil
		s.TripDetails.ChildrenCount = nil
	case SlotAdventureSports:
		s.Preferences.AdventureSports = nil
	}
}

// ResetQuoteProgress discards unconfirmed slot progress for the quote flow.
// Used only on an explicit restart.
func (s *ConversationState) ResetQuoteProgress() {
	s.TripDetails = TripDetails{}
	s.TravelersData = TravelersData{}
	s.Preferences = Preferences{}
	s.AwaitingField = ""
	s.AwaitingConfirmation = false
	s.ConfirmationReceived = false
	s.QuoteData = nil
}

// Session identifies a conversation thread.
type Session struct {
	ID        string    `json:"session_id"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validation errors shared across the flow and API layers.
var (
	ErrReturnBeforeDeparture = errors.New("return date is before departure date")
	ErrDepartureAfterReturn  = errors.New("departure date is after return date")
	ErrZeroTravelers         = errors.New("at least one traveler is required")
	ErrNoAdultTraveler       = errors.New("at least one adult traveler is required")
	ErrUnparsableDate        = errors.New("date could not be parsed")
	ErrUnparsableTravelers   = errors.New("traveler ages could not be parsed")
	ErrEmptyMessage          = errors.New("message cannot be empty")
	ErrInvalidSessionID      = errors.New("session id is not a well-formed identifier")
)
