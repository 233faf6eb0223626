// Package tools provides typed adapters to the pricing, document-search,
// claims-requirements, and human-handoff services.
//
// Every dispatcher call returns a success/error envelope; adapters never
// return a Go error to the flow layer, so a failed tool call degrades the
// turn's reply instead of aborting the session.
package tools

import (
	"context"
	"log/slog"
)

// ToolResult is the uniform adapter envelope.
type ToolResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func ok() ToolResult {
	return ToolResult{Success: true}
}

func failed(err error) ToolResult {
	return ToolResult{Success: false, Error: err.Error()}
}

// RiskFactors holds per-component risk scores plus the aggregate.
type RiskFactors struct {
	Age                  float64 `json:"age"`
	Activity             float64 `json:"activity"`
	Destination          float64 `json:"destination"`
	PreExistingCondition float64 `json:"pre_existing_condition"`
	Aggregate            float64 `json:"aggregate"`
}

// RiskResult is the assess_risk envelope.
type RiskResult struct {
	ToolResult
	Factors RiskFactors `json:"factors"`
}

// PriceRange is an indicative min/max quote for a product.
type PriceRange struct {
	PriceMin  float64            `json:"price_min"`
	PriceMax  float64            `json:"price_max"`
	Currency  string             `json:"currency"`
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
}

// RangeResult is the quote_range envelope.
type RangeResult struct {
	ToolResult
	Range PriceRange `json:"range"`
}

// FirmPrice is a bindable price for one product tier.
type FirmPrice struct {
	Price     float64            `json:"price"`
	Currency  string             `json:"currency"`
	Eligible  bool               `json:"eligibility"`
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
}

// PriceResult is the firm_price envelope.
type PriceResult struct {
	ToolResult
	Price FirmPrice `json:"price"`
}

// DocumentMatch is one ranked policy-document snippet.
type DocumentMatch struct {
	Text     string  `json:"text"`
	Citation string  `json:"citation"`
	Score    float64 `json:"score"`
}

// SearchResult is the search_documents envelope.
type SearchResult struct {
	ToolResult
	Matches []DocumentMatch `json:"matches,omitempty"`
}

// ClaimRequirements lists what a claimant must supply.
type ClaimRequirements struct {
	RequiredDocuments []string `json:"required_documents"`
	RequiredInfo      []string `json:"required_info"`
}

// ClaimResult is the get_claim_requirements envelope.
type ClaimResult struct {
	ToolResult
	Requirements ClaimRequirements `json:"requirements"`
}

// HandoffResult is the create_handoff envelope.
type HandoffResult struct {
	ToolResult
	TicketID string `json:"ticket_id,omitempty"`
}

// QuoteInput describes one pricing request.
type QuoteInput struct {
	Product      string       `json:"product"`
	TravelerAges []int        `json:"traveler_ages"`
	Activities   []string     `json:"activities,omitempty"`
	DurationDays int          `json:"duration_days"`
	Destinations []string     `json:"destinations"`
	Risk         *RiskFactors `json:"risk_factors,omitempty"`
}

// PricingService prices trips and scores risk.
type PricingService interface {
	AssessRisk(ctx context.Context, ages []int, activities, destinations []string) (RiskFactors, error)
	QuoteRange(ctx context.Context, in QuoteInput) (PriceRange, error)
	FirmPrice(ctx context.Context, in QuoteInput) (FirmPrice, error)
}

// DocumentSearchService retrieves ranked policy-document snippets.
type DocumentSearchService interface {
	Search(ctx context.Context, query string, filters map[string]string) ([]DocumentMatch, error)
}

// ClaimsService resolves claim-type requirements.
type ClaimsService interface {
	Requirements(ctx context.Context, claimType string) (ClaimRequirements, error)
}

// HandoffService opens tickets with the human support desk.
type HandoffService interface {
	CreateTicket(ctx context.Context, userID, reason, description string) (string, error)
}

// Dispatcher normalizes all downstream service calls into envelopes.
type Dispatcher struct {
	pricing PricingService
	search  DocumentSearchService
	claims  ClaimsService
	handoff HandoffService
}

// NewDispatcher wires the dispatcher with explicit service dependencies.
func NewDispatcher(pricing PricingService, search DocumentSearchService, claims ClaimsService, handoff HandoffService) *Dispatcher {
	return &Dispatcher{pricing: pricing, search: search, claims: claims, handoff: handoff}
}

// AssessRisk returns component risk scores for the trip.
func (d *Dispatcher) AssessRisk(ctx context.Context, ages []int, activities, destinations []string) RiskResult {
	factors, err := d.pricing.AssessRisk(ctx, ages, activities, destinations)
	if err != nil {
		slog.Warn("Dispatcher.AssessRisk failed", "error", err)
		return RiskResult{ToolResult: failed(err)}
	}
	return RiskResult{ToolResult: ok(), Factors: factors}
}

// QuoteRange returns an indicative price range for a product.
func (d *Dispatcher) QuoteRange(ctx context.Context, in QuoteInput) RangeResult {
	r, err := d.pricing.QuoteRange(ctx, in)
	if err != nil {
		slog.Warn("Dispatcher.QuoteRange failed", "error", err, "product", in.Product)
		return RangeResult{ToolResult: failed(err)}
	}
	return RangeResult{ToolResult: ok(), Range: r}
}

// FirmPrice returns a bindable price for one product tier.
func (d *Dispatcher) FirmPrice(ctx context.Context, in QuoteInput) PriceResult {
	p, err := d.pricing.FirmPrice(ctx, in)
	if err != nil {
		slog.Warn("Dispatcher.FirmPrice failed", "error", err, "product", in.Product)
		return PriceResult{ToolResult: failed(err)}
	}
	return PriceResult{ToolResult: ok(), Price: p}
}

// SearchDocuments returns ranked policy snippets for a query.
func (d *Dispatcher) SearchDocuments(ctx context.Context, query string, filters map[string]string) SearchResult {
	matches, err := d.search.Search(ctx, query, filters)
	if err != nil {
		slog.Warn("Dispatcher.SearchDocuments failed", "error", err)
		return SearchResult{ToolResult: failed(err)}
	}
	return SearchResult{ToolResult: ok(), Matches: matches}
}

// GetClaimRequirements returns documents and info required for a claim type.
func (d *Dispatcher) GetClaimRequirements(ctx context.Context, claimType string) ClaimResult {
	req, err := d.claims.Requirements(ctx, claimType)
	if err != nil {
		slog.Warn("Dispatcher.GetClaimRequirements failed", "error", err, "claimType", claimType)
		return ClaimResult{ToolResult: failed(err)}
	}
	return ClaimResult{ToolResult: ok(), Requirements: req}
}

// CreateHandoff opens a human-support ticket.
func (d *Dispatcher) CreateHandoff(ctx context.Context, userID, reason, description string) HandoffResult {
	ticket, err := d.handoff.CreateTicket(ctx, userID, reason, description)
	if err != nil {
		slog.Warn("Dispatcher.CreateHandoff failed", "error", err)
		return HandoffResult{ToolResult: failed(err)}
	}
	return HandoffResult{ToolResult: ok(), TicketID: ticket}
}
