// Built-in service implementations used when no external service URL is
// configured. The rater is fully deterministic so quotes are reproducible.
package tools

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// DefaultCurrency is the quoting currency for the built-in rater.
const DefaultCurrency = "USD"

// Product tier names, in presentation order.
const (
	ProductStandard = "standard"
	ProductElite    = "elite"
	ProductPremier  = "premier"
)

// Products lists the priced tiers in presentation order.
var Products = []string{ProductStandard, ProductElite, ProductPremier}

// Built-in rater constants.
const (
	baseDailyRate       = 3.50
	childRateFactor     = 0.5
	seniorRateFactor    = 1.8
	matureRateFactor    = 1.3
	adventureLoading    = 1.4
	rangeSpreadFraction = 0.25
)

var tierFactors = map[string]float64{
	ProductStandard: 1.0,
	ProductElite:    1.6,
	ProductPremier:  2.2,
}

var tierCoverage = map[string]map[string]float64{
	ProductStandard: {"medical": 100000, "cancellation": 2500, "baggage": 1000},
	ProductElite:    {"medical": 500000, "cancellation": 5000, "baggage": 2500},
	ProductPremier:  {"medical": 1000000, "cancellation": 10000, "baggage": 5000},
}

// BuiltinPricer is a deterministic in-process rater.
type BuiltinPricer struct{}

// NewBuiltinPricer returns the deterministic rater.
func NewBuiltinPricer() *BuiltinPricer { return &BuiltinPricer{} }

// AssessRisk computes component scores from ages, activities, and destination
// count. Pre-existing conditions are not collected by the dialogue, so that
// component stays at zero unless an upstream service supplies it.
func (p *BuiltinPricer) AssessRisk(ctx context.Context, ages []int, activities, destinations []string) (RiskFactors, error) {
	if len(ages) == 0 {
		return RiskFactors{}, fmt.Errorf("no traveler ages supplied")
	}
	var ageSum float64
	for _, a := range ages {
		ageSum += float64(a)
	}
	f := RiskFactors{
		Age:         math.Min(1, (ageSum/float64(len(ages)))/100),
		Activity:    math.Min(1, 0.3*float64(len(activities))),
		Destination: math.Min(1, 0.1*float64(len(destinations))),
	}
	f.Aggregate = math.Min(1, 0.5*f.Age+0.3*f.Activity+0.1*f.Destination+0.1*f.PreExistingCondition)
	return f, nil
}

// perTripBase computes the risk-free trip premium before tier loading.
func perTripBase(in QuoteInput) (float64, error) {
	if len(in.TravelerAges) == 0 {
		return 0, fmt.Errorf("no traveler ages supplied")
	}
	if in.DurationDays <= 0 {
		return 0, fmt.Errorf("trip duration must be positive")
	}
	var total float64
	for _, age := range in.TravelerAges {
		rate := baseDailyRate
		switch {
		case age < 18:
			rate *= childRateFactor
		case age >= 70:
			rate *= seniorRateFactor
		case age >= 50:
			rate *= matureRateFactor
		}
		total += rate * float64(in.DurationDays)
	}
	for _, act := range in.Activities {
		if strings.Contains(strings.ToLower(act), "adventure") {
			total *= adventureLoading
			break
		}
	}
	return total, nil
}

// QuoteRange spreads the firm price into an indicative min/max band.
func (p *BuiltinPricer) QuoteRange(ctx context.Context, in QuoteInput) (PriceRange, error) {
	firm, err := p.FirmPrice(ctx, in)
	if err != nil {
		return PriceRange{}, err
	}
	spread := firm.Price * rangeSpreadFraction
	return PriceRange{
		PriceMin:  round2(firm.Price - spread),
		PriceMax:  round2(firm.Price + spread),
		Currency:  DefaultCurrency,
		Breakdown: firm.Breakdown,
	}, nil
}

// FirmPrice computes the bindable tier price, applying the aggregate risk
// loading when risk factors were assessed.
func (p *BuiltinPricer) FirmPrice(ctx context.Context, in QuoteInput) (FirmPrice, error) {
	factor, okTier := tierFactors[in.Product]
	if !okTier {
		return FirmPrice{}, fmt.Errorf("unknown product tier %q", in.Product)
	}
	base, err := perTripBase(in)
	if err != nil {
		return FirmPrice{}, err
	}
	price := base * factor
	if in.Risk != nil {
		price *= 1 + in.Risk.Aggregate
	}
	return FirmPrice{
		Price:     round2(price),
		Currency:  DefaultCurrency,
		Eligible:  true,
		Breakdown: tierCoverage[in.Product],
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// policyCorpus is a small built-in snippet set so policy questions can be
// answered without an external search service.
var policyCorpus = []DocumentMatch{
	{Text: "Emergency medical expenses abroad are covered up to the tier limit, including hospitalization and emergency dental treatment.", Citation: "Policy Wording §3.1 Medical"},
	{Text: "Trip cancellation is covered when caused by serious illness, injury, or death of the insured or a close relative, up to the tier limit.", Citation: "Policy Wording §4.2 Cancellation"},
	{Text: "Baggage and personal effects are covered against loss, theft, and damage during the trip, with a per-item limit.", Citation: "Policy Wording §5.1 Baggage"},
	{Text: "Adventure sports such as scuba diving, skiing, and trekking above 3000m are covered only when the adventure sports option is selected.", Citation: "Policy Wording §6.3 Adventure Sports"},
	{Text: "Pre-existing medical conditions are excluded unless declared and accepted in writing before the policy start date.", Citation: "Policy Wording §7.2 Exclusions"},
}

// BuiltinSearch ranks the embedded corpus by keyword overlap.
type BuiltinSearch struct{}

// NewBuiltinSearch returns the embedded-corpus search service.
func NewBuiltinSearch() *BuiltinSearch { return &BuiltinSearch{} }

// Search scores snippets by the fraction of query words they contain.
func (s *BuiltinSearch) Search(ctx context.Context, query string, filters map[string]string) ([]DocumentMatch, error) {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return nil, fmt.Errorf("empty query")
	}
	var matches []DocumentMatch
	for _, doc := range policyCorpus {
		lowered := strings.ToLower(doc.Text)
		hits := 0
		for _, w := range words {
			if len(w) > 3 && strings.Contains(lowered, w) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		m := doc
		m.Score = float64(hits) / float64(len(words))
		matches = append(matches, m)
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches, nil
}

// claimTable maps claim types to their documentation requirements.
var claimTable = map[string]ClaimRequirements{
	"medical": {
		RequiredDocuments: []string{"medical report", "itemized hospital invoices", "proof of travel dates"},
		RequiredInfo:      []string{"date of treatment", "treating facility", "description of illness or injury"},
	},
	"cancellation": {
		RequiredDocuments: []string{"booking confirmations", "cancellation invoices", "supporting evidence (e.g. medical certificate)"},
		RequiredInfo:      []string{"cancellation date", "reason for cancellation", "amounts refunded by providers"},
	},
	"baggage": {
		RequiredDocuments: []string{"property irregularity report", "purchase receipts", "airline correspondence"},
		RequiredInfo:      []string{"date of loss", "list of affected items", "place of loss"},
	},
	"delay": {
		RequiredDocuments: []string{"carrier delay confirmation", "boarding passes", "receipts for additional expenses"},
		RequiredInfo:      []string{"scheduled and actual times", "carrier and flight number"},
	},
}

// BuiltinClaims serves the embedded claim-requirements table.
type BuiltinClaims struct{}

// NewBuiltinClaims returns the embedded claims service.
func NewBuiltinClaims() *BuiltinClaims { return &BuiltinClaims{} }

// Requirements returns the documentation requirements for a claim type.
func (c *BuiltinClaims) Requirements(ctx context.Context, claimType string) (ClaimRequirements, error) {
	req, found := claimTable[strings.ToLower(strings.TrimSpace(claimType))]
	if !found {
		return ClaimRequirements{}, fmt.Errorf("unknown claim type %q", claimType)
	}
	return req, nil
}

// BuiltinHandoff issues locally generated ticket ids.
type BuiltinHandoff struct{}

// NewBuiltinHandoff returns the local handoff service.
func NewBuiltinHandoff() *BuiltinHandoff { return &BuiltinHandoff{} }

// CreateTicket allocates a ticket id for the escalation.
func (h *BuiltinHandoff) CreateTicket(ctx context.Context, userID, reason, description string) (string, error) {
	return "handoff-" + uuid.NewString(), nil
}
