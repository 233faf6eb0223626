package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinPricerFirmPrice(t *testing.T) {
	p := NewBuiltinPricer()
	ctx := context.Background()

	in := QuoteInput{
		Product:      ProductStandard,
		TravelerAges: []int{30, 8},
		DurationDays: 10,
		Destinations: []string{"Thailand"},
	}

	// adult 3.50/day, child at half rate, 10 days
	firm, err := p.FirmPrice(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 52.5, firm.Price)
	assert.Equal(t, "USD", firm.Currency)
	assert.True(t, firm.Eligible)
	assert.Equal(t, 100000.0, firm.Breakdown["medical"])

	in.Product = ProductElite
	firm, err = p.FirmPrice(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 84.0, firm.Price)

	in.Product = "platinum"
	_, err = p.FirmPrice(ctx, in)
	assert.Error(t, err)
}

func TestBuiltinPricerAdventureLoading(t *testing.T) {
	p := NewBuiltinPricer()
	ctx := context.Background()

	base := QuoteInput{Product: ProductStandard, TravelerAges: []int{30}, DurationDays: 10}
	plain, err := p.FirmPrice(ctx, base)
	require.NoError(t, err)

	base.Activities = []string{"adventure_sports"}
	loaded, err := p.FirmPrice(ctx, base)
	require.NoError(t, err)
	assert.InDelta(t, plain.Price*1.4, loaded.Price, 0.01)
}

func TestBuiltinPricerRiskLoading(t *testing.T) {
	p := NewBuiltinPricer()
	ctx := context.Background()

	risk, err := p.AssessRisk(ctx, []int{30}, nil, []string{"Japan"})
	require.NoError(t, err)
	assert.Greater(t, risk.Aggregate, 0.0)
	assert.LessOrEqual(t, risk.Aggregate, 1.0)

	in := QuoteInput{Product: ProductStandard, TravelerAges: []int{30}, DurationDays: 7}
	plain, err := p.FirmPrice(ctx, in)
	require.NoError(t, err)

	in.Risk = &risk
	loaded, err := p.FirmPrice(ctx, in)
	require.NoError(t, err)
	assert.Greater(t, loaded.Price, plain.Price)
}

func TestBuiltinPricerValidation(t *testing.T) {
	p := NewBuiltinPricer()
	ctx := context.Background()

	_, err := p.FirmPrice(ctx, QuoteInput{Product: ProductStandard, DurationDays: 7})
	assert.Error(t, err)

	_, err = p.FirmPrice(ctx, QuoteInput{Product: ProductStandard, TravelerAges: []int{30}})
	assert.Error(t, err)

	_, err = p.AssessRisk(ctx, nil, nil, nil)
	assert.Error(t, err)
}

func TestBuiltinPricerQuoteRange(t *testing.T) {
	p := NewBuiltinPricer()
	in := QuoteInput{Product: ProductStandard, TravelerAges: []int{30}, DurationDays: 10}

	r, err := p.QuoteRange(context.Background(), in)
	require.NoError(t, err)
	assert.Less(t, r.PriceMin, r.PriceMax)
	assert.Equal(t, "USD", r.Currency)
}

func TestBuiltinSearch(t *testing.T) {
	s := NewBuiltinSearch()

	matches, err := s.Search(context.Background(), "is my baggage covered if stolen?", nil)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Contains(t, matches[0].Text, "Baggage")
	assert.NotEmpty(t, matches[0].Citation)

	_, err = s.Search(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestBuiltinClaims(t *testing.T) {
	c := NewBuiltinClaims()

	req, err := c.Requirements(context.Background(), "Medical")
	require.NoError(t, err)
	assert.NotEmpty(t, req.RequiredDocuments)
	assert.NotEmpty(t, req.RequiredInfo)

	_, err = c.Requirements(context.Background(), "alien abduction")
	assert.Error(t, err)
}

func TestBuiltinHandoff(t *testing.T) {
	h := NewBuiltinHandoff()
	ticket, err := h.CreateTicket(context.Background(), "user-1", "user_requested", "help")
	require.NoError(t, err)
	assert.NotEmpty(t, ticket)
}

// brokenPricer exercises the dispatcher's failure envelope.
type brokenPricer struct{ BuiltinPricer }

func (brokenPricer) FirmPrice(ctx context.Context, in QuoteInput) (FirmPrice, error) {
	return FirmPrice{}, assert.AnError
}

func TestDispatcherEnvelopes(t *testing.T) {
	d := NewDispatcher(&brokenPricer{}, NewBuiltinSearch(), NewBuiltinClaims(), NewBuiltinHandoff())
	ctx := context.Background()

	res := d.FirmPrice(ctx, QuoteInput{Product: ProductStandard, TravelerAges: []int{30}, DurationDays: 5})
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)

	risk := d.AssessRisk(ctx, []int{30}, nil, nil)
	assert.True(t, risk.Success)
	assert.Empty(t, risk.Error)

	claim := d.GetClaimRequirements(ctx, "nonsense")
	assert.False(t, claim.Success)

	handoff := d.CreateHandoff(ctx, "u", "r", "d")
	assert.True(t, handoff.Success)
	assert.NotEmpty(t, handoff.TicketID)
}
