// HTTP adapters for externally hosted pricing, search, claims, and handoff
// services. Each adapter posts JSON and decodes a JSON reply, bounded by the
// shared client timeout.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultServiceTimeout bounds each downstream service call.
const DefaultServiceTimeout = 10 * time.Second

func newServiceClient() *http.Client {
	return &http.Client{Timeout: DefaultServiceTimeout}
}

// postJSON posts the payload to url and decodes the response body into out.
func postJSON(ctx context.Context, client *http.Client, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned status %d: %s", url, resp.StatusCode, string(raw))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

// HTTPPricer calls an external pricing service.
type HTTPPricer struct {
	baseURL string
	client  *http.Client
}

// NewHTTPPricer creates a pricing adapter rooted at baseURL.
func NewHTTPPricer(baseURL string) *HTTPPricer {
	return &HTTPPricer{baseURL: baseURL, client: newServiceClient()}
}

func (p *HTTPPricer) AssessRisk(ctx context.Context, ages []int, activities, destinations []string) (RiskFactors, error) {
	payload := map[string]any{"traveler_ages": ages, "activities": activities, "destinations": destinations}
	var out RiskFactors
	if err := postJSON(ctx, p.client, p.baseURL+"/risk", payload, &out); err != nil {
		return RiskFactors{}, err
	}
	return out, nil
}

func (p *HTTPPricer) QuoteRange(ctx context.Context, in QuoteInput) (PriceRange, error) {
	var out PriceRange
	if err := postJSON(ctx, p.client, p.baseURL+"/range", in, &out); err != nil {
		return PriceRange{}, err
	}
	return out, nil
}

func (p *HTTPPricer) FirmPrice(ctx context.Context, in QuoteInput) (FirmPrice, error) {
	var out FirmPrice
	if err := postJSON(ctx, p.client, p.baseURL+"/price", in, &out); err != nil {
		return FirmPrice{}, err
	}
	return out, nil
}

// HTTPSearch calls an external document-search service.
type HTTPSearch struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSearch creates a document-search adapter rooted at baseURL.
func NewHTTPSearch(baseURL string) *HTTPSearch {
	return &HTTPSearch{baseURL: baseURL, client: newServiceClient()}
}

func (s *HTTPSearch) Search(ctx context.Context, query string, filters map[string]string) ([]DocumentMatch, error) {
	payload := map[string]any{"query": query, "filters": filters}
	var out struct {
		Matches []DocumentMatch `json:"matches"`
	}
	if err := postJSON(ctx, s.client, s.baseURL+"/search", payload, &out); err != nil {
		return nil, err
	}
	return out.Matches, nil
}

// HTTPClaims calls an external claims-requirements service.
type HTTPClaims struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClaims creates a claims adapter rooted at baseURL.
func NewHTTPClaims(baseURL string) *HTTPClaims {
	return &HTTPClaims{baseURL: baseURL, client: newServiceClient()}
}

func (c *HTTPClaims) Requirements(ctx context.Context, claimType string) (ClaimRequirements, error) {
	payload := map[string]any{"claim_type": claimType}
	var out ClaimRequirements
	if err := postJSON(ctx, c.client, c.baseURL+"/requirements", payload, &out); err != nil {
		return ClaimRequirements{}, err
	}
	return out, nil
}

// HTTPHandoff calls an external ticketing service.
type HTTPHandoff struct {
	baseURL string
	client  *http.Client
}

// NewHTTPHandoff creates a handoff adapter rooted at baseURL.
func NewHTTPHandoff(baseURL string) *HTTPHandoff {
	return &HTTPHandoff{baseURL: baseURL, client: newServiceClient()}
}

func (h *HTTPHandoff) CreateTicket(ctx context.Context, userID, reason, description string) (string, error) {
	payload := map[string]any{"user_id": userID, "reason": reason, "description": description}
	var out struct {
		TicketID string `json:"ticket_id"`
	}
	if err := postJSON(ctx, h.client, h.baseURL+"/tickets", payload, &out); err != nil {
		return "", err
	}
	if out.TicketID == "" {
		return "", fmt.Errorf("handoff service returned no ticket id")
	}
	return out.TicketID, nil
}
