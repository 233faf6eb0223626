package genai

import (
	"context"
	"log/slog"
	"strings"
)

// Keyword-heuristic confidences. These are placeholders carried over from the
// original rater, not calibrated values; the routing threshold that consumes
// them is configurable.
const (
	// KeywordHitConfidence is reported when a candidate's keywords match.
	KeywordHitConfidence = 0.8
	// NoMatchConfidence is reported when no keywords match any candidate.
	NoMatchConfidence = 0.5
)

// intentKeywords maps classification labels to trigger keywords used by the
// deterministic fallback classifier.
var intentKeywords = map[string][]string{
	"quote": {
		"quote", "insurance", "insure", "price", "cost", "cover me", "coverage for",
		"trip", "travel", "policy for", "how much",
	},
	"policy_explanation": {
		"policy", "covered", "coverage", "explain", "what does", "included",
		"exclusion", "terms", "deductible",
	},
	"claims_guidance": {
		"claim", "reimburse", "refund", "accident", "lost", "stolen", "delayed",
		"cancelled flight", "hospital",
	},
	"human_handoff": {
		"human", "agent", "person", "representative", "speak to someone", "talk to someone",
	},
}

// TemplateClient is the deterministic fallback gateway: static templates for
// generation and keyword scoring for classification. It never fails.
type TemplateClient struct{}

// NewTemplateClient creates the deterministic fallback client.
func NewTemplateClient() *TemplateClient {
	return &TemplateClient{}
}

// Generate returns the request's deterministic template.
func (c *TemplateClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if req.Fallback != "" {
		return req.Fallback, nil
	}
	return "Could you tell me a bit more so I can help with your travel insurance?", nil
}

// Classify scores candidates by keyword hits in the text. The candidate with
// the most hits wins with KeywordHitConfidence; no hits yields human_handoff
// (or the first candidate) with NoMatchConfidence.
func (c *TemplateClient) Classify(ctx context.Context, text string, candidates []string) (Classification, error) {
	lowered := strings.ToLower(text)

	best := ""
	bestHits := 0
	for _, cand := range candidates {
		hits := 0
		for _, kw := range intentKeywords[cand] {
			if strings.Contains(lowered, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best = cand
			bestHits = hits
		}
	}
	if bestHits > 0 {
		return Classification{Label: best, Confidence: KeywordHitConfidence}, nil
	}

	fallback := "human_handoff"
	found := false
	for _, cand := range candidates {
		if cand == fallback {
			found = true
			break
		}
	}
	if !found && len(candidates) > 0 {
		fallback = candidates[0]
	}
	return Classification{Label: fallback, Confidence: NoMatchConfidence}, nil
}

// fallbackClient tries a primary client and silently substitutes the
// deterministic fallback on any failure, so a turn always completes.
type fallbackClient struct {
	primary  Client
	fallback Client
}

// WithFallback wraps primary so that every failed call is retried once
// against the deterministic fallback client.
func WithFallback(primary, fallback Client) Client {
	return &fallbackClient{primary: primary, fallback: fallback}
}

func (c *fallbackClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	out, err := c.primary.Generate(ctx, req)
	if err != nil {
		slog.Warn("genai.fallback: generate substituted with template", "error", err)
		return c.fallback.Generate(ctx, req)
	}
	return out, nil
}

func (c *fallbackClient) Classify(ctx context.Context, text string, candidates []string) (Classification, error) {
	result, err := c.primary.Classify(ctx, text, candidates)
	if err != nil {
		slog.Warn("genai.fallback: classify substituted with keyword heuristic", "error", err)
		return c.fallback.Classify(ctx, text, candidates)
	}
	return result, nil
}
