package client

import (
	"context"
	"time"

	"pulsenet-client/internal/models"
)

// DefaultMatchTimeout bounds a matching request when no timeout is configured.
const DefaultMatchTimeout = 30 * time.Second

// MatchClient requests ranked donor candidates.
type MatchClient struct {
	base
}

// NewMatchClient creates a matching client for the backend at baseURL.
func NewMatchClient(baseURL string, tokens TokenSource, opts ...Option) *MatchClient {
	b := newBase(baseURL, tokens, DefaultMatchTimeout, opts)
	b.logger = b.logger.With().Str("component", "match_client").Logger()
	return &MatchClient{base: b}
}

// FetchMatches posts the query to /api/match. The query is validated before it is sent.
func (c *MatchClient) FetchMatches(ctx context.Context, q models.MatchQuery) (*models.MatchResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var res models.MatchResult
	if err := c.postJSON(ctx, "/api/match", q, &res); err != nil {
		return nil, err
	}
	if res.Candidates == nil {
		res.Candidates = []models.DonorCandidate{}
	}

	c.logger.Info().Int("candidates", len(res.Candidates)).Bool("alert", res.Alert != nil).Msg("matches fetched")
	return &res, nil
}
