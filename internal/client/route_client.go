package client

import (
	"context"
	"time"

	"pulsenet-client/internal/models"
)

// RouteTimeout is the fixed deadline for a routing request.
const RouteTimeout = 20 * time.Second

// RouteClient requests a travel route between two points.
type RouteClient struct {
	base
}

// NewRouteClient creates a routing client for the backend at baseURL.
func NewRouteClient(baseURL string, tokens TokenSource, opts ...Option) *RouteClient {
	b := newBase(baseURL, tokens, RouteTimeout, opts)
	b.logger = b.logger.With().Str("component", "route_client").Logger()
	return &RouteClient{base: b}
}

// FetchRoute posts the query to /api/route. The returned geometry is not normalized.
func (c *RouteClient) FetchRoute(ctx context.Context, q models.RouteQuery) (*models.RouteResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var res models.RouteResult
	if err := c.postJSON(ctx, "/api/route", q, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
