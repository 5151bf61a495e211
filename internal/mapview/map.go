// Package mapview renders donor candidates on a map and manages the per-candidate route
// fetch, discarding responses superseded by a later selection.
package mapview

import (
	"context"
	"sync"

	"pulsenet-client/internal/models"
	"pulsenet-client/internal/observe"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Map defaults.
const (
	DefaultZoom            = 12
	OriginHaloRadiusMeters = 3000
)

// FallbackCenter is used when neither an origin nor a located candidate is available.
var FallbackCenter = models.Point{Lat: 12.9716, Lon: 77.5946}

// RouteFetcher issues routing requests.
type RouteFetcher interface {
	FetchRoute(ctx context.Context, q models.RouteQuery) (*models.RouteResult, error)
}

// OriginMarker is the requester's location with its visual halo.
type OriginMarker struct {
	Position         models.Point `json:"position"`
	HaloRadiusMeters float64      `json:"halo_radius_m"`
}

// Marker is a coordinate-bearing candidate.
type Marker struct {
	Key       string                `json:"key"`
	Position  models.Point          `json:"position"`
	Candidate models.DonorCandidate `json:"candidate"`
	Distance  string                `json:"distance"`
	Loading   bool                  `json:"loading"`
}

// Route is a normalized route with its metrics. Geometry pairs are [lat, lon].
type Route struct {
	Geometry        models.Geometry `json:"geometry"`
	DistanceMeters  *float64        `json:"distance_m"`
	DurationSeconds *float64        `json:"duration_s"`
}

// Summary renders the route metrics, e.g. "23 min • 15.2 km".
func (r *Route) Summary() string {
	return FormatDuration(r.DurationSeconds) + " • " + FormatDistance(r.DistanceMeters)
}

// View is an immutable render of the map.
type View struct {
	Center     models.Point  `json:"center"`
	Zoom       int           `json:"zoom"`
	Origin     *OriginMarker `json:"origin"`
	Markers    []Marker      `json:"markers"`
	Route      *Route        `json:"route"`
	LoadingKey string        `json:"loading_key"`
}

// DonorMatchMap owns the origin, the candidate set and the route view state.
type DonorMatchMap struct {
	fetcher  RouteFetcher
	viewport Viewport
	logger   zerolog.Logger

	mu         sync.Mutex
	origin     *models.Point
	candidates []models.DonorCandidate
	route      *Route
	routeKey   string
	loadingKey string
	generation uint64

	// emitMu keeps viewport fits and notifications in commit order.
	emitMu  sync.Mutex
	hub     observe.Hub[View]
	pending sync.WaitGroup
}

// New creates a map. viewport may be nil when the surface cannot fit bounds.
func New(fetcher RouteFetcher, viewport Viewport, logger zerolog.Logger) *DonorMatchMap {
	return &DonorMatchMap{
		fetcher:  fetcher,
		viewport: viewport,
		logger:   logger.With().Str("component", "donor_match_map").Logger(),
	}
}

// Subscribe registers fn for every view change. fn must not call the map's mutating methods.
func (m *DonorMatchMap) Subscribe(fn func(View)) (cancel func()) {
	cancel = m.hub.Subscribe(fn)
	m.logger.Debug().Int("subscribers", m.hub.Len()).Msg("subscribed")
	return cancel
}

// View returns the current render.
func (m *DonorMatchMap) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

// Render replaces the origin and the full candidate set. A changed origin clears the
// route and invalidates any route request still in flight, as does dropping the
// candidate the route belongs to.
func (m *DonorMatchMap) Render(origin *models.Point, candidates []models.DonorCandidate) View {
	view, _ := m.commit(func() (func(Viewport), bool) {
		invalidate := !samePoint(m.origin, origin)
		if target := m.targetKey(); target != "" && !containsKey(candidates, target) {
			invalidate = true
		}
		if invalidate {
			m.invalidateLocked()
		}
		if origin != nil {
			o := *origin
			m.origin = &o
		} else {
			m.origin = nil
		}
		m.candidates = append([]models.DonorCandidate{}, candidates...)
		return nil, true
	})
	return view
}

// SelectDonorForRoute starts a route fetch from the origin to candidate. It returns
// false, without issuing a request, when the origin or the candidate lacks coordinates.
// The fetch completes asynchronously; only the latest selection may update the view.
func (m *DonorMatchMap) SelectDonorForRoute(ctx context.Context, candidate models.DonorCandidate) bool {
	dest, hasDest := candidate.Position()
	key := candidate.Key()

	var (
		gen       uint64
		query     models.RouteQuery
		hasOrigin bool
	)
	_, issued := m.commit(func() (func(Viewport), bool) {
		hasOrigin = m.origin != nil
		if !hasOrigin || !hasDest {
			return nil, false
		}
		m.generation++
		gen = m.generation
		m.loadingKey = key
		m.routeKey = ""
		m.route = nil
		query = models.RouteQuery{Origin: *m.origin, Destination: dest}
		return nil, true
	})
	if !issued {
		m.logger.Warn().Str("donor", key).Bool("origin", hasOrigin).Bool("destination", hasDest).
			Msg("missing origin or donor coordinates")
		return false
	}

	m.pending.Add(1)
	go m.fetchRoute(context.WithoutCancel(ctx), gen, key, query)
	return true
}

func (m *DonorMatchMap) fetchRoute(ctx context.Context, gen uint64, key string, query models.RouteQuery) {
	defer m.pending.Done()

	logger := m.logger.With().Str("fetch_id", uuid.NewString()).Str("donor", key).Uint64("generation", gen).Logger()
	logger.Debug().Interface("query", query).Msg("requesting route")

	res, err := m.fetcher.FetchRoute(ctx, query)

	m.commit(func() (func(Viewport), bool) {
		if m.generation != gen {
			logger.Debug().Uint64("current", m.generation).Msg("discarding superseded route response")
			return nil, false
		}
		m.loadingKey = ""
		if err != nil {
			logger.Error().Err(err).Msg("failed to fetch route")
			m.route = nil
			return nil, true
		}

		route := &Route{
			Geometry:        NormalizeAxisOrder(res.Geometry),
			DistanceMeters:  res.DistanceMeters,
			DurationSeconds: res.DurationSeconds,
		}
		m.route = route
		m.routeKey = key
		logger.Debug().Int("points", len(route.Geometry)).Msg("route loaded")

		if len(route.Geometry) == 0 {
			return nil, true
		}
		bounds := Bounds(route.Geometry)
		return func(vp Viewport) { vp.FitBounds(bounds, FitPadding) }, true
	})
}

// ClearRoute removes the route geometry and metrics. The loading key and markers are
// left untouched.
func (m *DonorMatchMap) ClearRoute() View {
	view, _ := m.commit(func() (func(Viewport), bool) {
		if m.route == nil {
			return nil, false
		}
		m.route = nil
		m.routeKey = ""
		return nil, true
	})
	return view
}

// Wait blocks until every route fetch started so far has completed.
func (m *DonorMatchMap) Wait() {
	m.pending.Wait()
}

// commit applies mutate under the state lock. When mutate reports a change, the
// returned viewport action runs and subscribers are notified, both in commit order.
func (m *DonorMatchMap) commit(mutate func() (fit func(Viewport), changed bool)) (View, bool) {
	m.mu.Lock()
	fit, changed := mutate()
	view := m.viewLocked()
	if !changed {
		m.mu.Unlock()
		return view, false
	}
	m.emitMu.Lock()
	m.mu.Unlock()
	defer m.emitMu.Unlock()

	if fit != nil && m.viewport != nil {
		fit(m.viewport)
	}
	m.hub.Publish(view)
	return view, true
}

// invalidateLocked drops the route state and makes any in-flight response stale.
func (m *DonorMatchMap) invalidateLocked() {
	m.route = nil
	m.routeKey = ""
	m.loadingKey = ""
	m.generation++
}

// targetKey is the candidate the route state belongs to, if any.
func (m *DonorMatchMap) targetKey() string {
	if m.loadingKey != "" {
		return m.loadingKey
	}
	return m.routeKey
}

func (m *DonorMatchMap) viewLocked() View {
	v := View{
		Center:     m.centerLocked(),
		Zoom:       DefaultZoom,
		Markers:    []Marker{},
		LoadingKey: m.loadingKey,
	}
	if m.origin != nil {
		v.Origin = &OriginMarker{Position: *m.origin, HaloRadiusMeters: OriginHaloRadiusMeters}
	}
	for _, c := range m.candidates {
		pos, ok := c.Position()
		if !ok {
			continue
		}
		key := c.Key()
		v.Markers = append(v.Markers, Marker{
			Key:       key,
			Position:  pos,
			Candidate: c,
			Distance:  FormatDistance(c.DistanceMeters),
			Loading:   m.loadingKey != "" && key == m.loadingKey,
		})
	}
	if m.route != nil {
		r := *m.route
		r.Geometry = append(models.Geometry{}, m.route.Geometry...)
		v.Route = &r
	}
	return v
}

func (m *DonorMatchMap) centerLocked() models.Point {
	if m.origin != nil {
		return *m.origin
	}
	for _, c := range m.candidates {
		if pos, ok := c.Position(); ok {
			return pos
		}
	}
	return FallbackCenter
}

func containsKey(candidates []models.DonorCandidate, key string) bool {
	for _, c := range candidates {
		if c.Key() == key {
			return true
		}
	}
	return false
}

func samePoint(a, b *models.Point) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
