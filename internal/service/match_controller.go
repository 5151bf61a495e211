package service

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"pulsenet-client/internal/client"
	"pulsenet-client/internal/geolocation"
	"pulsenet-client/internal/models"
	"pulsenet-client/internal/observe"

	"github.com/rs/zerolog"
)

// Status messages shown by the controller.
const (
	StatusSearching            = "Searching..."
	StatusMatchesLoaded        = "Matches loaded."
	StatusNoDonors             = "No donors found for this request."
	StatusMatchError           = "Error fetching matches. Check backend."
	StatusDetectingLocation    = "Detecting your location..."
	StatusUsingLocation        = "Using your current location for search."
	StatusGeolocationMissing   = "Geolocation is not supported by this browser."
	statusLocationErrorPrefix  = "Unable to get location: "
	coordinateDecimalPrecision = 6
)

// MatchFetcher issues matching requests.
type MatchFetcher interface {
	FetchMatches(ctx context.Context, q models.MatchQuery) (*models.MatchResult, error)
}

// PositionSampler takes one-shot position samples.
type PositionSampler interface {
	Available() bool
	Sample(ctx context.Context) (geolocation.Position, error)
}

// Narrator speaks the derived narration text.
type Narrator interface {
	Narrate(text string)
}

// State is an immutable snapshot of the controller.
type State struct {
	Form       models.MatchForm        `json:"form"`
	Origin     *models.Point           `json:"origin"`
	Candidates []models.DonorCandidate `json:"candidates"`
	Alert      *models.Alert           `json:"alert"`
	Status     string                  `json:"status"`
	Narration  string                  `json:"narration"`
}

func (s State) clone() State {
	out := s
	out.Candidates = make([]models.DonorCandidate, len(s.Candidates))
	copy(out.Candidates, s.Candidates)
	if s.Origin != nil {
		o := *s.Origin
		out.Origin = &o
	}
	if s.Alert != nil {
		a := *s.Alert
		out.Alert = &a
	}
	return out
}

// MatchQueryController owns the search form, origin, results, alert and status, and
// narrates every change of the derived narration text.
type MatchQueryController struct {
	matcher  MatchFetcher
	locator  PositionSampler
	narrator Narrator
	logger   zerolog.Logger

	mu    sync.Mutex
	state State

	// emitMu keeps narration and notifications in commit order.
	emitMu        sync.Mutex
	lastNarration string
	hub           observe.Hub[State]
}

// NewMatchQueryController creates a controller. locator and narrator may be nil.
func NewMatchQueryController(matcher MatchFetcher, locator PositionSampler, narrator Narrator, logger zerolog.Logger) *MatchQueryController {
	return &MatchQueryController{
		matcher:  matcher,
		locator:  locator,
		narrator: narrator,
		logger:   logger.With().Str("component", "match_controller").Logger(),
		state: State{
			Form:       models.DefaultMatchForm(),
			Candidates: []models.DonorCandidate{},
		},
	}
}

// State returns the current snapshot.
func (c *MatchQueryController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe registers fn for every state change. fn runs in commit order and must not
// call the controller's mutating methods.
func (c *MatchQueryController) Subscribe(fn func(State)) (cancel func()) {
	cancel = c.hub.Subscribe(fn)
	c.logger.Debug().Int("subscribers", c.hub.Len()).Msg("subscribed")
	return cancel
}

// UpdateForm replaces the form contents as the user edits them.
func (c *MatchQueryController) UpdateForm(form models.MatchForm) State {
	return c.commit(func(s *State) {
		s.Form = form
	})
}

// SubmitQuery runs a search for form. Errors end up in the status text.
func (c *MatchQueryController) SubmitQuery(ctx context.Context, form models.MatchForm) State {
	c.commit(func(s *State) {
		s.Form = form
		s.Alert = nil
		s.Candidates = []models.DonorCandidate{}
		s.Status = StatusSearching
	})

	q, err := form.Query()
	if err != nil {
		c.logger.Warn().Err(err).Msg("invalid match form")
		return c.commit(func(s *State) {
			s.Status = err.Error()
		})
	}

	res, err := c.matcher.FetchMatches(ctx, q)
	if err != nil {
		c.logger.Error().Err(err).Str("blood_group", q.BloodGroup).Msg("failed to fetch matches")
		return c.commit(func(s *State) {
			s.Status = matchErrorStatus(err)
		})
	}

	return c.commit(func(s *State) {
		s.Candidates = append([]models.DonorCandidate{}, res.Candidates...)
		s.Alert = res.Alert
		s.Origin = q.Location()
		if len(s.Candidates) == 0 {
			s.Status = StatusNoDonors
		} else {
			s.Status = StatusMatchesLoaded
		}
	})
}

// UseMyLocation fills the form coordinates and origin from a one-shot position sample.
func (c *MatchQueryController) UseMyLocation(ctx context.Context) State {
	if c.locator == nil || !c.locator.Available() {
		return c.commit(func(s *State) {
			s.Status = StatusGeolocationMissing
		})
	}

	c.commit(func(s *State) {
		s.Status = StatusDetectingLocation
	})

	pos, err := c.locator.Sample(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to sample location")
		return c.commit(func(s *State) {
			if errors.Is(err, geolocation.ErrUnavailable) {
				s.Status = StatusGeolocationMissing
				return
			}
			s.Status = statusLocationErrorPrefix + err.Error()
		})
	}

	return c.commit(func(s *State) {
		s.Form.Lat = strconv.FormatFloat(pos.Lat, 'f', coordinateDecimalPrecision, 64)
		s.Form.Lon = strconv.FormatFloat(pos.Lon, 'f', coordinateDecimalPrecision, 64)
		s.Origin = &models.Point{Lat: pos.Lat, Lon: pos.Lon}
		s.Status = StatusUsingLocation
	})
}

// commit applies mutate, then narrates and notifies in commit order.
func (c *MatchQueryController) commit(mutate func(*State)) State {
	c.mu.Lock()
	mutate(&c.state)
	c.state.Narration = NarrationText(c.state.Alert, c.state.Candidates, c.state.Status)
	snapshot := c.state.clone()
	c.emitMu.Lock()
	c.mu.Unlock()
	defer c.emitMu.Unlock()

	if snapshot.Narration != c.lastNarration {
		c.lastNarration = snapshot.Narration
		if c.narrator != nil {
			c.narrator.Narrate(snapshot.Narration)
		}
	}
	c.hub.Publish(snapshot)
	return snapshot
}

func matchErrorStatus(err error) string {
	if detail, ok := client.Detail(err); ok {
		return detail
	}
	return StatusMatchError
}
