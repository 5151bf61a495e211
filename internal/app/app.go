// Package app wires the donor matching client from configuration.
package app

import (
	"pulsenet-client/internal/client"
	"pulsenet-client/internal/config"
	"pulsenet-client/internal/geolocation"
	"pulsenet-client/internal/mapview"
	"pulsenet-client/internal/service"
	"pulsenet-client/internal/session"
	"pulsenet-client/internal/voice"

	"github.com/rs/zerolog"
)

// App holds the wired components.
type App struct {
	Session    *session.Session
	Matches    *client.MatchClient
	Routes     *client.RouteClient
	Locator    *geolocation.Adapter
	Narrator   *voice.Narrator
	Controller *service.MatchQueryController
	Map        *mapview.DonorMatchMap
	Fits       *mapview.BoundsRecorder

	logger  zerolog.Logger
	speaker voice.Speaker
	unbind  func()
}

// Option overrides a component built from configuration.
type Option func(*options)

type options struct {
	clientOpts []client.Option
	source     geolocation.Source
	speaker    voice.Speaker
}

// WithClientOptions appends options to both backend clients.
func WithClientOptions(opts ...client.Option) Option {
	return func(o *options) { o.clientOpts = append(o.clientOpts, opts...) }
}

// WithPositionSource replaces the configured position source.
func WithPositionSource(s geolocation.Source) Option {
	return func(o *options) { o.source = s }
}

// WithSpeaker replaces the configured speaker.
func WithSpeaker(s voice.Speaker) Option {
	return func(o *options) { o.speaker = s }
}

// New builds every component and keeps the map rendering the controller's results.
func New(cfg config.Config, logger zerolog.Logger, opts ...Option) *App {
	o := options{
		source:  positionSource(cfg.Geolocation),
		speaker: speaker(cfg.Voice, logger),
	}
	for _, opt := range opts {
		opt(&o)
	}

	sess := session.New(logger)
	if cfg.Session.Token != "" {
		sess.Bind(cfg.Session.Token)
	}

	base := append([]client.Option{client.WithLogger(logger)}, o.clientOpts...)
	matchOpts := append([]client.Option{}, base...)
	if cfg.API.MatchTimeout > 0 {
		matchOpts = append([]client.Option{client.WithTimeout(cfg.API.MatchTimeout)}, matchOpts...)
	}
	// Routing keeps the fixed client.RouteTimeout deadline.
	routeOpts := append([]client.Option{}, base...)

	a := &App{
		Session:  sess,
		Matches:  client.NewMatchClient(cfg.API.BaseURL, sess, matchOpts...),
		Routes:   client.NewRouteClient(cfg.API.BaseURL, sess, routeOpts...),
		Locator:  geolocation.NewAdapter(o.source),
		Narrator: voice.NewNarrator(o.speaker, cfg.Voice.Locale, logger),
		Fits:     &mapview.BoundsRecorder{},
		logger:   logger,
		speaker:  o.speaker,
	}
	a.Controller = service.NewMatchQueryController(a.Matches, a.Locator, a.Narrator, logger)
	a.Map = mapview.New(a.Routes, a.Fits, logger)
	a.unbind = a.Controller.Subscribe(func(s service.State) {
		a.Map.Render(s.Origin, s.Candidates)
	})

	logger.Info().
		Str("base_url", cfg.API.BaseURL).
		Bool("geolocation", a.Locator.Available()).
		Bool("voice", a.Narrator.Available()).
		Str("subject", sess.Subject()).
		Msg("client ready")
	return a
}

// Close stops the map following the controller and waits for route fetches and
// speech in flight.
func (a *App) Close() {
	if a.unbind != nil {
		a.unbind()
	}
	a.Map.Wait()
	if w, ok := a.speaker.(interface{ Wait() }); ok {
		w.Wait()
	}
}

func positionSource(cfg config.GeolocationConfig) geolocation.Source {
	if !cfg.Enabled {
		return nil
	}
	return geolocation.StaticSource{Position: geolocation.Position{Lat: cfg.Lat, Lon: cfg.Lon}}
}

func speaker(cfg config.VoiceConfig, logger zerolog.Logger) voice.Speaker {
	switch {
	case !cfg.Enabled:
		return nil
	case cfg.Command != "":
		return voice.NewCommandSpeaker(cfg.Command, cfg.Args, logger)
	default:
		return voice.LogSpeaker{Logger: logger.With().Str("component", "speaker").Logger()}
	}
}
