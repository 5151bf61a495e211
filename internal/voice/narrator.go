// Package voice narrates state changes through a single speech channel.
package voice

import (
	"sync"

	"github.com/rs/zerolog"
)

// Fixed utterance settings.
const (
	DefaultLocale = "en-IN"
	DefaultRate   = 1.0
	DefaultPitch  = 1.0
)

// Utterance is one piece of text to be spoken.
type Utterance struct {
	Text   string
	Locale string
	Rate   float64
	Pitch  float64
}

// Speaker is the speech capability. Speak must not block until the utterance has
// finished; Cancel stops whatever is speaking or queued and is a no-op when idle.
type Speaker interface {
	Cancel()
	Speak(u Utterance)
}

// Narrator owns the speech channel. Every call cancels the previous utterance before the
// next one starts, so callers never coordinate ordering themselves.
type Narrator struct {
	mu      sync.Mutex
	speaker Speaker
	locale  string
	logger  zerolog.Logger
}

// NewNarrator creates a narrator. A nil speaker disables narration.
func NewNarrator(speaker Speaker, locale string, logger zerolog.Logger) *Narrator {
	if locale == "" {
		locale = DefaultLocale
	}
	return &Narrator{
		speaker: speaker,
		locale:  locale,
		logger:  logger.With().Str("component", "narrator").Logger(),
	}
}

// Available reports whether speech is supported.
func (n *Narrator) Available() bool {
	return n != nil && n.speaker != nil
}

// Narrate speaks text, replacing any utterance in progress. Empty text and a missing
// speech capability are no-ops.
func (n *Narrator) Narrate(text string) {
	if text == "" || !n.Available() {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.speaker.Cancel()
	n.speaker.Speak(Utterance{
		Text:   text,
		Locale: n.locale,
		Rate:   DefaultRate,
		Pitch:  DefaultPitch,
	})
	n.logger.Debug().Str("text", text).Msg("narrating")
}
