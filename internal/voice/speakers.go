package voice

import (
	"context"
	"os/exec"
	"sync"

	"github.com/rs/zerolog"
)

// LogSpeaker writes utterances to the log instead of an audio device.
type LogSpeaker struct {
	Logger zerolog.Logger
}

// Cancel implements Speaker.
func (s LogSpeaker) Cancel() {}

// Speak implements Speaker.
func (s LogSpeaker) Speak(u Utterance) {
	s.Logger.Info().Str("locale", u.Locale).Str("text", u.Text).Msg("speak")
}

// CommandSpeaker speaks by running an external text-to-speech program such as espeak,
// passing the text as the final argument.
type CommandSpeaker struct {
	name   string
	args   []string
	logger zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCommandSpeaker creates a speaker that runs name with args followed by the text.
func NewCommandSpeaker(name string, args []string, logger zerolog.Logger) *CommandSpeaker {
	return &CommandSpeaker{
		name:   name,
		args:   args,
		logger: logger.With().Str("component", "command_speaker").Logger(),
	}
}

// Speak starts the program and returns immediately.
func (s *CommandSpeaker) Speak(u Utterance) {
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, s.name, append(append([]string{}, s.args...), u.Text)...)

	if err := cmd.Start(); err != nil {
		cancel()
		s.logger.Warn().Err(err).Str("command", s.name).Msg("failed to start speech command")
		return
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			s.logger.Warn().Err(err).Msg("speech command failed")
		}
	}()
}

// Cancel kills the running program and waits for it to exit.
func (s *CommandSpeaker) Cancel() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Wait blocks until the current utterance finishes.
func (s *CommandSpeaker) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}
