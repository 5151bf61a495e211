// Package geolocation samples the device position once per request.
package geolocation

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnavailable is returned when no position capability is present.
var ErrUnavailable = errors.New("geolocation: capability unavailable")

// Position is a sampled device location.
type Position struct {
	Lat      float64
	Lon      float64
	Accuracy float64
}

// Source is a callback-style "get current position" capability. Implementations call
// exactly one of onSuccess or onError, possibly from another goroutine.
type Source interface {
	GetCurrentPosition(onSuccess func(Position), onError func(error))
}

// Adapter turns a Source into a blocking one-shot operation.
type Adapter struct {
	source Source
}

// NewAdapter wraps source. A nil source yields an adapter that reports ErrUnavailable.
func NewAdapter(source Source) *Adapter {
	return &Adapter{source: source}
}

// Available reports whether a position capability is present.
func (a *Adapter) Available() bool {
	return a != nil && a.source != nil
}

type outcome struct {
	pos Position
	err error
}

// Sample requests the current position and waits for the single outcome. Callbacks
// after the first are ignored.
func (a *Adapter) Sample(ctx context.Context) (Position, error) {
	if !a.Available() {
		return Position{}, ErrUnavailable
	}

	result := make(chan outcome, 1)
	var once sync.Once
	deliver := func(o outcome) {
		once.Do(func() { result <- o })
	}

	a.source.GetCurrentPosition(
		func(p Position) { deliver(outcome{pos: p}) },
		func(err error) {
			if err == nil {
				err = errors.New("unknown error")
			}
			deliver(outcome{err: err})
		},
	)

	select {
	case o := <-result:
		return o.pos, o.err
	case <-ctx.Done():
		return Position{}, fmt.Errorf("geolocation: %w", ctx.Err())
	}
}

// StaticSource always reports the same position. It stands in for a device fix when the
// requester's location is configured ahead of time.
type StaticSource struct {
	Position Position
}

// GetCurrentPosition implements Source.
func (s StaticSource) GetCurrentPosition(onSuccess func(Position), _ func(error)) {
	onSuccess(s.Position)
}

// SourceFunc adapts a blocking function to a Source.
type SourceFunc func() (Position, error)

// GetCurrentPosition implements Source by running f on its own goroutine.
func (f SourceFunc) GetCurrentPosition(onSuccess func(Position), onError func(error)) {
	go func() {
		p, err := f()
		if err != nil {
			onError(err)
			return
		}
		onSuccess(p)
	}()
}
