// Package scheduler drives the playback engine at a fixed tick rate,
// draining OSC control events between ticks, in the same
// select-over-ticker-and-done-channel shape the ambient stack's own
// transmit loops use.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/stagesoft/cuems-dmxplayer/pkg/oscsource"
	"github.com/stagesoft/cuems-dmxplayer/pkg/playback"
)

// TickPeriod is the nominal scheduler period (§4.6).
const TickPeriod = 10 * time.Millisecond

// Engine is the subset of playback.Engine the scheduler drives.
type Engine interface {
	Tick(now time.Time) bool
	HandleEvent(ev oscsource.Event) bool
}

var _ Engine = (*playback.Engine)(nil)

// Scheduler runs Engine.Tick on a fixed period until the engine signals
// termination, a /quit event arrives, or ctx is canceled.
type Scheduler struct {
	engine Engine
	events <-chan oscsource.Event
	log    *slog.Logger
	period time.Duration
}

// New creates a Scheduler over engine, draining events before each tick.
func New(engine Engine, events <-chan oscsource.Event, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{engine: engine, events: events, log: log, period: TickPeriod}
}

// Run blocks until the engine terminates, a quit event is received, or ctx
// is canceled. It returns nil in the first two cases and ctx.Err() in the
// third.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case now := <-ticker.C:
			if s.drainEvents() {
				s.log.Info("quit requested via osc")
				return nil
			}
			if s.engine.Tick(now) {
				s.log.Info("playback reached end of play")
				return nil
			}
		}
	}
}

// drainEvents applies every event already queued, without blocking, so a
// tick observes the latest control state (§5: "OSC events received during
// a tick take effect on the following tick"). It reports whether a quit
// was requested.
func (s *Scheduler) drainEvents() bool {
	for {
		select {
		case ev := <-s.events:
			if s.engine.HandleEvent(ev) {
				return true
			}
		default:
			return false
		}
	}
}
