package playback

import (
	"log/slog"
	"sort"
	"time"

	"github.com/stagesoft/cuems-dmxplayer/pkg/cuemodel"
	"github.com/stagesoft/cuems-dmxplayer/pkg/dmxsink"
)

// MtcSource is the subset of mtc.Receiver the engine consumes, kept as an
// interface so tests can drive it without a real MIDI port.
type MtcSource interface {
	Running() bool
	FrameRate() uint8
	HeadMs() int64
}

// Engine is the core playback state machine (§4.5). One Engine drives every
// universe in a Cue from a single shared envelope and play-head.
type Engine struct {
	cue       *cuemodel.Cue
	transport *TransportState
	mtc       MtcSource
	sink      dmxsink.Sink
	log       *slog.Logger

	lastPhase PhaseKind
	havePhase bool
}

// NewEngine builds an Engine over cue, driven by mtc and writing to sink.
// Universes are emitted in ascending id order on every tick.
func NewEngine(cue *cuemodel.Cue, transport *TransportState, mtc MtcSource, sink dmxsink.Sink, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	ordered := *cue
	ordered.Universes = append([]cuemodel.DmxUniverse(nil), cue.Universes...)
	sort.SliceStable(ordered.Universes, func(i, j int) bool {
		return ordered.Universes[i].ID < ordered.Universes[j].ID
	})
	return &Engine{cue: &ordered, transport: transport, mtc: mtc, sink: sink, log: log}
}

// Transport returns the engine's transport state. The state is not
// synchronized; it is safe to use only from the goroutine that calls Tick
// and HandleEvent (the single-writer discipline in SPEC_FULL.md §5).
func (e *Engine) Transport() *TransportState { return e.transport }

// Tick advances the engine by one scheduler period, emitting DMX buffers as
// the envelope requires, and reports whether playback has now terminated.
func (e *Engine) Tick(now time.Time) bool {
	t := e.transport
	if t.EndOfPlay {
		return true
	}

	running := e.mtc.Running()
	if running {
		if !t.MtcStarted {
			t.MtcStarted = true
		}
		t.MtcLost = false
	} else if t.MtcStarted && !t.MtcLost {
		t.MtcLost = true
		e.log.Warn("mtc lost", "stopOnMtcLost", t.StopOnMtcLost)
	}

	gateOpen := t.PlayControl == Playing && (running || !t.StopOnMtcLost)
	if !gateOpen {
		return false
	}

	if running {
		t.playHeadMs = e.mtc.HeadMs()
	} else if t.MtcStarted {
		rate := e.mtc.FrameRate()
		if rate == 0 || rate == 29 {
			rate = 30 // 29.97 drop-frame is treated as 30 for ms arithmetic
		}
		t.playHeadMs += 1000 / int64(rate)
	}

	current := t.playHeadMs + t.HeadOffsetMs
	phase := evaluatePhase(current, e.cue.Envelope)

	terminate := e.emit(phase, now)
	if terminate {
		t.EndOfPlay = true
	}
	return terminate
}

// emit drives the sink for the current phase and evaluates the end-of-play
// latch (§4.5 steps 6-7).
func (e *Engine) emit(phase Phase, now time.Time) bool {
	t := e.transport
	entering := !e.havePhase || e.lastPhase != phase.Kind
	e.lastPhase = phase.Kind
	e.havePhase = true

	switch phase.Kind {
	case PreRoll:
		if entering {
			e.sendAll(0)
		}
		return false

	case FadingIn, FadingOut:
		e.sendAllScaled(phase.Multiplier)
		return false

	case Sustain:
		e.sendAllScaled(1)
		return false

	case PostRoll:
		if entering {
			if t.EndWaitMs == 0 {
				return true
			}
			if t.EndTimestampMs == 0 {
				t.EndTimestampMs = now.UnixMilli()
			}
		}
		if t.EndWaitMs == WaitForever {
			return false
		}
		return now.UnixMilli()-t.EndTimestampMs > t.EndWaitMs

	default:
		return false
	}
}

func (e *Engine) sendAll(value byte) {
	for i := range e.cue.Universes {
		u := &e.cue.Universes[i]
		var buf [cuemodel.UniverseSize]byte
		if value != 0 {
			for j := range buf {
				buf[j] = value
			}
		}
		e.send(u.ID, buf)
	}
}

func (e *Engine) sendAllScaled(multiplier float64) {
	for i := range e.cue.Universes {
		u := &e.cue.Universes[i]
		buf := u.Buffer
		if multiplier < 1 {
			for j := range buf {
				buf[j] = scale(buf[j], multiplier)
			}
		}
		e.send(u.ID, buf)
	}
}

func (e *Engine) send(universe uint16, buf [cuemodel.UniverseSize]byte) {
	if err := e.sink.Send(universe, buf); err != nil {
		e.log.Warn("dmx send failed", "universe", universe, "err", err)
	}
}
