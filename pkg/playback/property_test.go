package playback

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/stagesoft/cuems-dmxplayer/pkg/cuemodel"
)

// Invariant 1: 0 <= multiplier <= 1 for every phase evaluated.
func TestProperty_MultiplierWithinBounds(t *testing.T) {
	params := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(params)

	properties.Property("multiplier is always in [0, 1]", prop.ForAll(
		func(inMs, lengthMs, outMs, current int64) bool {
			env := cuemodel.Envelope{InMs: inMs, LengthMs: lengthMs, OutMs: outMs}
			m := evaluatePhase(current, env).Multiplier
			return m >= 0 && m <= 1
		},
		gen.Int64Range(0, 5000),
		gen.Int64Range(0, 20000),
		gen.Int64Range(0, 5000),
		gen.Int64Range(-10000, 30000),
	))

	properties.TestingRun(t)
}

// Invariant 2: outside [0, OutEnd), the phase carries a zero multiplier (no
// scaled channel value can come out non-zero).
func TestProperty_OutsideWindowIsZero(t *testing.T) {
	params := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(params)

	properties.Property("current < 0 or current >= OutEnd yields zero multiplier", prop.ForAll(
		func(inMs, lengthMs, outMs, current int64) bool {
			env := cuemodel.Envelope{InMs: inMs, LengthMs: lengthMs, OutMs: outMs}
			phase := evaluatePhase(current, env)
			if current < 0 || current >= env.OutEnd() {
				return phase.Multiplier == 0 && scale(255, phase.Multiplier) == 0
			}
			return true
		},
		gen.Int64Range(0, 5000),
		gen.Int64Range(0, 20000),
		gen.Int64Range(0, 5000),
		gen.Int64Range(-10000, 30000),
	))

	properties.TestingRun(t)
}

// Invariant 3: in Sustain, scale is the identity.
func TestProperty_SustainIsIdentity(t *testing.T) {
	params := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(params)

	properties.Property("sustain phase scales every value to itself", prop.ForAll(
		func(inMs, lengthMs, outMs, current int64, value uint8) bool {
			env := cuemodel.Envelope{InMs: inMs, LengthMs: lengthMs, OutMs: outMs}
			phase := evaluatePhase(current, env)
			if phase.Kind != Sustain {
				return true
			}
			return scale(byte(value), phase.Multiplier) == byte(value)
		},
		gen.Int64Range(0, 5000),
		gen.Int64Range(0, 20000),
		gen.Int64Range(0, 5000),
		gen.Int64Range(-10000, 30000),
		gen.UInt8(),
	))

	properties.TestingRun(t)
}

// Invariant 4 & 5: across an arbitrary run sequence, EndOfPlay never goes
// from true back to false, and MtcLost is never true unless MtcStarted was
// set on some earlier tick.
func TestProperty_EndOfPlayMonotonicAndMtcLostImpliesStarted(t *testing.T) {
	params := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(params)

	properties.Property("EndOfPlay monotonic, MtcLost implies MtcStarted", prop.ForAll(
		func(runningSeq []bool, stopOnMtcLost bool) bool {
			cue := oneUniverseCue(cuemodel.Envelope{InMs: 100, LengthMs: 200, OutMs: 100})
			mtc := &fakeMtc{frameRate: 30}
			sink := &captureSink{}
			transport := NewTransportState(0, 500, stopOnMtcLost)
			eng := NewEngine(cue, transport, mtc, sink, nil)

			wasEndOfPlay := false
			startedEverTrue := false
			for i, running := range runningSeq {
				mtc.running = running
				mtc.headMs = int64(i * 50)
				eng.Tick(epoch.Add(time.Duration(i) * 10 * time.Millisecond))

				if wasEndOfPlay && !transport.EndOfPlay {
					return false
				}
				wasEndOfPlay = transport.EndOfPlay
				if transport.MtcStarted {
					startedEverTrue = true
				}
				if transport.MtcLost && !startedEverTrue {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(30, gen.Bool()),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Invariant 6: once StopOnMtcLost closes the gate, no further sends occur
// until MTC resumes.
func TestProperty_StopOnMtcLostSuppressesOutput(t *testing.T) {
	params := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(params)

	properties.Property("gated-closed ticks never call Send", prop.ForAll(
		func(idleTicks int) bool {
			cue := oneUniverseCue(cuemodel.Envelope{InMs: 0, LengthMs: 100000, OutMs: 0})
			mtc := &fakeMtc{running: true, frameRate: 30, headMs: 0}
			sink := &captureSink{}
			transport := NewTransportState(0, 0, true)
			eng := NewEngine(cue, transport, mtc, sink, nil)

			eng.Tick(epoch)
			mtc.running = false
			sentAtLoss := len(sink.sends)

			for i := 0; i < idleTicks; i++ {
				eng.Tick(epoch)
			}
			return len(sink.sends) == sentAtLoss
		},
		gen.IntRange(0, 20),
	))

	properties.TestingRun(t)
}
