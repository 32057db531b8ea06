// Package playback implements the core DMX playback engine: the state
// machine that combines an external MTC timecode, a user-supplied offset,
// and a cue's envelope to produce, on each scheduler tick, the DMX buffer
// to emit per universe.
package playback

import "math"

// WaitForever means the engine only terminates on an explicit quit
// request, never on end-of-play wait expiry.
const WaitForever = int64(math.MaxInt64)

// PlayControl is the user-facing transport toggle.
type PlayControl int

const (
	Paused PlayControl = iota
	Playing
)

// TransportState is the engine's mutable, process-wide state. It is
// written only by the scheduler goroutine, after draining OSC events, and
// read within the same goroutine during a tick; see SPEC_FULL.md §5 for the
// single-writer discipline this assumes.
type TransportState struct {
	HeadOffsetMs   int64
	EndWaitMs      int64
	PlayControl    PlayControl
	StopOnMtcLost  bool
	MtcStarted     bool
	MtcLost        bool
	EndTimestampMs int64
	EndOfPlay      bool

	// playHeadMs is the engine's play-head. It follows the MTC head while
	// MTC is running, and free-runs at the last known frame rate while MTC
	// has started but is not currently running (§4.5 step 4).
	playHeadMs int64
}

// NewTransportState returns a TransportState with the given initial offset,
// end-of-play wait, and stop-on-lost policy.
func NewTransportState(offsetMs, waitMs int64, stopOnMtcLost bool) *TransportState {
	return &TransportState{
		HeadOffsetMs:  offsetMs,
		EndWaitMs:     waitMs,
		StopOnMtcLost: stopOnMtcLost,
		PlayControl:   Playing,
	}
}
