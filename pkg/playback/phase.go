package playback

import "github.com/stagesoft/cuems-dmxplayer/pkg/cuemodel"

// PhaseKind is the position of the play-head relative to a cue's envelope.
type PhaseKind int

const (
	PreRoll PhaseKind = iota
	FadingIn
	Sustain
	FadingOut
	PostRoll
)

// Phase is the envelope position derived from the play-head on a given
// tick, plus the channel-value multiplier it implies (§3, §4.5 step 5).
type Phase struct {
	Kind       PhaseKind
	Multiplier float64
}

// evaluatePhase maps a play-head position (current, signed ms, may be
// negative) against a cue's envelope windows to a Phase. An envelope with
// InMs == 0 has an empty fade-in window and so never yields FadingIn;
// OutMs == 0 is symmetric for FadingOut.
func evaluatePhase(current int64, e cuemodel.Envelope) Phase {
	sustainEnd := e.SustainEnd()
	outEnd := e.OutEnd()

	switch {
	case current < 0:
		return Phase{Kind: PreRoll}
	case current < e.InMs:
		return Phase{Kind: FadingIn, Multiplier: float64(current) / float64(e.InMs)}
	case current < sustainEnd:
		return Phase{Kind: Sustain, Multiplier: 1}
	case current < outEnd:
		return Phase{Kind: FadingOut, Multiplier: 1 - float64(current-sustainEnd)/float64(e.OutMs)}
	default:
		return Phase{Kind: PostRoll}
	}
}

// scale applies a fade multiplier to a channel value, truncating (never
// rounding) per §4.5's tie-break rule.
func scale(value byte, multiplier float64) byte {
	if multiplier <= 0 {
		return 0
	}
	if multiplier >= 1 {
		return value
	}
	return byte(float64(value) * multiplier)
}
