package playback

import "github.com/stagesoft/cuems-dmxplayer/pkg/oscsource"

// HandleEvent applies one parsed OSC control event to the engine's
// transport state (§4.3). It must be called from the scheduler goroutine,
// between ticks, per the single-writer discipline in SPEC_FULL.md §5.
// It reports whether the event requests process termination.
func (e *Engine) HandleEvent(ev oscsource.Event) (quit bool) {
	t := e.transport
	switch ev.Kind {
	case oscsource.EventOffset:
		t.HeadOffsetMs = ev.OffsetMs
	case oscsource.EventWait:
		t.EndWaitMs = ev.WaitMs
	case oscsource.EventLoad:
		// reserved; no-op in this version (§4.3)
	case oscsource.EventPlay, oscsource.EventStop:
		if t.PlayControl == Playing {
			t.PlayControl = Paused
		} else {
			t.PlayControl = Playing
		}
	case oscsource.EventQuit:
		return true
	case oscsource.EventCheck:
		e.log.Info("health check", "running", !t.EndOfPlay, "playControl", t.PlayControl)
	case oscsource.EventToggleStopOnLost:
		t.StopOnMtcLost = !t.StopOnMtcLost
	}
	return false
}
