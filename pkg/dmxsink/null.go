package dmxsink

import (
	"log/slog"

	"github.com/stagesoft/cuems-dmxplayer/pkg/cuemodel"
)

// NullSink discards every buffer. It is used in headless/bench runs and by
// the playback engine's own tests, where exercising a real transport isn't
// the point.
type NullSink struct {
	log *slog.Logger
}

// NewNullSink creates a sink that discards output, optionally logging each
// send at debug level.
func NewNullSink(log *slog.Logger) *NullSink {
	if log == nil {
		log = slog.Default()
	}
	return &NullSink{log: log}
}

func (s *NullSink) Send(universe uint16, buffer [cuemodel.UniverseSize]byte) error {
	s.log.Debug("dmx send (null sink)", "universe", universe)
	return nil
}

func (s *NullSink) Close() error { return nil }
