// Package dmxsink defines the DMX output collaborator consumed by the
// playback engine and ships two concrete implementations: a null sink for
// headless/test use and an Art-Net UDP broadcast sink for production.
package dmxsink

import "github.com/stagesoft/cuems-dmxplayer/pkg/cuemodel"

// Sink pushes a 512-byte DMX buffer for a universe. Delivery is best-effort;
// callers may send faster than the wire can transmit and the most recent
// buffer wins.
type Sink interface {
	Send(universe uint16, buffer [cuemodel.UniverseSize]byte) error
	Close() error
}
