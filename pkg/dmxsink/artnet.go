package dmxsink

import (
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/stagesoft/cuems-dmxplayer/pkg/cuemodel"
)

// artNetHeader is the fixed preamble of an ArtDMX packet: "Art-Net\0" and the
// OpCode (0x5000, little-endian on the wire). buildArtDMXPacket appends the
// protocol version (14, big-endian) after it.
var artNetHeader = [10]byte{'A', 'r', 't', '-', 'N', 'e', 't', 0, 0x00, 0x50}

// ArtNetSink broadcasts DMX universes as Art-Net (ArtDMX) UDP packets, the
// same wire shape lacylights-go's dmx.Service builds, adapted here to
// operate directly on cuemodel buffers with one sequence counter per sink
// instance rather than a shared service-wide counter.
type ArtNetSink struct {
	mu       sync.Mutex
	conn     *net.UDPConn
	sequence byte
	log      *slog.Logger
}

// NewArtNetSink opens a UDP socket directed at broadcastAddr:port (Art-Net's
// default port is 6454) and returns a sink ready to Send.
func NewArtNetSink(broadcastAddr string, port int, log *slog.Logger) (*ArtNetSink, error) {
	if log == nil {
		log = slog.Default()
	}
	addr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", broadcastAddr, port))
	if err != nil {
		return nil, fmt.Errorf("dmxsink: resolve Art-Net address: %w", err)
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dmxsink: dial Art-Net socket: %w", err)
	}
	log.Info("Art-Net sink ready", "addr", addr.String())
	return &ArtNetSink{conn: conn, log: log}, nil
}

// Send broadcasts one ArtDMX packet for universe. Failures are logged and
// returned, with no retry: the next tick supersedes any dropped frame (§7,
// SinkSendFailed).
func (s *ArtNetSink) Send(universe uint16, buffer [cuemodel.UniverseSize]byte) error {
	s.mu.Lock()
	s.sequence++
	seq := s.sequence
	s.mu.Unlock()

	packet := buildArtDMXPacket(universe, buffer, seq)
	if _, err := s.conn.Write(packet); err != nil {
		s.log.Warn("Art-Net send failed", "universe", universe, "err", err)
		return err
	}
	return nil
}

// Close sends a final all-zero blackout frame on universe 0 and releases
// the socket.
func (s *ArtNetSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var blank [cuemodel.UniverseSize]byte
	s.sequence++
	_, _ = s.conn.Write(buildArtDMXPacket(0, blank, s.sequence))
	return s.conn.Close()
}

// buildArtDMXPacket frames a universe's channel buffer as an ArtDMX packet:
// header, opcode, protocol version, sequence, physical port, universe
// (15-bit, low byte first), data length (big-endian), then the 512 channel
// bytes.
func buildArtDMXPacket(universe uint16, buffer [cuemodel.UniverseSize]byte, sequence byte) []byte {
	packet := make([]byte, 0, 18+cuemodel.UniverseSize)
	packet = append(packet, artNetHeader[:]...)
	packet = append(packet, 0x00, 0x0e) // ArtDMX protocol version 14
	packet = append(packet, sequence)
	packet = append(packet, 0x00) // physical port, informational only
	packet = append(packet, byte(universe&0xff), byte(universe>>8&0x7f))
	packet = append(packet, byte(cuemodel.UniverseSize>>8), byte(cuemodel.UniverseSize&0xff))
	packet = append(packet, buffer[:]...)
	return packet
}
