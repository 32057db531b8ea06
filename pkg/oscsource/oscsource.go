// Package oscsource listens for OSC control messages, backed by
// github.com/hypebeast/go-osc (the library used for an identical
// address-prefixed control surface in the schollz-221e and
// ink-splatters-collidertracker reference programs), and emits typed
// control events for the playback engine to drain on its next tick.
package oscsource

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"strings"

	"github.com/hypebeast/go-osc/osc"
)

// EventKind identifies which control the event carries.
type EventKind int

const (
	EventOffset EventKind = iota
	EventWait
	EventLoad
	EventPlay
	EventStop
	EventQuit
	EventCheck
	EventToggleStopOnLost
)

// Event is one parsed, validated OSC control message (§4.3).
type Event struct {
	Kind     EventKind
	OffsetMs int64  // valid for EventOffset
	WaitMs   int64  // valid for EventWait
	LoadPath string // valid for EventLoad
}

// Config configures a Source.
type Config struct {
	ListenAddr string // e.g. "0.0.0.0:9000"
	Prefix     string // address prefix P; may be empty
}

// Source receives OSC messages on Config.Prefix-relative addresses and
// pushes parsed Events onto a channel the scheduler drains once per tick.
// Malformed messages are logged and discarded without ever reaching the
// channel (§4.3, §7 OscMalformed).
type Source struct {
	cfg    Config
	log    *slog.Logger
	events chan Event
	conn   net.PacketConn
	server *osc.Server
}

// NewSource creates a Source. Call Open to begin listening.
func NewSource(cfg Config, log *slog.Logger) *Source {
	if log == nil {
		log = slog.Default()
	}
	return &Source{
		cfg:    cfg,
		log:    log,
		events: make(chan Event, 64),
	}
}

// Events returns the channel of parsed control events.
func (s *Source) Events() <-chan Event { return s.events }

// Open binds the configured address and starts serving OSC messages on a
// background goroutine.
func (s *Source) Open() error {
	conn, err := net.ListenPacket("udp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("oscsource: listen on %s: %w", s.cfg.ListenAddr, err)
	}
	s.conn = conn

	dispatcher := osc.NewStandardDispatcher()
	s.register(dispatcher, "/offset", s.handleOffset)
	s.register(dispatcher, "/wait", s.handleWait)
	s.register(dispatcher, "/load", s.handleLoad)
	s.register(dispatcher, "/play", s.handleSimple(EventPlay))
	s.register(dispatcher, "/stop", s.handleSimple(EventStop))
	s.register(dispatcher, "/quit", s.handleSimple(EventQuit))
	s.register(dispatcher, "/check", s.handleSimple(EventCheck))
	s.register(dispatcher, "/stoponlost", s.handleSimple(EventToggleStopOnLost))

	s.server = &osc.Server{Dispatcher: dispatcher}
	go func() {
		if err := s.server.Serve(s.conn); err != nil {
			s.log.Info("oscsource: server stopped", "err", err)
		}
	}()
	s.log.Info("osc source listening", "addr", s.cfg.ListenAddr, "prefix", s.cfg.Prefix)
	return nil
}

// Close stops serving and releases the socket.
func (s *Source) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *Source) register(d *osc.StandardDispatcher, addr string, handler osc.HandlerFunc) {
	full := s.cfg.Prefix + addr
	if err := d.AddMsgHandler(full, handler); err != nil {
		s.log.Error("oscsource: failed to register handler", "address", full, "err", err)
	}
}

func (s *Source) handleOffset(msg *osc.Message) {
	v, ok := floatArg(msg, 0)
	if !ok {
		s.reportMalformed(msg)
		return
	}
	s.events <- Event{Kind: EventOffset, OffsetMs: int64(math.Floor(v))}
}

func (s *Source) handleWait(msg *osc.Message) {
	v, ok := floatArg(msg, 0)
	if !ok {
		s.reportMalformed(msg)
		return
	}
	s.events <- Event{Kind: EventWait, WaitMs: int64(math.Floor(v))}
}

func (s *Source) handleLoad(msg *osc.Message) {
	if len(msg.Arguments) < 1 {
		s.reportMalformed(msg)
		return
	}
	path, ok := msg.Arguments[0].(string)
	if !ok {
		s.reportMalformed(msg)
		return
	}
	s.events <- Event{Kind: EventLoad, LoadPath: path}
}

func (s *Source) handleSimple(kind EventKind) osc.HandlerFunc {
	return func(msg *osc.Message) {
		s.events <- Event{Kind: kind}
	}
}

func (s *Source) reportMalformed(msg *osc.Message) {
	s.log.Warn("oscsource: malformed message discarded", "address", msg.Address)
}

func floatArg(msg *osc.Message, i int) (float64, bool) {
	if i >= len(msg.Arguments) {
		return 0, false
	}
	switch v := msg.Arguments[i].(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// Name returns an event kind's lower-case address name, used in logging.
func (k EventKind) Name() string {
	names := [...]string{"offset", "wait", "load", "play", "stop", "quit", "check", "stoponlost"}
	if int(k) < 0 || int(k) >= len(names) {
		return "unknown"
	}
	return strings.ToLower(names[k])
}
