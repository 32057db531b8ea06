// Package mtc reconstructs a running SMPTE timecode position from MIDI Time
// Code quarter-frame and full-frame messages, backed by
// gitlab.com/gomidi/midi/v2 -- the same library the teacher's own MIDI
// playback integration (midi_player.go) uses to talk to a MIDI input.
package mtc

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gitlab.com/gomidi/midi/v2"
)

const (
	// statusQuarterFrame is the MTC quarter-frame system-common status byte.
	statusQuarterFrame = 0xF1

	// lossTimeoutFrames is how many frame periods of silence before Running
	// flips false (§4.2: "longer than two frame periods").
	lossTimeoutFrames = 2
)

// pieceRate decodes the two rate bits carried in quarter-frame piece 7
// (hours MSB nibble, bits 2:1 of the data nibble; bit 0 is the hours MSB)
// to a nominal frame rate.
// 29 denotes 29.97 drop-frame and is treated as 30 for ms arithmetic by
// callers, per §4.2.
var pieceRate = map[byte]uint8{0: 24, 1: 25, 2: 29, 3: 30}

// Receiver is the consumed MTC source: running state, frame rate, and a
// monotonic head position in milliseconds, safe to read from another
// goroutine without locking.
type Receiver struct {
	running   atomic.Bool
	frameRate atomic.Uint32
	headMs    atomic.Int64

	log *slog.Logger

	mu            sync.Mutex
	piece         [8]byte
	havePiece     [8]bool
	lastMessageAt time.Time
	stopPort      func()
}

// NewReceiver creates a Receiver with a default frame rate of 30 until the
// first quarter-frame or full-frame message establishes the real one.
func NewReceiver(log *slog.Logger) *Receiver {
	if log == nil {
		log = slog.Default()
	}
	r := &Receiver{log: log}
	r.frameRate.Store(30)
	return r
}

// Open starts listening to MTC messages on the named MIDI input port.
func (r *Receiver) Open(portName string) error {
	in, err := midi.FindInPort(portName)
	if err != nil {
		return fmt.Errorf("mtc: find input port %q: %w", portName, err)
	}
	stop, err := midi.ListenTo(in, r.handleMessage, midi.UseSysEx())
	if err != nil {
		return fmt.Errorf("mtc: listen to %q: %w", portName, err)
	}
	r.mu.Lock()
	r.stopPort = stop
	r.lastMessageAt = time.Now()
	r.mu.Unlock()
	return nil
}

// Close stops listening to the MIDI port.
func (r *Receiver) Close() error {
	r.mu.Lock()
	stop := r.stopPort
	r.mu.Unlock()
	if stop != nil {
		stop()
	}
	return nil
}

// Running reports whether MIDI ingress has been seen within the last two
// frame periods.
func (r *Receiver) Running() bool { return r.running.Load() }

// FrameRate returns the last-known MTC frame rate (24, 25, 29, or 30).
func (r *Receiver) FrameRate() uint8 { return uint8(r.frameRate.Load()) }

// HeadMs returns the current reconstructed timecode position in
// milliseconds.
func (r *Receiver) HeadMs() int64 { return r.headMs.Load() }

// CheckTimeout must be called periodically (e.g. once per scheduler tick) so
// that silence on the MIDI input is observed even when no message arrives to
// trigger handleMessage. It flips Running false once more than
// lossTimeoutFrames worth of time has elapsed since the last message.
func (r *Receiver) CheckTimeout() {
	r.mu.Lock()
	last := r.lastMessageAt
	r.mu.Unlock()
	if last.IsZero() {
		return
	}
	framePeriod := time.Second / time.Duration(r.FrameRate())
	if time.Since(last) > lossTimeoutFrames*framePeriod {
		if r.running.CompareAndSwap(true, false) {
			r.log.Warn("mtc: input stalled, marking not running")
		}
	}
}

func (r *Receiver) handleMessage(msg midi.Message, timestampms int32) {
	r.mu.Lock()
	r.lastMessageAt = time.Now()
	r.mu.Unlock()

	var sysex []byte
	if msg.GetSysEx(&sysex) {
		r.handleFullFrame(sysex)
		return
	}

	raw := msg.Bytes()
	if len(raw) < 2 || raw[0] != statusQuarterFrame {
		return
	}
	r.handleQuarterFrame(raw[1])
}

// handleQuarterFrame accumulates the eight MTC quarter-frame pieces. Once a
// full set (0..7) has arrived, it assembles the complete timecode and
// updates HeadMs to exactly the position the set carries. A piece set spans
// 8 quarter frames (two frames), so HeadMs changes once every two frames;
// it is not advanced between sets, and no allowance is added for the two
// frames the set took to transmit.
func (r *Receiver) handleQuarterFrame(data byte) {
	pieceType := (data >> 4) & 0x07
	nibble := data & 0x0F

	r.mu.Lock()
	r.piece[pieceType] = nibble
	r.havePiece[pieceType] = true
	complete := true
	for _, have := range r.havePiece {
		if !have {
			complete = false
			break
		}
	}
	if !complete {
		r.mu.Unlock()
		return
	}

	frames := int(r.piece[0]) | int(r.piece[1]&0x01)<<4
	seconds := int(r.piece[2]) | int(r.piece[3]&0x03)<<4
	minutes := int(r.piece[4]) | int(r.piece[5]&0x03)<<4
	hours := int(r.piece[6]) | int(r.piece[7]&0x01)<<4
	rateBits := (r.piece[7] >> 1) & 0x03
	r.havePiece = [8]bool{}
	r.mu.Unlock()

	rate := pieceRate[rateBits]
	r.applyPosition(hours, minutes, seconds, frames, rate)
}

// handleFullFrame decodes a MIDI Time Code full-frame SysEx message:
// F0 7F <device-id> 01 01 hh mm ss ff F7 (the F0/F7 wrapper is stripped by
// GetSysEx). A full-frame message sets HeadMs directly and may reset it
// backward, per §4.2.
func (r *Receiver) handleFullFrame(sysex []byte) {
	if len(sysex) < 8 || sysex[0] != 0x7F || sysex[2] != 0x01 || sysex[3] != 0x01 {
		return
	}
	rateBits := (sysex[4] >> 5) & 0x03
	hours := int(sysex[4] & 0x1F)
	minutes := int(sysex[5])
	seconds := int(sysex[6])
	frames := int(sysex[7])
	rate := pieceRate[rateBits]
	r.applyPosition(hours, minutes, seconds, frames, rate)
}

func (r *Receiver) applyPosition(hours, minutes, seconds, frames int, rate uint8) {
	if rate == 0 {
		rate = 30
	}
	msRate := rate
	if msRate == 29 {
		msRate = 30 // 29.97 drop-frame treated as 30 for ms arithmetic, §4.2.
	}
	ms := int64(hours)*3600000 + int64(minutes)*60000 + int64(seconds)*1000 + int64(frames)*1000/int64(msRate)

	r.frameRate.Store(uint32(rate))
	r.headMs.Store(ms)
	r.running.Store(true)
}
