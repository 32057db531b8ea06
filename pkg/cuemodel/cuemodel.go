// Package cuemodel holds the in-memory representation of a single DMX cue:
// its temporal envelope and the per-universe channel targets it asserts.
package cuemodel

// UniverseSize is the number of channels in a DMX512 universe.
const UniverseSize = 512

// DmxChannel is a single addressed channel value within a universe.
type DmxChannel struct {
	ID    uint16 // 0-based, 0..511
	Value byte
}

// DmxUniverse is one DMX512 universe: an ordered set of channel targets and
// the dense byte buffer they project onto.
type DmxUniverse struct {
	ID       uint16
	Channels []DmxChannel
	Buffer   [UniverseSize]byte
}

// SetChannel assigns value to channel id, last write wins, and keeps Buffer
// in sync. id must already be range-checked by the caller (0..UniverseSize-1).
func (u *DmxUniverse) SetChannel(id uint16, value byte) {
	for i := range u.Channels {
		if u.Channels[i].ID == id {
			u.Channels[i].Value = value
			u.Buffer[id] = value
			return
		}
	}
	u.Channels = append(u.Channels, DmxChannel{ID: id, Value: value})
	u.Buffer[id] = value
}

// Envelope describes the in/sustain/out timing windows applied on top of the
// play-head, in milliseconds, plus the verbatim offset timecode the cue was
// authored against.
type Envelope struct {
	OffsetTimecode string // "HH:MM:SS:FF", decoded later by the caller against a frame rate
	InMs           int64
	LengthMs       int64
	OutMs          int64
}

// SustainStart is the play-head position, in ms, where fade-in ends.
func (e Envelope) SustainStart() int64 { return e.InMs }

// SustainEnd is the play-head position, in ms, where fade-out begins.
func (e Envelope) SustainEnd() int64 { return e.InMs + e.LengthMs }

// OutEnd is the play-head position, in ms, where the cue enters PostRoll.
func (e Envelope) OutEnd() int64 { return e.InMs + e.LengthMs + e.OutMs }

// Cue is the complete, immutable-once-loaded description of a lighting cue.
type Cue struct {
	Envelope  Envelope
	Universes []DmxUniverse
}

// Universe returns the universe with the given id, and whether it was found.
func (c *Cue) Universe(id uint16) (*DmxUniverse, bool) {
	for i := range c.Universes {
		if c.Universes[i].ID == id {
			return &c.Universes[i], true
		}
	}
	return nil, false
}
