// Package timecode decodes the "HH:MM:SS:FF" SMPTE offset strings carried
// verbatim in a cue's envelope into a millisecond offset against a frame
// rate. It is a helper the playback engine consults explicitly; cueloader
// never applies it implicitly.
package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

// SMPTE is a decoded "HH:MM:SS:FF" value.
type SMPTE struct {
	Hours, Minutes, Seconds, Frames int
}

// Parse splits a "HH:MM:SS:FF" string into its four integer fields.
func Parse(s string) (SMPTE, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return SMPTE{}, fmt.Errorf("timecode: %q does not have 4 HH:MM:SS:FF fields", s)
	}
	fields := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return SMPTE{}, fmt.Errorf("timecode: field %d of %q is not an integer: %w", i, s, err)
		}
		fields[i] = v
	}
	return SMPTE{Hours: fields[0], Minutes: fields[1], Seconds: fields[2], Frames: fields[3]}, nil
}

// OffsetMs decodes a "HH:MM:SS:FF" offset into milliseconds for a given
// (positive) frame rate, using the same integer-truncating arithmetic as
// the source this player is descended from: HH*3600000 + MM*60000 +
// SS*1000 + FF*1000/fps.
func OffsetMs(offset string, fps int) (int64, error) {
	if fps <= 0 {
		return 0, fmt.Errorf("timecode: frame rate must be positive, got %d", fps)
	}
	tc, err := Parse(offset)
	if err != nil {
		return 0, err
	}
	ms := int64(tc.Hours)*3600000 + int64(tc.Minutes)*60000 + int64(tc.Seconds)*1000 + int64(tc.Frames)*1000/int64(fps)
	return ms, nil
}
