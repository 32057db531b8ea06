// Package cueloader parses an XML cue description into a cuemodel.Cue.
//
// The loader is a pure function, load(document) -> (Cue, error); there is no
// mutable parser object to acquire and release, matching the rewrite's move
// away from a stateful parser-as-object toward an explicit result type (see
// DESIGN.md).
package cueloader

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/stagesoft/cuems-dmxplayer/pkg/cuemodel"
)

// ErrorKind classifies why a cue failed to load.
type ErrorKind int

const (
	// KindSchemaInit indicates the underlying XML decoder could not be initialized.
	KindSchemaInit ErrorKind = iota
	// KindParse indicates malformed XML or an element in the wrong place.
	KindParse
	// KindEmpty indicates the root element was missing.
	KindEmpty
	// KindInvalidNumber indicates a numeric field failed to parse or was out of range.
	KindInvalidNumber
)

func (k ErrorKind) String() string {
	switch k {
	case KindSchemaInit:
		return "SchemaInit"
	case KindParse:
		return "Parse"
	case KindEmpty:
		return "Empty"
	case KindInvalidNumber:
		return "InvalidNumber"
	default:
		return "Unknown"
	}
}

// LoadError is the typed error returned by Load.
type LoadError struct {
	Kind    ErrorKind
	Path    string // element/attribute path, for diagnostics
	Wrapped error
}

func (e *LoadError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("cueloader: %s at %s: %v", e.Kind, e.Path, e.Wrapped)
	}
	return fmt.Sprintf("cueloader: %s at %s", e.Kind, e.Path)
}

func (e *LoadError) Unwrap() error { return e.Wrapped }

func newErr(kind ErrorKind, path string, wrapped error) *LoadError {
	return &LoadError{Kind: kind, Path: path, Wrapped: wrapped}
}

// xmlChannel mirrors a <DmxChannel id="N">value</DmxChannel> element.
type xmlChannel struct {
	ID   int    `xml:"id,attr"`
	Body string `xml:",chardata"`
}

// xmlUniverse mirrors a <DmxUniverse id="N">...</DmxUniverse> element.
type xmlUniverse struct {
	ID       int          `xml:"id,attr"`
	Channels []xmlChannel `xml:"DmxChannel"`
}

// xmlScene mirrors a <DmxScene>...</DmxScene> element.
type xmlScene struct {
	Universes []xmlUniverse `xml:"DmxUniverse"`
}

// xmlRoot mirrors the <Root> document element (§6 of SPEC_FULL.md).
type xmlRoot struct {
	XMLName xml.Name   `xml:"Root"`
	Offset  string     `xml:"Offset"`
	InTime  *string    `xml:"InTime"`
	Length  *string    `xml:"Length"`
	OutTime *string    `xml:"OutTime"`
	Scenes  []xmlScene `xml:"DmxScene"`
}

// Load parses r as a cue description and returns the resulting Cue.
func Load(r io.Reader) (*cuemodel.Cue, error) {
	dec := xml.NewDecoder(r)
	if dec == nil {
		return nil, newErr(KindSchemaInit, "Root", fmt.Errorf("nil decoder"))
	}

	var root xmlRoot
	if err := dec.Decode(&root); err != nil {
		if err == io.EOF {
			return nil, newErr(KindEmpty, "Root", nil)
		}
		return nil, newErr(KindParse, "Root", err)
	}
	if root.XMLName.Local != "Root" {
		return nil, newErr(KindEmpty, "Root", nil)
	}

	inMs, err := parseNonNegMs(root.InTime, "Root/InTime")
	if err != nil {
		return nil, err
	}
	lengthMs, err := parseNonNegMs(root.Length, "Root/Length")
	if err != nil {
		return nil, err
	}
	outMs, err := parseNonNegMs(root.OutTime, "Root/OutTime")
	if err != nil {
		return nil, err
	}

	cue := &cuemodel.Cue{
		Envelope: cuemodel.Envelope{
			OffsetTimecode: root.Offset,
			InMs:           inMs,
			LengthMs:       lengthMs,
			OutMs:          outMs,
		},
	}

	for _, scene := range root.Scenes {
		for _, xu := range scene.Universes {
			if xu.ID < 0 || xu.ID > 0xFFFF {
				return nil, newErr(KindInvalidNumber, "DmxScene/DmxUniverse@id", fmt.Errorf("id %d out of range", xu.ID))
			}
			universe, err := buildUniverse(xu)
			if err != nil {
				return nil, err
			}
			cue.Universes = appendOrReplace(cue.Universes, universe)
		}
	}

	return cue, nil
}

// appendOrReplace keeps the "last DmxUniverse with a given id wins" semantics
// symmetric with the channel-level duplicate-id rule.
func appendOrReplace(universes []cuemodel.DmxUniverse, u cuemodel.DmxUniverse) []cuemodel.DmxUniverse {
	for i := range universes {
		if universes[i].ID == u.ID {
			universes[i] = u
			return universes
		}
	}
	return append(universes, u)
}

func buildUniverse(xu xmlUniverse) (cuemodel.DmxUniverse, error) {
	u := cuemodel.DmxUniverse{ID: uint16(xu.ID)}
	for _, xc := range xu.Channels {
		if xc.ID < 1 || xc.ID > cuemodel.UniverseSize {
			return cuemodel.DmxUniverse{}, newErr(KindInvalidNumber, "DmxChannel@id",
				fmt.Errorf("channel id %d out of range 1..%d", xc.ID, cuemodel.UniverseSize))
		}
		value, err := strconv.Atoi(trimBody(xc.Body))
		if err != nil {
			return cuemodel.DmxUniverse{}, newErr(KindInvalidNumber, "DmxChannel", err)
		}
		if value < 0 || value > 255 {
			return cuemodel.DmxUniverse{}, newErr(KindInvalidNumber, "DmxChannel",
				fmt.Errorf("value %d out of range 0..255", value))
		}
		// Document ids are 1-based; cuemodel ids are 0-based.
		u.SetChannel(uint16(xc.ID-1), byte(value))
	}
	return u, nil
}

func parseNonNegMs(s *string, path string) (int64, error) {
	if s == nil {
		return 0, nil
	}
	v, err := strconv.ParseInt(trimBody(*s), 10, 64)
	if err != nil {
		return 0, newErr(KindInvalidNumber, path, err)
	}
	if v < 0 {
		return 0, newErr(KindInvalidNumber, path, fmt.Errorf("must be non-negative, got %d", v))
	}
	return v, nil
}

func trimBody(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// Save serializes a Cue back to the XML document shape Load accepts, used by
// the round-trip test in §8 of SPEC_FULL.md. Channel order follows the
// in-memory Channels slice, so a cue whose duplicate ids were already
// resolved by Load ("last wins") round-trips to an equal Cue.
func Save(w io.Writer, cue *cuemodel.Cue) error {
	in := strconv.FormatInt(cue.Envelope.InMs, 10)
	length := strconv.FormatInt(cue.Envelope.LengthMs, 10)
	out := strconv.FormatInt(cue.Envelope.OutMs, 10)

	root := xmlRoot{
		XMLName: xml.Name{Local: "Root"},
		Offset:  cue.Envelope.OffsetTimecode,
		InTime:  &in,
		Length:  &length,
		OutTime: &out,
	}
	if len(cue.Universes) > 0 {
		scene := xmlScene{}
		for _, u := range cue.Universes {
			xu := xmlUniverse{ID: int(u.ID)}
			for _, c := range u.Channels {
				xu.Channels = append(xu.Channels, xmlChannel{
					ID:   int(c.ID) + 1,
					Body: strconv.Itoa(int(c.Value)),
				})
			}
			scene.Universes = append(scene.Universes, xu)
		}
		root.Scenes = append(root.Scenes, scene)
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(root)
}
