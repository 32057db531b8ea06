// Package cli parses command-line configuration for the DMX player, the
// same flag.FlagSet + Config + environment-overlay shape the teacher used
// for its own interpreter entry point.
package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ExitCode enumerates the distinct process exit codes the player can
// return, one per fatal error kind (§7).
type ExitCode int

const (
	ExitOK ExitCode = iota
	ExitBadArgs
	ExitFileMissing
	ExitDmxBackendSetup
	ExitDmxBackendServer
	ExitCueSchemaInit
	ExitMtcDeviceSetup
	ExitOscServerSetup
)

// Config holds the parsed and validated command-line configuration.
type Config struct {
	CuePath           string // --file/-f
	OscPort           int    // --port/-p
	OffsetMs          int64  // --offset/-o
	WaitMs            int64  // --wait/-w
	UUID              string // --uuid/-u, OSC address prefix / instance id
	ContinueIfMtcLost bool   // --ciml/-c, inverts StopOnMtcLost
	Show              string // --show {w|c}
	MidiIn            string // --midi-in
	ArtnetBroadcast   string // --artnet-broadcast
	LogLevel          string // --log-level
	ShowHelp          bool
}

// ParseArgs parses args (excluding the program name) into a validated
// Config, applying environment variable overrides for any flag left at its
// default.
func ParseArgs(args []string) (*Config, error) {
	fs := flag.NewFlagSet("dmxplayer", flag.ContinueOnError)
	config := &Config{}

	fs.StringVar(&config.CuePath, "file", "", "path to the cue description file")
	fs.StringVar(&config.CuePath, "f", "", "path to the cue description file (shorthand)")
	fs.IntVar(&config.OscPort, "port", 9000, "OSC listen port")
	fs.IntVar(&config.OscPort, "p", 9000, "OSC listen port (shorthand)")

	var offsetMs, waitMs int
	fs.IntVar(&offsetMs, "offset", 0, "initial head offset in milliseconds")
	fs.IntVar(&offsetMs, "o", 0, "initial head offset in milliseconds (shorthand)")
	fs.IntVar(&waitMs, "wait", 0, "end-of-play wait in milliseconds")
	fs.IntVar(&waitMs, "w", 0, "end-of-play wait in milliseconds (shorthand)")

	fs.StringVar(&config.UUID, "uuid", "", "OSC address prefix / instance id")
	fs.StringVar(&config.UUID, "u", "", "OSC address prefix / instance id (shorthand)")
	fs.BoolVar(&config.ContinueIfMtcLost, "ciml", false, "continue playback if MTC is lost")
	fs.BoolVar(&config.ContinueIfMtcLost, "c", false, "continue playback if MTC is lost (shorthand)")
	fs.StringVar(&config.Show, "show", "c", "display mode: w (window) or c (console)")
	fs.StringVar(&config.MidiIn, "midi-in", "", "MIDI input port name for MTC")
	fs.StringVar(&config.ArtnetBroadcast, "artnet-broadcast", "255.255.255.255", "Art-Net broadcast address")
	fs.StringVar(&config.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.BoolVar(&config.ShowHelp, "help", false, "show this help")
	fs.BoolVar(&config.ShowHelp, "h", false, "show this help (shorthand)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadArgs, err)
	}
	if config.ShowHelp {
		return config, nil
	}

	applyIntEnvOverride(&offsetMs, "DMX_OFFSET_MS")
	applyIntEnvOverride(&waitMs, "DMX_WAIT_MS")
	config.OffsetMs = int64(offsetMs)
	config.WaitMs = int64(waitMs)

	if env := os.Getenv("DMX_CUE_FILE"); env != "" && config.CuePath == "" {
		config.CuePath = env
	}
	if env := os.Getenv("DMX_MIDI_IN"); env != "" && config.MidiIn == "" {
		config.MidiIn = env
	}
	if config.LogLevel == "info" {
		if env := os.Getenv("LOG_LEVEL"); env != "" {
			config.LogLevel = strings.ToLower(env)
		}
	}

	if err := validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

var errBadArgs = fmt.Errorf("bad arguments")

func validate(c *Config) error {
	if c.CuePath == "" {
		return fmt.Errorf("%w: --file is required", errBadArgs)
	}
	if c.WaitMs < 0 {
		return fmt.Errorf("%w: wait must be non-negative, got %d", errBadArgs, c.WaitMs)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("%w: invalid log level: %s", errBadArgs, c.LogLevel)
	}
	switch c.Show {
	case "c":
	case "w":
		return fmt.Errorf("%w: window display mode is not supported by this player", errBadArgs)
	default:
		return fmt.Errorf("%w: --show must be w or c, got %q", errBadArgs, c.Show)
	}
	return nil
}

func applyIntEnvOverride(dst *int, envName string) {
	if *dst != 0 {
		return
	}
	if env := os.Getenv(envName); env != "" {
		if v, err := strconv.Atoi(env); err == nil {
			*dst = v
		}
	}
}

// ExitCodeForError maps a fatal startup error to its process exit code.
// Unrecognized errors map to ExitBadArgs.
func ExitCodeForError(err error) ExitCode {
	switch {
	case err == nil:
		return ExitOK
	case strings.Contains(err.Error(), "cue schema"):
		return ExitCueSchemaInit
	case strings.Contains(err.Error(), "mtc device setup"):
		return ExitMtcDeviceSetup
	case strings.Contains(err.Error(), "osc server setup"):
		return ExitOscServerSetup
	case strings.Contains(err.Error(), "dmx backend setup"):
		return ExitDmxBackendSetup
	case strings.Contains(err.Error(), "dmx backend server"):
		return ExitDmxBackendServer
	case strings.Contains(err.Error(), "no such file"), strings.Contains(err.Error(), "cue file"):
		return ExitFileMissing
	default:
		return ExitBadArgs
	}
}

// PrintHelp prints the usage message to stdout.
func PrintHelp() {
	fmt.Fprint(os.Stdout, `dmxplayer - DMX512 cue playback synchronized to MIDI Time Code

Usage:
  dmxplayer --file <cue.xml> [options]

Options:
  -f, --file <path>              cue description file (required)
  -p, --port <n>                 OSC listen port (default 9000)
  -o, --offset <ms>              initial head offset in milliseconds
  -w, --wait <ms>                end-of-play wait in milliseconds
  -u, --uuid <str>                OSC address prefix / instance id
  -c, --ciml                     continue playback if MTC is lost
      --show {w|c}                display mode (console only; default c)
      --midi-in <name>            MIDI input port name for MTC
      --artnet-broadcast <addr>   Art-Net broadcast address
      --log-level <level>         debug, info, warn, or error
  -h, --help                      show this help

Environment Variables:
  DMX_CUE_FILE, DMX_MIDI_IN, DMX_OFFSET_MS, DMX_WAIT_MS, LOG_LEVEL
`)
}
