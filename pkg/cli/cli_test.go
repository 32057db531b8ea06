package cli

import (
	"fmt"
	"os"
	"testing"
)

func TestParseArgs_ValidArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected Config
	}{
		{
			name: "minimal required flag",
			args: []string{"--file", "show.xml"},
			expected: Config{
				CuePath:         "show.xml",
				OscPort:         9000,
				Show:            "c",
				ArtnetBroadcast: "255.255.255.255",
				LogLevel:        "info",
			},
		},
		{
			name: "shorthand flags",
			args: []string{"-f", "show.xml", "-p", "9010", "-o", "500", "-w", "2000", "-u", "rig1", "-c"},
			expected: Config{
				CuePath:           "show.xml",
				OscPort:           9010,
				OffsetMs:          500,
				WaitMs:            2000,
				UUID:              "rig1",
				ContinueIfMtcLost: true,
				Show:              "c",
				ArtnetBroadcast:   "255.255.255.255",
				LogLevel:          "info",
			},
		},
		{
			name: "log level override",
			args: []string{"--file", "show.xml", "--log-level", "debug"},
			expected: Config{
				CuePath:         "show.xml",
				OscPort:         9000,
				Show:            "c",
				ArtnetBroadcast: "255.255.255.255",
				LogLevel:        "debug",
			},
		},
		{
			name: "help requested bypasses required-flag validation",
			args: []string{"--help"},
			expected: Config{
				ShowHelp: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := ParseArgs(tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.expected.ShowHelp {
				if !config.ShowHelp {
					t.Error("expected ShowHelp true")
				}
				return
			}
			if config.CuePath != tt.expected.CuePath {
				t.Errorf("CuePath = %q, want %q", config.CuePath, tt.expected.CuePath)
			}
			if config.OscPort != tt.expected.OscPort {
				t.Errorf("OscPort = %d, want %d", config.OscPort, tt.expected.OscPort)
			}
			if config.OffsetMs != tt.expected.OffsetMs {
				t.Errorf("OffsetMs = %d, want %d", config.OffsetMs, tt.expected.OffsetMs)
			}
			if config.WaitMs != tt.expected.WaitMs {
				t.Errorf("WaitMs = %d, want %d", config.WaitMs, tt.expected.WaitMs)
			}
			if config.UUID != tt.expected.UUID {
				t.Errorf("UUID = %q, want %q", config.UUID, tt.expected.UUID)
			}
			if config.ContinueIfMtcLost != tt.expected.ContinueIfMtcLost {
				t.Errorf("ContinueIfMtcLost = %v, want %v", config.ContinueIfMtcLost, tt.expected.ContinueIfMtcLost)
			}
			if config.LogLevel != tt.expected.LogLevel {
				t.Errorf("LogLevel = %q, want %q", config.LogLevel, tt.expected.LogLevel)
			}
		})
	}
}

func TestParseArgs_InvalidArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing required file", args: []string{}},
		{name: "negative wait", args: []string{"--file", "show.xml", "--wait", "-10"}},
		{name: "invalid log level", args: []string{"--file", "show.xml", "--log-level", "invalid"}},
		{name: "window show mode rejected", args: []string{"--file", "show.xml", "--show", "w"}},
		{name: "unknown show mode", args: []string{"--file", "show.xml", "--show", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParseArgs_EnvironmentVariables(t *testing.T) {
	for _, name := range []string{"DMX_CUE_FILE", "DMX_MIDI_IN", "DMX_OFFSET_MS", "DMX_WAIT_MS", "LOG_LEVEL"} {
		orig := os.Getenv(name)
		defer os.Setenv(name, orig)
		os.Unsetenv(name)
	}

	os.Setenv("DMX_CUE_FILE", "/env/show.xml")
	os.Setenv("DMX_OFFSET_MS", "250")
	os.Setenv("LOG_LEVEL", "warn")

	config, err := ParseArgs([]string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.CuePath != "/env/show.xml" {
		t.Errorf("CuePath = %q, want /env/show.xml", config.CuePath)
	}
	if config.OffsetMs != 250 {
		t.Errorf("OffsetMs = %d, want 250", config.OffsetMs)
	}
	if config.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", config.LogLevel)
	}
}

func TestParseArgs_FlagOverridesEnv(t *testing.T) {
	orig := os.Getenv("DMX_CUE_FILE")
	defer os.Setenv("DMX_CUE_FILE", orig)
	os.Setenv("DMX_CUE_FILE", "/env/show.xml")

	config, err := ParseArgs([]string{"--file", "/flag/show.xml"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.CuePath != "/flag/show.xml" {
		t.Errorf("CuePath = %q, want /flag/show.xml", config.CuePath)
	}
}

func TestExitCodeForError(t *testing.T) {
	if ExitCodeForError(nil) != ExitOK {
		t.Error("nil error should map to ExitOK")
	}
}

func TestExitCodeForError_DistinguishesCollaboratorFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ExitCode
	}{
		{"cue schema", fmt.Errorf("cue schema: %w", errBadArgs), ExitCueSchemaInit},
		{"mtc device setup", fmt.Errorf("mtc device setup: %w", errBadArgs), ExitMtcDeviceSetup},
		{"osc server setup", fmt.Errorf("osc server setup: %w", errBadArgs), ExitOscServerSetup},
		{"dmx backend setup", fmt.Errorf("dmx backend setup: %w", errBadArgs), ExitDmxBackendSetup},
		{"dmx backend server", fmt.Errorf("dmx backend server: %w", errBadArgs), ExitDmxBackendServer},
		{"missing cue file", fmt.Errorf("cue file: %w", errBadArgs), ExitFileMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
