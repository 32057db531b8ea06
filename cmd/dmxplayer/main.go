// Command dmxplayer plays a DMX512 cue description synchronized to an
// external MIDI Time Code source, with an OSC control surface, the same
// Run(args) error -> os.Exit(code) shape the teacher's own cmd entry
// points use.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/stagesoft/cuems-dmxplayer/pkg/cli"
	"github.com/stagesoft/cuems-dmxplayer/pkg/cueloader"
	"github.com/stagesoft/cuems-dmxplayer/pkg/cuemodel"
	"github.com/stagesoft/cuems-dmxplayer/pkg/dmxsink"
	"github.com/stagesoft/cuems-dmxplayer/pkg/logger"
	"github.com/stagesoft/cuems-dmxplayer/pkg/mtc"
	"github.com/stagesoft/cuems-dmxplayer/pkg/oscsource"
	"github.com/stagesoft/cuems-dmxplayer/pkg/playback"
	"github.com/stagesoft/cuems-dmxplayer/pkg/scheduler"
)

func main() {
	err := run(os.Args[1:])
	code := cli.ExitCodeForError(err)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dmxplayer: %v\n", err)
	}
	os.Exit(int(code))
}

// run wires up every collaborator and blocks until playback ends, a /quit
// event arrives, or the process is signaled, mirroring the teacher's own
// Application.Run: one function, one wrapped error per step.
func run(args []string) error {
	cfg, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	if cfg.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	if err := logger.InitLogger(cfg.LogLevel); err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	log := logger.GetLogger()

	cue, err := loadCue(cfg.CuePath)
	if err != nil {
		return err
	}

	mtcReceiver := mtc.NewReceiver(logger.With("mtc"))
	if cfg.MidiIn != "" {
		if err := mtcReceiver.Open(cfg.MidiIn); err != nil {
			return fmt.Errorf("mtc device setup: %w", err)
		}
		defer mtcReceiver.Close()
	} else {
		log.Warn("no --midi-in given; playback will never see a running MTC source")
	}

	sink, err := buildSink(cfg, logger.With("dmxsink"))
	if err != nil {
		return fmt.Errorf("dmx backend setup: %w", err)
	}
	defer sink.Close()

	oscCfg := oscsource.Config{ListenAddr: fmt.Sprintf(":%d", cfg.OscPort), Prefix: cfg.UUID}
	osc := oscsource.NewSource(oscCfg, logger.With("oscsource"))
	if err := osc.Open(); err != nil {
		return fmt.Errorf("osc server setup: %w", err)
	}
	defer osc.Close()

	transport := playback.NewTransportState(cfg.OffsetMs, cfg.WaitMs, !cfg.ContinueIfMtcLost)
	engine := playback.NewEngine(cue, transport, &mtcAdapter{mtcReceiver}, sink, logger.With("playback"))
	sched := scheduler.New(engine, osc.Events(), logger.With("scheduler"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		// Playback ending or /quit returns nil; cancel ctx so the
		// health-signal goroutine exits too and Wait can return.
		defer stop()
		return sched.Run(gctx)
	})
	group.Go(func() error { return watchHealthSignal(gctx, engine, log) })

	log.Info("dmxplayer started", "cue", cfg.CuePath, "oscPort", cfg.OscPort, "midiIn", cfg.MidiIn)
	return group.Wait()
}

// loadCue opens and parses the cue file named by path, translating os.Open
// failures and parse failures into the distinct exit-code classes §7 names.
func loadCue(path string) (*cuemodel.Cue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cue file: %w", err)
	}
	defer f.Close()

	cue, err := cueloader.Load(f)
	if err != nil {
		return nil, fmt.Errorf("cue schema: %w", err)
	}
	return cue, nil
}

// buildSink selects the Art-Net sink for real playback, falling back to a
// null sink when no broadcast address is configured (bench/headless runs).
func buildSink(cfg *cli.Config, log *slog.Logger) (dmxsink.Sink, error) {
	if cfg.ArtnetBroadcast == "" {
		return dmxsink.NewNullSink(log), nil
	}
	return dmxsink.NewArtNetSink(cfg.ArtnetBroadcast, 6454, log)
}

// watchHealthSignal logs a one-line health report every time the process
// receives SIGUSR1, for operators polling a running instance without an OSC
// client to hand.
func watchHealthSignal(ctx context.Context, engine *playback.Engine, log *slog.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGUSR1)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sigCh:
			t := engine.Transport()
			log.Info("health report",
				"endOfPlay", t.EndOfPlay,
				"mtcStarted", t.MtcStarted,
				"mtcLost", t.MtcLost,
				"playControl", t.PlayControl,
			)
		}
	}
}

// mtcAdapter drives mtc.Receiver.CheckTimeout once per Running() query, so
// the engine's once-per-tick read is also what ages out a stalled MTC input
// (§4.2's "longer than two frame periods" loss detection).
type mtcAdapter struct {
	r *mtc.Receiver
}

func (m *mtcAdapter) Running() bool {
	m.r.CheckTimeout()
	return m.r.Running()
}

func (m *mtcAdapter) FrameRate() uint8 { return m.r.FrameRate() }
func (m *mtcAdapter) HeadMs() int64    { return m.r.HeadMs() }
