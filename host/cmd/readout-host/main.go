package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"readout/core"
	"readout/emitter"
	"readout/format"
	"readout/host/app"
	"readout/host/config"
	"readout/host/metrics"
	"readout/host/runtime"
	"readout/host/serial"
	"readout/host/sink"
	"readout/protocol"
)

// Exit codes
const (
	ExitOK                = 0
	ExitFailure           = 1
	ExitConfigInvalid     = 2
	ExitSourceUnavailable = 3
	ExitBusy              = 4
	ExitInvalidCharacter  = 5
	ExitSerial            = 6
)

// CLI definition & global flags
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (a single static binding when empty)" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Dump    bool             `help:"Dump the timing ring to stderr on exit"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Format  FormatCmd  `cmd:"" help:"Print a reading as it would be typed"`
	Type    TypeCmd    `cmd:"" help:"Type one reading and print the transcript"`
	Run     RunCmd     `cmd:"" help:"Type readings periodically and serve metrics"`
	Console ConsoleCmd `cmd:"" help:"Interactive console for pressing bindings by hand"`
	Monitor MonitorCmd `cmd:"" help:"Decode key event frames from a serial device"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	core.SetDebugWriter(func(msg string) { fmt.Fprintln(os.Stderr, msg) })
	core.SetDebugEnabled(c.Verbose)
	return nil
}

// LoadConfig reads the configured file or falls back to the built-in one
func (c *CLI) LoadConfig() (*config.Config, error) {
	if c.Config == "" {
		return config.Default(), nil
	}
	return config.Load(c.Config)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("readout-host"),
		kong.Description("Types sensor readings as key press and release events."),
		kong.Vars{"version": protocol.Version},
		kong.Writers(stdout, os.Stderr),
		kong.BindTo(stdout, (*io.Writer)(nil)),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitFailure
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return ExitFailure
	}

	err = ctx.Run(&cli)
	if cli.Dump {
		core.DumpTimingRing()
	}
	if err != nil {
		slog.Error("Command failed", slog.String("command", ctx.Command()), slog.String("error", err.Error()))
	}
	return exitCode(err)
}

// exitCode maps an error to the process exit status
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, format.ErrInvalidPlaces),
		errors.Is(err, emitter.ErrInvalidDelay):
		return ExitConfigInvalid
	case errors.Is(err, emitter.ErrSourceUnavailable):
		return ExitSourceUnavailable
	case errors.Is(err, emitter.ErrBusy):
		return ExitBusy
	case errors.Is(err, emitter.ErrInvalidCharacter):
		return ExitInvalidCharacter
	case errors.Is(err, serial.ErrNoDevice), errors.Is(err, errSerialOpen):
		return ExitSerial
	default:
		return ExitFailure
	}
}

var errSerialOpen = errors.New("serial port unavailable")

// session is the host equivalent of a booted board: one scheduler, the
// timer runner and the configured bindings
type session struct {
	cfg      *config.Config
	sched    *core.Scheduler
	app      *app.App
	runner   *runtime.Runner
	port     serial.Port
	recorder metrics.Recorder

	transcripts map[uint8]*sink.Transcript
}

func newSession(cfg *config.Config, device string, recorder metrics.Recorder) (*session, error) {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	s := &session{
		cfg:         cfg,
		sched:       core.NewScheduler(),
		recorder:    recorder,
		transcripts: make(map[uint8]*sink.Transcript),
	}

	serialCfg := cfg.Serial
	if device != "" {
		serialCfg = serial.DefaultConfig(device)
	}
	if serialCfg != nil {
		port, err := serial.Open(serialCfg)
		if err != nil {
			if errors.Is(err, serial.ErrNoDevice) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", errSerialOpen, err)
		}
		s.port = port
	}

	var err error
	s.app, err = app.Build(cfg, s.sched, s.sinkFor, recorder)
	if err != nil {
		s.close()
		return nil, err
	}
	s.runner, err = runtime.NewRunner(nil, s.sched, cfg.Runtime.TickPeriod)
	if err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *session) sinkFor(oid uint8) emitter.Sink {
	t := sink.NewTranscript()
	s.transcripts[oid] = t
	sinks := sink.Multi{t, sink.LogSink{OID: oid}}
	if s.port != nil {
		sinks = append(sinks, sink.NewSerialSink(s.port, oid, nil, s.recorder))
	}
	return sink.MetricsSink{Next: sinks, Recorder: s.recorder}
}

// typeOnce presses b and waits until its whole reading has been typed
func (s *session) typeOnce(ctx context.Context, b *app.Binding) (string, error) {
	t := s.transcripts[b.Emitter.Config().OID]
	t.Reset()
	b.ClearFaults()

	err := b.Emitter.Pressed()
	s.recorder.IncStart(runtime.Classify(err))
	if err != nil {
		return "", err
	}
	text := b.Emitter.Last()
	s.recorder.ObserveTypedLength(len(text))

	// Two transitions per character, one tap delay apart, plus slack
	cfg := b.Emitter.Config()
	timeout := time.Duration(2*len(text)+1)*cfg.TapDelay + time.Second
	select {
	case <-t.WaitFor(2 * len(text)):
		return t.Text(), nil
	case err := <-b.Faults():
		return t.Text(), err
	case <-ctx.Done():
		b.Emitter.Cancel()
		return t.Text(), ctx.Err()
	case <-time.After(timeout):
		b.Emitter.Cancel()
		return t.Text(), fmt.Errorf("typing %q timed out after %s", text, timeout)
	}
}

func (s *session) close() {
	if s.app != nil {
		s.app.Stop()
	}
	if s.port != nil {
		if err := s.port.Close(); err != nil {
			slog.Warn("Failed to close serial port", slog.String("error", err.Error()))
		}
	}
}
