package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"readout/host/config"
)

// TypeCmd implements the 'type' command.
type TypeCmd struct {
	Binding string `short:"b" help:"Binding name (first binding when empty)"`
	Value   string `help:"Override the reading of a static binding"`
	Places  *int   `short:"p" help:"Override decimal places (0-6)"`
	Device  string `short:"d" help:"Also send key events to this serial bridge"`
}

func (t *TypeCmd) Run(cli *CLI, out io.Writer) error {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	if t.Places != nil {
		for i := range cfg.Bindings {
			cfg.Bindings[i].Places = t.Places
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	s, err := newSession(cfg, t.Device, nil)
	if err != nil {
		return err
	}
	defer s.close()

	b, err := s.app.Lookup(t.Binding)
	if err != nil {
		return err
	}
	if t.Value != "" {
		if b.Static() == nil {
			return fmt.Errorf("%w: binding %q does not have a static reading", config.ErrInvalidConfig, b.Name)
		}
		v, err := config.ParseReading(t.Value)
		if err != nil {
			return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}
		b.Static().Set(v)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx, cancelRunner := context.WithCancel(ctx)
	defer cancelRunner()
	go func() { _ = s.runner.Run(runCtx) }()

	text, err := s.typeOnce(ctx, b)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, text)
	return err
}
