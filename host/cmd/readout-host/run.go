package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"readout/host/config"
	"readout/host/logfields"
	"readout/host/metrics"
	"readout/host/runtime"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	Every  time.Duration `short:"e" help:"Trigger interval (overrides runtime.trigger_every)"`
	Listen string        `short:"l" help:"Metrics listen address (overrides metrics.listen)"`
	Device string        `short:"d" help:"Send key events to this serial bridge"`
	Watch  bool          `short:"w" help:"Reload the configuration file when it changes"`
}

func (r *RunCmd) Run(cli *CLI) error {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	every := cfg.Runtime.TriggerEvery
	if r.Every > 0 {
		every = r.Every
	}
	if every <= 0 {
		return errors.Join(config.ErrInvalidConfig, errors.New("no trigger interval configured"))
	}
	listen := cfg.Metrics.Listen
	if r.Listen != "" {
		listen = r.Listen
	}

	reg := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)

	s, err := newSession(cfg, r.Device, recorder)
	if err != nil {
		return err
	}
	defer s.close()

	trigger, err := runtime.NewTrigger(nil, recorder)
	if err != nil {
		return err
	}
	for _, b := range s.app.Bindings() {
		if err := trigger.Every(b.Name, every, b.Emitter); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.runner.Run(ctx) })

	if listen != "" {
		srv := &http.Server{Addr: listen, Handler: metrics.HTTPHandler(reg), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			slog.Info("Serving metrics", slog.String("addr", listen))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if r.Watch && cli.Config != "" {
		g.Go(func() error {
			return config.Watch(ctx, cli.Config, s.app.Apply)
		})
	}

	trigger.Start()
	slog.Info("Typing readings", slog.Duration("every", every), slog.Int("bindings", len(s.app.Bindings())))

	err = g.Wait()
	if stopErr := trigger.Stop(); stopErr != nil {
		slog.Warn("Failed to stop trigger", logfields.Error(stopErr))
	}
	return err
}
