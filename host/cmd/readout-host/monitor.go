package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"readout/core"
	"readout/host/monitor"
	"readout/host/serial"
	"readout/protocol"
)

// MonitorCmd implements the 'monitor' command.
type MonitorCmd struct {
	Device string `arg:"" help:"Serial device to read key event frames from"`
	Baud   int    `help:"Baud rate" default:"115200"`
}

func (m *MonitorCmd) Run(_ *CLI, out io.Writer) error {
	cfg := serial.DefaultConfig(m.Device)
	cfg.Baud = m.Baud
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", errSerialOpen, err)
	}
	defer port.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mon := monitor.New(port, func(ev protocol.KeyEvent) {
		dir := "up"
		if ev.Pressed {
			dir = "down"
		}
		fmt.Fprintf(out, "oid=%d key=0x%04x %-4s clock=%d us=%d\n",
			ev.OID, ev.Code, dir, ev.Clock, core.TimerToUS(ev.Clock))
	})
	err = mon.Run(ctx)

	st := mon.Stats()
	fmt.Fprintf(out, "frames=%d invalid=%d dropped=%d gaps=%d\n", st.Frames, st.Invalid, st.Dropped, st.Gaps)
	return err
}
