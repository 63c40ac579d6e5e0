package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"readout/core"
	"readout/host/config"
)

// ConsoleCmd implements the 'console' command.
type ConsoleCmd struct {
	Device string `short:"d" help:"Also send key events to this serial bridge"`
}

func (c *ConsoleCmd) Run(cli *CLI, out io.Writer) error {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	s, err := newSession(cfg, c.Device, nil)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.runner.Run(ctx) }()

	return console(ctx, s, os.Stdin, out)
}

func console(ctx context.Context, s *session, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		name := ""
		if len(parts) > 1 {
			name = parts[1]
		}

		switch cmd {
		case "quit", "exit", "q":
			fmt.Fprintln(out, "Goodbye!")
			return nil

		case "help", "?":
			printHelp(out)

		case "list":
			for _, b := range s.app.Bindings() {
				bc := b.Emitter.Config()
				fmt.Fprintf(out, "  %-12s oid=%d places=%d delay=%s\n", b.Name, bc.OID, bc.Places, bc.TapDelay)
			}

		case "press", "p":
			b, err := s.app.Lookup(name)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			text, err := s.typeOnce(ctx, b)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "Typed %q\n", text)

		case "state":
			b, err := s.app.Lookup(name)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			st := b.Emitter.State()
			fmt.Fprintf(out, "  text=%q cursor=%d phase=%s last=%q\n", st.Text, st.Cursor, st.Phase, b.Emitter.Last())

		case "cancel":
			b, err := s.app.Lookup(name)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			b.Emitter.Cancel()

		case "set":
			if len(parts) != 3 {
				fmt.Fprintln(out, "Usage: set <binding> <reading>")
				continue
			}
			b, err := s.app.Lookup(name)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			if b.Static() == nil {
				fmt.Fprintf(out, "Error: binding %q does not have a static reading\n", b.Name)
				continue
			}
			v, err := config.ParseReading(parts[2])
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			b.Static().Set(v)

		case "dump":
			for _, evt := range core.TimingSnapshot() {
				fmt.Fprintf(out, "  %-8s oid=%d clock=%d v1=%d v2=%d\n",
					core.EventName(evt.EventType), evt.OID, evt.Clock, evt.Value1, evt.Value2)
			}

		case "clear":
			core.ClearTimingRing()

		default:
			fmt.Fprintf(out, "Unknown command: %s (type 'help' for available commands)\n", cmd)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "\nAvailable commands:")
	fmt.Fprintln(out, "  help               - Show this help message")
	fmt.Fprintln(out, "  list               - List bindings")
	fmt.Fprintln(out, "  press [name]       - Type a binding's reading")
	fmt.Fprintln(out, "  state [name]       - Show a binding's state")
	fmt.Fprintln(out, "  cancel [name]      - Cancel a sequence in flight")
	fmt.Fprintln(out, "  set <name> <value> - Change a static reading")
	fmt.Fprintln(out, "  dump               - Print the timing ring")
	fmt.Fprintln(out, "  clear              - Clear the timing ring")
	fmt.Fprintln(out, "  quit/exit/q        - Exit the program")
	fmt.Fprintln(out)
}
