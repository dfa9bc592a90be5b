package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/legion-toolkit/legion-core/pkg/device"
	"github.com/legion-toolkit/legion-core/pkg/inspect"
	"github.com/legion-toolkit/legion-core/pkg/oplog"
)

// shell handles the interactive command loop for legionctl.
type shell struct {
	dctx      *device.Context
	formatter *inspect.Formatter
	rl        *readline.Instance
}

func newShell(dctx *device.Context) (*shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "legion> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &shell{
		dctx:      dctx,
		formatter: inspect.NewFormatter(),
		rl:        rl,
	}, nil
}

func (s *shell) run() error {
	defer s.rl.Close()

	s.printHelp()

	for {
		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return nil
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()

		case "show", "s":
			s.cmdShow()

		case "read", "r":
			s.cmdRead(args)

		case "write", "w":
			s.cmdWrite(args)

		case "caps", "c":
			s.cmdCaps()

		case "stats":
			s.cmdStats()

		case "trace", "t":
			s.cmdTrace(args)

		case "quit", "exit", "q":
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return nil

		default:
			fmt.Fprintf(s.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.rl.Stdout(), `
Legion Control Commands:
  show               - List every attribute with its current value
  read <attr>        - Read one attribute
  write <attr> <val> - Write a writable attribute
  caps               - Show the probed capability set
  stats              - Show firmware traffic counters
  trace <file>       - Replay a CBOR trace log
  help               - Show this help
  quit               - Exit`)
}

func (s *shell) cmdShow() {
	table, err := s.dctx.Attributes()
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprint(s.rl.Stdout(), s.formatter.FormatTable(context.Background(), table))
}

func (s *shell) cmdRead(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: read <attr>")
		return
	}
	table, err := s.dctx.Attributes()
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	attr, err := table.Get(args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	value, err := table.Read(context.Background(), args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintln(s.rl.Stdout(), s.formatter.FormatValue(value, attr.Metadata().Unit))
}

func (s *shell) cmdWrite(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: write <attr> <value>")
		return
	}
	value, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Invalid value %q\n", args[1])
		return
	}
	table, err := s.dctx.Attributes()
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if err := table.Write(context.Background(), args[0], value); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "%s = %d\n", args[0], value)
}

func (s *shell) cmdCaps() {
	fmt.Fprint(s.rl.Stdout(), s.formatter.FormatCapabilities(s.dctx.Capabilities()))
}

func (s *shell) cmdStats() {
	stats, err := s.dctx.Stats()
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintln(s.rl.Stdout(), s.formatter.FormatStats(stats))
}

// cmdTrace replays a CBOR trace log, one line per event.
func (s *shell) cmdTrace(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: trace <file>")
		return
	}
	reader, err := oplog.NewReader(args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
			return
		}
		fmt.Fprintln(s.rl.Stdout(), formatEvent(event))
		count++
	}
	fmt.Fprintf(s.rl.Stdout(), "%d events\n", count)
}

func formatEvent(e oplog.Event) string {
	ts := e.Timestamp.Format(time.RFC3339Nano)
	switch {
	case e.Op != nil:
		arg := fmt.Sprintf("arg=%d", e.Op.Arg)
		if e.Op.Redacted {
			arg = "arg=<redacted>"
		}
		return fmt.Sprintf("%s %s ch=%d %s %s status=%d attempts=%d",
			ts, e.Kind, e.Op.Channel, e.Op.Op, arg, e.Op.Status, e.Op.Attempts)
	case e.State != nil:
		return fmt.Sprintf("%s %s %s: %s -> %s",
			ts, e.Kind, e.State.Entity, e.State.OldState, e.State.NewState)
	case e.Detection != nil:
		return fmt.Sprintf("%s %s product=%q marker=%q confidence=%s",
			ts, e.Kind, e.Detection.Product, e.Detection.Marker, e.Detection.Confidence)
	default:
		return fmt.Sprintf("%s %s", ts, e.Kind)
	}
}
