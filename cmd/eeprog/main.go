// Command eeprog drives an EEPROM programmer bridge over a serial port.
//
// Usage:
//
//	eeprog <command> [flags]
//
// Commands: handshake, write, read, write-byte, read-byte, verify, fill,
// version.
// Every command accepts the connection flags (-port, -baud, -driver,
// -timeout, -config) plus -yes, -simulate, -metrics-textfile and
// -log-level.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"

	"github.com/rs/zerolog"

	"github.com/moffa90/go-eeprom/protocol"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type command struct {
	summary string
	run     func(ctx context.Context, env *env, args []string) error
}

var commands = map[string]command{
	"handshake":  {summary: "check that the bridge answers", run: runHandshake},
	"write":      {summary: "write a raw or Intel HEX image", run: runWrite},
	"read":       {summary: "read an address range", run: runRead},
	"write-byte": {summary: "write a single byte", run: runWriteByte},
	"read-byte":  {summary: "read a single byte", run: runReadByte},
	"verify":     {summary: "compare the device with an image", run: runVerify},
	"fill":       {summary: "fill an address range with one value", run: runFill},
	"version":    {summary: "print the bridge protocol version", run: runVersion},
}

// errUsage marks a problem with the command line rather than the device.
var errUsage = errors.New("usage error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "-help" || args[0] == "help" {
		usage(stderr)
		if len(args) == 0 {
			return exitUsage
		}
		return exitOK
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "eeprog: unknown command %q\n\n", args[0])
		usage(stderr)
		return exitUsage
	}

	e := &env{
		name:   args[0],
		stdin:  bufio.NewReader(stdin),
		stdout: stdout,
		stderr: stderr,
		log:    zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: true}),
	}
	err := cmd.run(ctx, e, args[1:])
	if flushErr := e.finish(); flushErr != nil && err == nil {
		err = flushErr
	}

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "eeprog %s: %v\n", args[0], err)
		return exitUsage
	default:
		e.log.Error().Err(err).Str("command", args[0]).Msg("failed")
		return exitFailure
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: eeprog <command> [flags]")
	fmt.Fprintf(w, "bridge protocol %s\n", protocol.ProtocolVersion)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-11s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "run 'eeprog <command> -h' for command flags")
}
