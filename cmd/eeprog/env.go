package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/moffa90/go-eeprom/devicesim"
	"github.com/moffa90/go-eeprom/internal/config"
	"github.com/moffa90/go-eeprom/internal/logging"
	"github.com/moffa90/go-eeprom/internal/metrics"
	"github.com/moffa90/go-eeprom/link"
	"github.com/moffa90/go-eeprom/programmer"
)

// env is the per-invocation state shared by the commands.
type env struct {
	name   string
	stdin  *bufio.Reader
	stdout io.Writer
	stderr io.Writer

	flags globalFlags
	cfg   config.Config

	log     zerolog.Logger
	metrics *metrics.Recorder
	closer  io.Closer
}

type globalFlags struct {
	config          string
	port            string
	baud            int
	driver          string
	timeout         time.Duration
	yes             bool
	simulate        bool
	metricsTextfile string
	logLevel        string
}

// newFlagSet returns a flag set for one command with the global flags
// already registered.
func (e *env) newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("eeprog "+e.name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)

	fs.StringVar(&e.flags.config, "config", "", "YAML or TOML config file")
	fs.StringVar(&e.flags.port, "port", "", "serial port (e.g. /dev/ttyACM0, COM13)")
	fs.IntVar(&e.flags.baud, "baud", 0, "baud rate (default 115200)")
	fs.StringVar(&e.flags.driver, "driver", "", "serial driver: bugst or goburrow")
	fs.DurationVar(&e.flags.timeout, "timeout", 0, "read timeout per byte (default 1s)")
	fs.BoolVar(&e.flags.yes, "yes", false, "confirm the supply voltage without prompting")
	fs.BoolVar(&e.flags.simulate, "simulate", false, "talk to an in-memory device instead of a port")
	fs.StringVar(&e.flags.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file on exit")
	fs.StringVar(&e.flags.logLevel, "log-level", "", "trace, debug, info, warn or error")
	return fs
}

// parse parses args, resolves the configuration and starts logging.
func (e *env) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected argument %q", errUsage, fs.Arg(0))
	}

	cfg := config.Default()
	if e.flags.config != "" {
		loaded, err := config.Load(e.flags.config)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = e.flags.port
		case "baud":
			cfg.BaudRate = e.flags.baud
		case "driver":
			cfg.Driver = e.flags.driver
		case "timeout":
			cfg.Timeout = e.flags.timeout
		case "metrics-textfile":
			cfg.MetricsTextfile = e.flags.metricsTextfile
		case "log-level":
			cfg.LogLevel = e.flags.logLevel
		}
	})
	if e.flags.simulate && cfg.Port == "" {
		cfg.Port = "simulator"
	}

	if !logging.ValidLevel(cfg.LogLevel) {
		return fmt.Errorf("%w: unknown log level %q", errUsage, cfg.LogLevel)
	}
	if err := config.Validate(&cfg); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	e.cfg = cfg
	e.log = logging.InitLogger("eeprog", logging.Options{
		Level:   cfg.LogLevel,
		NoColor: cfg.NoColor,
		Out:     e.stderr,
	})
	e.metrics = metrics.New(cfg.Port)
	return nil
}

// session opens the channel and returns a session on it.
func (e *env) session(extra ...programmer.Option) (*programmer.Session, error) {
	var channel io.ReadWriter
	if e.flags.simulate {
		channel = devicesim.New(devicesim.WithLogger(e.log))
		e.log.Info().Msg("using simulated device")
	} else {
		driver, err := link.ParseDriver(e.cfg.Driver)
		if err != nil {
			return nil, err
		}
		port, err := link.Open(link.Config{
			Port:        e.cfg.Port,
			BaudRate:    e.cfg.BaudRate,
			Timeout:     e.cfg.Timeout,
			Driver:      driver,
			SettleDelay: e.cfg.SettleDelay,
		})
		if err != nil {
			return nil, err
		}
		e.closer = port
		channel = port
		e.log.Info().Str("port", e.cfg.Port).Int("baud", e.cfg.BaudRate).Str("driver", string(driver)).Msg("port open")
	}

	opts := []programmer.Option{
		programmer.WithLogger(logging.NewAdapter(e.log)),
		programmer.WithMetrics(e.metrics),
		programmer.WithCommandDelay(e.cfg.CommandDelay),
		programmer.WithMissingLimit(e.cfg.MissingLimit),
		programmer.WithVerifyAfterWrite(e.cfg.Verify),
		programmer.WithProgressCallback(e.progress),
	}
	if !e.flags.yes {
		opts = append(opts, programmer.WithConfirm(e.confirm))
	}
	opts = append(opts, extra...)
	return programmer.New(channel, opts...), nil
}

func (e *env) progress(p programmer.Progress) {
	e.log.Debug().
		Str("phase", p.Phase).
		Int("current", p.Current).
		Int("total", p.Total).
		Float64("percent", p.Percentage).
		Dur("elapsed", p.Elapsed).
		Msg("progress")
}

// confirm asks on stdin whether the supply is set for reading.
func (e *env) confirm(start, end uint16) bool {
	fmt.Fprintf(e.stderr, "Reading 0x%04X-0x%04X. Is the programmer supply set to 5V? [y/N] ", start, end)
	line, err := e.stdin.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(e.stderr)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// finish closes the port and writes the metrics textfile.
func (e *env) finish() error {
	if e.closer != nil {
		if err := e.closer.Close(); err != nil {
			e.log.Warn().Err(err).Msg("closing port")
		}
	}
	if e.metrics != nil && e.cfg.MetricsTextfile != "" {
		if err := e.metrics.WriteTextfile(e.cfg.MetricsTextfile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// addrValue is a flag holding a 16-bit address in decimal or 0x hex.
type addrValue struct {
	v   uint16
	set bool
}

func (a *addrValue) String() string {
	if a == nil || !a.set {
		return ""
	}
	return fmt.Sprintf("0x%04X", a.v)
}

func (a *addrValue) Set(s string) error {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	if err != nil {
		return fmt.Errorf("invalid address %q", s)
	}
	a.v, a.set = uint16(n), true
	return nil
}

// byteValue is a flag holding one byte in decimal or 0x hex.
type byteValue struct {
	v   byte
	set bool
}

func (b *byteValue) String() string {
	if b == nil || !b.set {
		return ""
	}
	return fmt.Sprintf("0x%02X", b.v)
}

func (b *byteValue) Set(s string) error {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8)
	if err != nil {
		return fmt.Errorf("invalid byte %q", s)
	}
	b.v, b.set = byte(n), true
	return nil
}
