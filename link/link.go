// Package link opens the serial connection to the programmer bridge and
// presents it as the byte channel the programmer package expects: Read
// blocks at most Timeout and returns (0, nil) when nothing arrived.
package link

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Driver selects the serial library used to open the port.
type Driver string

const (
	DriverBugst    Driver = "bugst"
	DriverGoburrow Driver = "goburrow"
)

const (
	DefaultBaudRate = 115200
	DefaultTimeout  = time.Second
)

var (
	ErrNoPort        = errors.New("link: no serial port given")
	ErrUnknownDriver = errors.New("link: unknown driver")
)

// Config describes the serial connection. The bridge always runs 8N1.
type Config struct {
	Port     string
	BaudRate int
	Timeout  time.Duration
	Driver   Driver

	// SettleDelay is waited after opening, for bridges that reset on open
	SettleDelay time.Duration
}

// Port is an open serial connection.
type Port interface {
	io.ReadWriteCloser

	// ResetInput discards bytes received but not yet read
	ResetInput() error
}

// ParseDriver maps a flag or config value to a Driver. The empty string is
// DriverBugst.
func ParseDriver(s string) (Driver, error) {
	switch Driver(strings.ToLower(strings.TrimSpace(s))) {
	case "", DriverBugst:
		return DriverBugst, nil
	case DriverGoburrow:
		return DriverGoburrow, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDriver, s)
	}
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Driver == "" {
		c.Driver = DriverBugst
	}
	return c
}

// Validate checks a config after defaults are applied.
func (c Config) Validate() error {
	c = c.withDefaults()
	if c.Port == "" {
		return ErrNoPort
	}
	if c.BaudRate < 0 {
		return fmt.Errorf("link: invalid baud rate %d", c.BaudRate)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("link: invalid timeout %s", c.Timeout)
	}
	if _, err := ParseDriver(string(c.Driver)); err != nil {
		return err
	}
	return nil
}

// Open opens and configures the port, then clears any stale input.
//
// Example:
//
//	port, err := link.Open(link.Config{Port: "/dev/ttyACM0"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
func Open(cfg Config) (Port, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	var (
		port Port
		err  error
	)
	switch cfg.Driver {
	case DriverGoburrow:
		port, err = openGoburrow(cfg)
	default:
		port, err = openBugst(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("link: open %s: %w", cfg.Port, err)
	}

	if cfg.SettleDelay > 0 {
		time.Sleep(cfg.SettleDelay)
	}
	if err := port.ResetInput(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("link: reset input on %s: %w", cfg.Port, err)
	}
	return port, nil
}
