// Package logging sets up zerolog for the eeprog CLI and bridges it to the
// programmer.Logger interface.
package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel   = "EEPROG_LOG_LEVEL"
	EnvLogNoColor = "EEPROG_LOG_NOCOLOR"
)

// Options configure InitLogger. Environment variables win over these.
type Options struct {
	Level   string
	NoColor bool
	Out     io.Writer
}

// InitLogger builds a console logger, installs it as the global zerolog
// logger and returns it.
func InitLogger(app string, opts Options) zerolog.Logger {
	applyEnvOverrides(&opts)

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	level, ok := parseLevel(opts.Level)
	if !ok {
		level = zerolog.InfoLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    opts.NoColor,
	}
	logger := zerolog.New(output).Level(level).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

func applyEnvOverrides(opts *Options) {
	if raw := os.Getenv(EnvLogLevel); raw != "" {
		if _, ok := parseLevel(raw); ok {
			opts.Level = raw
		}
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		opts.NoColor = v
	}
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

// ValidLevel reports whether raw names a log level.
func ValidLevel(raw string) bool {
	_, ok := parseLevel(raw)
	return ok
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// Adapter satisfies programmer.Logger on top of a zerolog.Logger.
type Adapter struct {
	logger zerolog.Logger
}

func NewAdapter(logger zerolog.Logger) *Adapter {
	return &Adapter{logger: logger}
}

func (a *Adapter) Debug(msg string, keysAndValues ...interface{}) {
	a.logger.Debug().Fields(fields(keysAndValues)).Msg(msg)
}

func (a *Adapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info().Fields(fields(keysAndValues)).Msg(msg)
}

func (a *Adapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error().Fields(fields(keysAndValues)).Msg(msg)
}

// fields turns alternating key/value pairs into a map. A trailing key with
// no value is logged under "!BADKEY".
func fields(kv []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(kv)/2+1)
	for i := 0; i < len(kv); i += 2 {
		if i+1 >= len(kv) {
			out["!BADKEY"] = kv[i]
			break
		}
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		out[key] = kv[i+1]
	}
	return out
}
