// Package log wraps zerolog the way the teacher's own log package does:
// a handful of category constructors that pre-tag a logger with a
// module/event field, plus a package-level level that the CLI's
// --verbose flag drives.
package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}).With().Timestamp().Logger()
}

// SetLevel maps the CLI's 0-5 --verbose scale onto zerolog's levels.
// 0 is the quietest (errors only), 5 is the loudest (trace).
func SetLevel(verbosity int) {
	switch {
	case verbosity <= 0:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case verbosity == 1:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case verbosity == 2:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case verbosity == 3:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}
}

// Node returns a logger tagged for node lifecycle events (startup,
// shutdown, fatal init errors).
func Node() zerolog.Logger {
	return logger.With().Str("module", "node").Logger()
}

// Consensus returns a logger tagged for a named consensus-engine event
// (e.g. "round_advanced", "fame_decided", "round_received").
func Consensus(event string) zerolog.Logger {
	return logger.With().Str("module", "consensus").Str("event", event).Logger()
}

// Gossip returns a logger tagged for a named gossip-loop event (e.g.
// "pull", "push", "merge").
func Gossip(event string) zerolog.Logger {
	return logger.With().Str("module", "gossip").Str("event", event).Logger()
}

// RPC returns a logger tagged for a named RPC-handler event (e.g.
// "pull", "push", "fast_sync", "ask_join").
func RPC(event string) zerolog.Logger {
	return logger.With().Str("module", "rpc").Str("event", event).Logger()
}

// Sync returns a logger tagged for a named fast-sync event.
func Sync(event string) zerolog.Logger {
	return logger.With().Str("module", "sync").Str("event", event).Logger()
}

// Info logs directly at info level with no module tag, for top-level
// process messages (mirrors the teacher's bare log.Info()).
func Info() *zerolog.Event {
	return logger.Info()
}

// Fatal logs at fatal level and terminates the process, for the fatal
// error category of §7 (bind failure, key generation failure).
func Fatal() *zerolog.Event {
	return logger.Fatal()
}
