// Package cellkit implements a toolkit to build transactions for a cell-based
// ledger. It provides an in-memory ledger to simulate the chain state, a
// resolver and a verifier adapter to check transactions against a script
// engine, and a generator pipeline to assemble transactions from contract
// rules.
//
// The package itself only holds the global logger and the metrics collectors
// shared by the sub-packages.
package cellkit

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var logout = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance. By default, it only prints
// error level messages but it can be changed through a environment variable
// "LLVL" with one of the levels "trace", "debug", "info", "warn", "error".
var Logger = zerolog.New(logout).Level(defaultLevel).
	With().Timestamp().Logger().
	With().Caller().Logger()

var defaultLevel = zerolog.ErrorLevel

// PromCollectors exposes Prometheus collectors created in the packages. The
// collectors are registered by the package that defines them and can then be
// served by the application.
var PromCollectors []prometheus.Collector

func init() {
	lvl := os.Getenv("LLVL")

	switch lvl {
	case "error":
		defaultLevel = zerolog.ErrorLevel
	case "warn":
		defaultLevel = zerolog.WarnLevel
	case "info":
		defaultLevel = zerolog.InfoLevel
	case "debug":
		defaultLevel = zerolog.DebugLevel
	case "trace":
		defaultLevel = zerolog.TraceLevel
	case "":
		defaultLevel = zerolog.ErrorLevel
	default:
		defaultLevel = zerolog.TraceLevel
	}

	Logger = Logger.Level(defaultLevel)
}
