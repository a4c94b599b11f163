// Package logging provides the shared zap logger construction used across
// the harvester core: the store, runtime gate, fetch scheduler, host budget,
// queue keeper and seeder all log through a logger scoped to their component.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Component names the subsystem a logger is scoped to. Kept as a plain
// string rather than an enum of constants: new components are added far
// more often here than log levels change.
type Component string

const (
	ComponentStore     Component = "store"
	ComponentGate      Component = "runtime_gate"
	ComponentScheduler Component = "fetch_scheduler"
	ComponentHostBudget Component = "host_budget"
	ComponentQueue     Component = "queue_keeper"
	ComponentSeeder    Component = "seeder"
	ComponentCLI       Component = "cli"
)

var (
	mu     sync.Mutex
	base   *zap.Logger
	debug  bool
)

// Configure builds the process-wide base logger. Safe to call more than
// once; the most recent call wins. verbose lowers the level to debug,
// mirroring how the CLI's --verbose flag behaves.
func Configure(verbose bool) error {
	mu.Lock()
	defer mu.Unlock()

	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	base = l
	debug = verbose
	return nil
}

// For returns a logger scoped to the named component. If Configure has not
// been called yet, a development logger is lazily constructed so tests and
// library callers never see a nil logger.
func For(c Component) *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if base == nil {
		base, _ = zap.NewDevelopment()
	}
	return base.With(zap.String("component", string(c)))
}

// Sync flushes any buffered log entries. Call from main before exit.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	if base != nil {
		_ = base.Sync()
	}
}

// Debug reports whether verbose logging is active, for call sites that want
// to skip building an expensive field set on the hot path.
func Debug() bool {
	mu.Lock()
	defer mu.Unlock()
	return debug
}
