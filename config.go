package fanout

import (
	"runtime"

	"github.com/tahsin716/fanout/logger"
)

// Logger is the logging surface the pool needs. *logger.Logger satisfies it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Config contains all configuration options for the pool.
type Config struct {
	// NumWorkers is the number of worker goroutines.
	// Zero is accepted: tasks are queued but never executed.
	NumWorkers int

	// InitialQueueCapacity is the starting size of the task ring buffer.
	// It is rounded up to a power of two. The queue grows without bound.
	// Defaults to 1024
	InitialQueueCapacity int

	// PanicHandler is called with the recovered value when a task panics.
	// The panic is always logged; the worker keeps running either way.
	// A panic inside the handler is recovered and logged.
	PanicHandler func(interface{})

	// OnWorkerStart is called when a worker starts
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called when a worker exits its loop
	OnWorkerStop func(workerID int)

	// PinWorkerThreads locks each worker goroutine to its own OS thread
	// for the worker's lifetime.
	PinWorkerThreads bool

	// Logger receives task panics (Errorf) and worker lifecycle (Debugf).
	// Defaults to an ERROR-level logger on stderr.
	Logger Logger
}

// Option configures a Pool.
type Option func(*Config)

// DefaultNumWorkers returns the hardware concurrency of the machine.
func DefaultNumWorkers() int {
	return runtime.NumCPU()
}

func defaultConfig(numWorkers int) Config {
	return Config{
		NumWorkers:           numWorkers,
		InitialQueueCapacity: 1024,
		Logger:               logger.New(logger.LevelError),
	}
}

func (c *Config) validate() error {
	if c.NumWorkers < 0 {
		return errInvalidConfig("NumWorkers must be >= 0")
	}

	if c.InitialQueueCapacity <= 0 {
		return errInvalidConfig("InitialQueueCapacity must be > 0")
	}

	if c.Logger == nil {
		return errInvalidConfig("Logger must not be nil")
	}

	return nil
}

// WithInitialQueueCapacity sets the starting capacity of the task queue.
func WithInitialQueueCapacity(n int) Option {
	return func(c *Config) {
		c.InitialQueueCapacity = n
	}
}

// WithPanicHandler sets the function called when a task panics.
func WithPanicHandler(handler func(interface{})) Option {
	return func(c *Config) {
		c.PanicHandler = handler
	}
}

// WithWorkerHooks sets callbacks run when each worker starts and stops.
// Either may be nil.
func WithWorkerHooks(onStart, onStop func(workerID int)) Option {
	return func(c *Config) {
		c.OnWorkerStart = onStart
		c.OnWorkerStop = onStop
	}
}

// WithPinWorkerThreads locks every worker to an OS thread.
func WithPinWorkerThreads(pin bool) Option {
	return func(c *Config) {
		c.PinWorkerThreads = pin
	}
}

// WithLogger sets the logger used by the pool.
func WithLogger(l Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
