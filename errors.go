package fanout

import "fmt"

// Common errors returned by the pool.
var (
	// ErrPoolShutdown is returned when a task is submitted after the pool has
	// shut down and no worker is left to run it.
	//
	// Example:
	//  pool.Shutdown()
	//  err := pool.Submit(task)
	//  if errors.Is(err, fanout.ErrPoolShutdown) {
	//      log.Println("Cannot submit: pool is shutdown")
	//  }
	ErrPoolShutdown = &PoolError{msg: "pool is shutdown"}

	// ErrNilTask is returned when attempting to submit a nil task function.
	ErrNilTask = &PoolError{msg: "task is nil"}

	// ErrInvalidConfig is the root of every configuration error returned by
	// NewPool. Use errors.Is to detect it.
	ErrInvalidConfig = &PoolError{msg: "invalid config"}
)

// PoolError represents an error that occurred within the pool.
// It supports errors.Is and errors.As through Unwrap.
type PoolError struct {
	msg string // Human-readable error message
	err error  // Underlying error (if any)
}

// Error returns a formatted error message.
// If an underlying error exists, it is included in the output.
func (e *PoolError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("fanout: %s: %v", e.msg, e.err)
	}
	return fmt.Sprintf("fanout: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e *PoolError) Unwrap() error {
	return e.err
}

// errInvalidConfig creates an error for invalid pool configuration.
// It unwraps to ErrInvalidConfig.
func errInvalidConfig(msg string) error {
	return &PoolError{msg: msg, err: ErrInvalidConfig}
}

// PanicError wraps a value recovered from a panicking task together with the
// stack of the worker that ran it.
type PanicError struct {
	WorkerID int
	Value    interface{}
	Stack    string
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("worker %d: task panic: %v", p.WorkerID, p.Value)
}
