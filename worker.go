package fanout

import (
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"
)

// WorkerState represents the current state of a worker
type WorkerState int32

const (
	// StateIdle means the worker is waiting for a task or for shutdown
	StateIdle WorkerState = iota
	// StateRunning means the worker is executing a task
	StateRunning
	// StateStopped means the worker has left its loop
	StateStopped
)

// String returns the upper-case name of the state.
func (s WorkerState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// worker is a single goroutine consuming the pool's shared queue
type worker struct {
	id   int
	pool *Pool

	state atomic.Int32 // WorkerState

	// Metrics
	tasksExecuted uint64 // atomic
	tasksFailed   uint64 // atomic
}

func newWorker(id int, pool *Pool) *worker {
	w := &worker{
		id:   id,
		pool: pool,
	}
	w.setState(StateIdle)
	return w
}

// run starts the worker: the start hook fires once, then serve takes over.
func (w *worker) run() {
	p := w.pool

	if p.config.OnWorkerStart != nil {
		p.config.OnWorkerStart(w.id)
	}
	p.config.Logger.Debugf("worker %d started", w.id)

	w.serve()
}

// serve runs the loop until shutdown, then fires the stop hook. A task that
// ends its goroutine with runtime.Goexit unwinds through serve, which then
// continues the same worker on a fresh goroutine so the pool keeps its size.
func (w *worker) serve() {
	p := w.pool

	if p.config.PinWorkerThreads {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	exited := false
	defer func() {
		if exited {
			return
		}
		p.config.Logger.Errorf("worker %d: task exited its goroutine, restarting worker", w.id)
		// The caller's wg.Done has not run yet, so the counter is above zero.
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.serve()
		}()
	}()

	w.loop()
	exited = true

	w.setState(StateStopped)
	p.config.Logger.Debugf("worker %d stopped after %d tasks", w.id, atomic.LoadUint64(&w.tasksExecuted))

	if p.config.OnWorkerStop != nil {
		p.config.OnWorkerStop(w.id)
	}
}

// loop waits until the queue is non-empty or shutdown is set, takes at most
// one task and runs it without the lock. It returns only when shutdown is
// set and the queue is empty.
func (w *worker) loop() {
	p := w.pool

	for {
		p.mu.Lock()
		for p.tasks.isEmpty() && !p.shutdown {
			w.setState(StateIdle)
			p.work.Wait()
		}

		if p.tasks.isEmpty() {
			// shutdown observed with nothing left to drain
			p.live--
			p.mu.Unlock()
			return
		}

		task := p.tasks.pop()
		p.mu.Unlock()

		w.executeTask(task)
	}
}

// executeTask runs a task and always retires it from the outstanding count,
// whether it returns, panics or calls runtime.Goexit. A panicking task is
// logged, counted and handed to the PanicHandler; the worker carries on.
func (w *worker) executeTask(task func()) {
	p := w.pool

	w.setState(StateRunning)
	atomic.AddInt64(&p.metrics.running, 1)
	start := time.Now()

	defer func() {
		p.mu.Lock()
		p.taskDone()
		p.mu.Unlock()
	}()

	normalReturn := false
	defer func() {
		p.recordLatency(time.Since(start))
		atomic.AddInt64(&p.metrics.running, -1)
		atomic.AddUint64(&w.tasksExecuted, 1)
		atomic.AddUint64(&p.metrics.completed, 1)

		if normalReturn {
			return
		}

		atomic.AddUint64(&w.tasksFailed, 1)
		atomic.AddUint64(&p.metrics.failed, 1)

		r := recover()
		if r == nil {
			p.config.Logger.Errorf("worker %d: task called runtime.Goexit", w.id)
			return
		}

		perr := &PanicError{WorkerID: w.id, Value: r, Stack: string(debug.Stack())}
		p.config.Logger.Errorf("%v\n%s", perr, perr.Stack)
		w.callPanicHandler(r)
	}()

	task()
	normalReturn = true
}

// callPanicHandler shields the worker from a handler that panics itself.
func (w *worker) callPanicHandler(r interface{}) {
	p := w.pool
	if p.config.PanicHandler == nil {
		return
	}

	defer func() {
		if hr := recover(); hr != nil {
			p.config.Logger.Errorf("worker %d: panic handler panicked: %v", w.id, hr)
		}
	}()
	p.config.PanicHandler(r)
}

// getState returns the current worker state
func (w *worker) getState() WorkerState {
	return WorkerState(w.state.Load())
}

func (w *worker) setState(s WorkerState) {
	w.state.Store(int32(s))
}
