package fanout

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/cpu"
)

// Pool is a fixed-size pool of worker goroutines draining one shared FIFO
// task queue.
//
// The queue, the shutdown latch, the live-worker count and the outstanding
// task count are all guarded by mu. mu is only ever held for O(1) critical
// sections and never while a task runs, so tasks may freely submit more
// tasks.
type Pool struct {
	config  Config
	workers []*worker

	mu          sync.Mutex
	work        *sync.Cond // queue non-empty or shutdown
	idle        *sync.Cond // outstanding dropped to zero
	tasks       *taskQueue
	shutdown    bool
	live        int // workers still inside their loop
	outstanding int // submitted but not yet finished

	wg sync.WaitGroup

	_ cpu.CacheLinePad

	// Metrics
	metrics poolMetrics

	_ cpu.CacheLinePad

	// Latency tracking
	latencySum   uint64 // atomic, nanoseconds
	latencyCount uint64 // atomic
	latencyMax   uint64 // atomic, nanoseconds
}

// poolMetrics tracks pool-wide statistics
type poolMetrics struct {
	submitted uint64 // atomic
	completed uint64 // atomic
	failed    uint64 // atomic
	rejected  uint64 // atomic
	running   int64  // atomic
}

// NewPool starts a pool with exactly numWorkers worker goroutines.
//
// numWorkers may be zero. Such a pool accepts tasks but never runs them, and
// Wait blocks forever once anything is queued. This is a caller hazard and is
// deliberately not rejected. A negative count is an invalid configuration.
//
// Example:
//
//	pool, err := fanout.NewPool(fanout.DefaultNumWorkers(),
//	    fanout.WithPanicHandler(func(r interface{}) { log.Println(r) }),
//	)
func NewPool(numWorkers int, opts ...Option) (*Pool, error) {
	cfg := defaultConfig(numWorkers)

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	pool := &Pool{
		config:  cfg,
		workers: make([]*worker, cfg.NumWorkers),
		tasks:   newTaskQueue(cfg.InitialQueueCapacity),
		live:    cfg.NumWorkers,
	}
	pool.work = sync.NewCond(&pool.mu)
	pool.idle = sync.NewCond(&pool.mu)

	for i := 0; i < cfg.NumWorkers; i++ {
		pool.workers[i] = newWorker(i, pool)
	}

	for _, w := range pool.workers {
		pool.wg.Add(1)
		go func(wk *worker) {
			defer pool.wg.Done()
			wk.run()
		}(w)
	}

	return pool, nil
}

// Submit appends task to the tail of the queue and wakes one idle worker.
// It never blocks beyond a short critical section and the queue has no
// bound.
//
// Submit is safe for concurrent use, including from inside running tasks.
// Tasks submitted while the pool is draining after Shutdown still run.
//
// Returns ErrNilTask if task is nil.
// Returns ErrPoolShutdown if the pool is shut down and no worker is left.
func (p *Pool) Submit(task func()) error {
	if task == nil {
		return ErrNilTask
	}

	p.mu.Lock()
	if p.shutdown && p.live == 0 {
		p.mu.Unlock()
		atomic.AddUint64(&p.metrics.rejected, 1)
		return ErrPoolShutdown
	}
	p.tasks.push(task)
	p.outstanding++
	p.mu.Unlock()

	atomic.AddUint64(&p.metrics.submitted, 1)
	p.work.Signal()

	return nil
}

// Wait blocks until every submitted task, including tasks submitted by
// other tasks, has finished. The pool remains usable afterwards.
//
// Tasks submitted concurrently with Wait from outside the pool may or may
// not be waited for.
func (p *Pool) Wait() {
	p.mu.Lock()
	for p.outstanding > 0 {
		p.idle.Wait()
	}
	p.mu.Unlock()
}

// Shutdown sets the shutdown latch, wakes every worker and blocks until all
// of them have exited. Workers drain the queue before exiting, so every
// task queued before or during the drain runs to completion.
//
// Shutdown has no deadline. Multiple and concurrent calls are safe; each
// call returns once the workers are gone.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if !p.shutdown {
		p.shutdown = true
		p.config.Logger.Debugf("pool shutdown: draining %d queued tasks with %d workers",
			p.tasks.len(), p.live)
	}
	p.mu.Unlock()

	p.work.Broadcast()
	p.wg.Wait()
}

// IsShutdown returns true once Shutdown has been called.
func (p *Pool) IsShutdown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shutdown
}

// NumWorkers returns the number of workers the pool was created with.
func (p *Pool) NumWorkers() int {
	return len(p.workers)
}

// Stats returns a snapshot of pool statistics.
//
// Counters are read without stopping the pool, so values may be slightly
// inconsistent with each other while tasks are running.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	queued := p.tasks.len()
	highWater := p.tasks.highWater
	capacity := p.tasks.capacity()
	live := p.live
	outstanding := p.outstanding
	p.mu.Unlock()

	workerStats := make([]WorkerStats, len(p.workers))
	for i, wk := range p.workers {
		workerStats[i] = WorkerStats{
			WorkerID:      i,
			TasksExecuted: atomic.LoadUint64(&wk.tasksExecuted),
			TasksFailed:   atomic.LoadUint64(&wk.tasksFailed),
			State:         wk.getState().String(),
		}
	}

	latencyCount := atomic.LoadUint64(&p.latencyCount)
	latencyAvg := time.Duration(0)
	latencyMax := time.Duration(0)

	if latencyCount > 0 {
		latencySum := atomic.LoadUint64(&p.latencySum)
		latencyAvg = time.Duration(latencySum / latencyCount)
		latencyMax = time.Duration(atomic.LoadUint64(&p.latencyMax))
	}

	return Stats{
		Submitted:      atomic.LoadUint64(&p.metrics.submitted),
		Completed:      atomic.LoadUint64(&p.metrics.completed),
		Failed:         atomic.LoadUint64(&p.metrics.failed),
		Rejected:       atomic.LoadUint64(&p.metrics.rejected),
		Running:        atomic.LoadInt64(&p.metrics.running),
		Queued:         queued,
		QueueHighWater: highWater,
		QueueCapacity:  capacity,
		Outstanding:    outstanding,
		NumWorkers:     len(p.workers),
		LiveWorkers:    live,
		WorkerStats:    workerStats,
		LatencyAvg:     latencyAvg,
		LatencyMax:     latencyMax,
	}
}

// taskDone is called by a worker, with mu held, after each task.
func (p *Pool) taskDone() {
	p.outstanding--
	if p.outstanding == 0 {
		p.idle.Broadcast()
	}
}

// recordLatency records task execution latency in nanoseconds
func (p *Pool) recordLatency(duration time.Duration) {
	nanos := uint64(duration.Nanoseconds())

	atomic.AddUint64(&p.latencySum, nanos)
	atomic.AddUint64(&p.latencyCount, 1)

	for {
		current := atomic.LoadUint64(&p.latencyMax)
		if nanos <= current {
			break
		}
		if atomic.CompareAndSwapUint64(&p.latencyMax, current, nanos) {
			break
		}
	}
}
