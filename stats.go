package fanout

import "time"

// Stats contains statistics about pool operation.
// All values are snapshots taken when Stats() is called.
//
// Example:
//
//	stats := pool.Stats()
//	fmt.Printf("Completed: %d/%d, peak queue depth: %d\n",
//	    stats.Completed, stats.Submitted, stats.QueueHighWater)
type Stats struct {
	// Submitted is the number of tasks accepted by Submit.
	Submitted uint64

	// Completed is the number of tasks that have finished execution,
	// including tasks that panicked.
	Completed uint64

	// Failed is the number of tasks that panicked. They are also counted
	// in Completed.
	Failed uint64

	// Rejected is the number of Submit calls refused with ErrPoolShutdown.
	Rejected uint64

	// Running is the number of tasks executing right now.
	Running int64

	// Queued is the number of tasks waiting in the queue.
	Queued int

	// QueueHighWater is the deepest the queue has ever been. The queue is
	// unbounded, so this is the only view of how far it grew.
	QueueHighWater int

	// QueueCapacity is the current size of the queue's ring buffer.
	QueueCapacity int

	// Outstanding is the number of tasks submitted but not yet finished,
	// i.e. queued plus running. Wait returns when it reaches zero.
	Outstanding int

	// NumWorkers is the number of workers the pool was created with.
	NumWorkers int

	// LiveWorkers is the number of workers that have not yet exited.
	LiveWorkers int

	// WorkerStats has one entry per worker.
	WorkerStats []WorkerStats

	// LatencyAvg is the average execution time of completed tasks.
	// Zero if no tasks have completed.
	LatencyAvg time.Duration

	// LatencyMax is the longest execution time observed for a single task.
	LatencyMax time.Duration
}

// WorkerStats contains statistics for one worker goroutine.
type WorkerStats struct {
	// WorkerID is the worker's index in the pool (0-indexed).
	WorkerID int

	// TasksExecuted is the number of tasks this worker has run,
	// including tasks that panicked.
	TasksExecuted uint64

	// TasksFailed is the number of tasks that panicked on this worker.
	TasksFailed uint64

	// State is one of "IDLE", "RUNNING" or "STOPPED".
	State string
}
