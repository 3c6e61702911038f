// Package fanout provides a fixed-size worker pool built around one shared,
// unbounded FIFO task queue, and (in package qsort) a quicksort that fans its
// recursive calls out as pool tasks.
//
// The pool is intentionally small. One mutex guards the queue and the
// shutdown latch. A condition variable signals workers that the queue is
// non-empty or shutdown has begun; that wait is the only place a worker
// suspends. Tasks run outside the lock, so a running task may submit further
// tasks without risk of deadlock. This is the normal case for recursive
// divide-and-conquer work.
//
// # Quick Start
//
//	pool, err := fanout.NewPool(fanout.DefaultNumWorkers())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Shutdown()
//
//	for i := 0; i < 100; i++ {
//	    i := i
//	    if err := pool.Submit(func() {
//	        fmt.Printf("Task %d executed\n", i)
//	    }); err != nil {
//	        log.Printf("Failed to submit task: %v", err)
//	    }
//	}
//
//	// Block until every task, and every task those tasks spawned, is done
//	pool.Wait()
//
// # Configuration
//
//	pool, err := fanout.NewPool(8,
//	    fanout.WithInitialQueueCapacity(4096),
//	    fanout.WithPinWorkerThreads(true),
//	    fanout.WithLogger(logger.New(logger.LevelDebug)),
//	)
//
// A pool with zero workers is legal and queues tasks that never run. Treat it
// as a caller hazard.
//
// # Error Handling
//
// A panicking task never takes its worker down. The panic is recovered,
// counted in Stats, logged with its stack and passed to the PanicHandler if
// one is set:
//
//	pool, _ := fanout.NewPool(4,
//	    fanout.WithPanicHandler(func(r interface{}) {
//	        log.Printf("Task panicked: %v", r)
//	    }),
//	)
//
// Nothing is reported back to the submitter; tasks have no result.
//
// # Completion and Shutdown
//
// Submit returns before the task has run. There are two ways to learn that
// work has finished:
//
//   - Wait blocks until the count of outstanding tasks (queued plus running)
//     is zero. The pool stays usable.
//   - Shutdown sets the latch and blocks until every worker has drained the
//     queue and exited. It has no deadline and is safe to call repeatedly.
//
// Tasks submitted by running tasks during the drain are still accepted and
// run. Once the last worker has exited, Submit returns ErrPoolShutdown.
//
// # Shared Data
//
// The pool does not synchronize the data that tasks touch. Tasks that run
// concurrently must work on disjoint data. In qsort this holds because
// partition always yields two non-overlapping index ranges.
//
// # Thread Safety
//
// All exported methods are safe for concurrent use.
package fanout
