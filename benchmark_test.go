package fanout

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tahsin716/fanout/logger"
)

func newBenchPool(b *testing.B, workers int) *Pool {
	b.Helper()
	pool, err := NewPool(workers, WithLogger(logger.Discard()))
	if err != nil {
		b.Fatalf("NewPool() error = %v", err)
	}
	return pool
}

// ============================================================================
// Throughput Under Different Task Durations
// ============================================================================

func BenchmarkThroughput_Pool_Instant(b *testing.B) {
	pool := newBenchPool(b, runtime.NumCPU())
	defer pool.Shutdown()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.Submit(func() {
			// Instant task
		})
	}
	pool.Wait()

	b.ReportMetric(float64(b.N)/b.Elapsed().Seconds(), "tasks/sec")
}

func BenchmarkThroughput_Goroutines_Instant(b *testing.B) {
	b.ResetTimer()
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < b.N; i++ {
		wg.Add(1)
		go func() {
			// Instant task
			wg.Done()
		}()
	}
	wg.Wait()

	b.ReportMetric(float64(b.N)/time.Since(start).Seconds(), "tasks/sec")
}

func BenchmarkThroughput_Pool_1us(b *testing.B) {
	pool := newBenchPool(b, runtime.NumCPU()*2)
	defer pool.Shutdown()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.Submit(func() {
			time.Sleep(time.Microsecond)
		})
	}
	pool.Wait()

	b.ReportMetric(float64(b.N)/b.Elapsed().Seconds(), "tasks/sec")
}

// ============================================================================
// Contention
// ============================================================================

func BenchmarkSubmit_Parallel(b *testing.B) {
	pool := newBenchPool(b, runtime.NumCPU())
	defer pool.Shutdown()

	var counter atomic.Int64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			pool.Submit(func() { counter.Add(1) })
		}
	})
	pool.Wait()
}

// ============================================================================
// Recursive Fan-out
// ============================================================================

func BenchmarkRecursiveFanOut(b *testing.B) {
	pool := newBenchPool(b, runtime.NumCPU())
	defer pool.Shutdown()

	const depth = 14
	var tree func(d int)
	tree = func(d int) {
		if d == 0 {
			return
		}
		pool.Submit(func() { tree(d - 1) })
		pool.Submit(func() { tree(d - 1) })
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.Submit(func() { tree(depth) })
		pool.Wait()
	}

	tasks := float64(b.N) * float64(int(1)<<(depth+1)-1)
	b.ReportMetric(tasks/b.Elapsed().Seconds(), "tasks/sec")
}
