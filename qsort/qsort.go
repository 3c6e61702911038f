// Package qsort implements quicksort on top of a task scheduler: instead of
// recursing, each partition step submits its two halves as independent
// tasks.
//
// All index bounds are inclusive. A range with high < low is empty.
//
// The buffer being sorted is shared by every task without locking. This is
// sound only because the two ranges Partition produces never overlap, so
// concurrently running tasks always touch disjoint indices. Callers that
// hand overlapping ranges to concurrent sorts create a data race.
package qsort

import (
	"cmp"
	"sync"
)

// Submitter schedules a task for asynchronous execution.
// *fanout.Pool satisfies it.
type Submitter interface {
	Submit(task func()) error
}

// Partition rearranges buf[low..high] around the pivot buf[high] (Lomuto
// scheme) and returns the pivot's final index pi. Afterwards every element
// of buf[low..pi-1] is <= buf[pi] and every element of buf[pi+1..high] is
// >= buf[pi].
//
// It requires 0 <= low <= high < len(buf).
func Partition[T cmp.Ordered](buf []T, low, high int) int {
	pivot := buf[high]
	small := low - 1

	for i := low; i < high; i++ {
		if buf[i] <= pivot {
			small++
			buf[small], buf[i] = buf[i], buf[small]
		}
	}

	buf[small+1], buf[high] = buf[high], buf[small+1]
	return small + 1
}

// LinearSort sorts buf[low..high] ascending with plain recursive quicksort.
// The range is fully sorted when it returns.
func LinearSort[T cmp.Ordered](buf []T, low, high int) {
	if low >= high {
		return
	}

	pi := Partition(buf, low, high)
	LinearSort(buf, low, pi-1)
	LinearSort(buf, pi+1, high)
}

// ParallelSort partitions buf[low..high] on the calling goroutine and
// submits each half to s as a new ParallelSort task. It returns as soon as
// both halves are submitted, long before the range is sorted; the caller must
// wait for s to drain (for example fanout.Pool.Wait) before reading buf.
//
// If s refuses a task, that half is sorted inline so no range is lost.
func ParallelSort[T cmp.Ordered](buf []T, low, high int, s Submitter) {
	if low >= high {
		return
	}

	pi := Partition(buf, low, high)

	submitOrRun(s, func() { ParallelSort(buf, low, pi-1, s) }, func() { LinearSort(buf, low, pi-1) })
	submitOrRun(s, func() { ParallelSort(buf, pi+1, high, s) }, func() { LinearSort(buf, pi+1, high) })
}

func submitOrRun(s Submitter, task, fallback func()) {
	if err := s.Submit(task); err != nil {
		fallback()
	}
}

// SortOption configures Sort.
type SortOption func(*sortConfig)

type sortConfig struct {
	cutoff int
}

// WithSequentialCutoff makes Sort finish ranges of n elements or fewer with
// LinearSort on the current task instead of fanning out further.
// The default, 0, fans out all the way down.
func WithSequentialCutoff(n int) SortOption {
	return func(c *sortConfig) {
		if n > 0 {
			c.cutoff = n
		}
	}
}

// Sort sorts all of buf using tasks on s and returns once every task it
// spawned has finished. Unlike ParallelSort it does not depend on s being
// otherwise idle: completion is tracked per call.
func Sort[T cmp.Ordered](buf []T, s Submitter, opts ...SortOption) {
	var cfg sortConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	j := &job[T]{
		buf:    buf,
		s:      s,
		cutoff: cfg.cutoff,
	}
	j.run(span{low: 0, high: len(buf) - 1})
	j.wg.Wait()
}

// span is an inclusive index range owned by exactly one task.
type span struct {
	low, high int
}

func (r span) size() int {
	return r.high - r.low + 1
}

// job is the handle every task of one Sort call carries: the shared buffer,
// the scheduler, and the tracker of outstanding tasks.
type job[T cmp.Ordered] struct {
	buf    []T
	s      Submitter
	cutoff int
	wg     sync.WaitGroup
}

// run sorts r, handing each non-trivial half to a new task.
func (j *job[T]) run(r span) {
	if r.low >= r.high {
		return
	}
	if r.size() <= j.cutoff {
		LinearSort(j.buf, r.low, r.high)
		return
	}

	pi := Partition(j.buf, r.low, r.high)
	j.spawn(span{low: r.low, high: pi - 1})
	j.spawn(span{low: pi + 1, high: r.high})
}

// spawn submits r as a task. The tracker is incremented before Submit; the
// submitting task is itself still tracked, so the count cannot reach zero
// early.
func (j *job[T]) spawn(r span) {
	if r.low >= r.high {
		return
	}

	j.wg.Add(1)
	err := j.s.Submit(func() {
		defer j.wg.Done()
		j.run(r)
	})
	if err != nil {
		LinearSort(j.buf, r.low, r.high)
		j.wg.Done()
	}
}

// IsSorted reports whether buf is in non-decreasing order.
func IsSorted[T cmp.Ordered](buf []T) bool {
	for i := 1; i < len(buf); i++ {
		if buf[i] < buf[i-1] {
			return false
		}
	}
	return true
}
