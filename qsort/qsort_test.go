package qsort

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tahsin716/fanout"
	"github.com/tahsin716/fanout/logger"
)

// inlineSubmitter runs every task immediately on the caller.
type inlineSubmitter struct {
	calls atomic.Int64
}

func (s *inlineSubmitter) Submit(task func()) error {
	s.calls.Add(1)
	task()
	return nil
}

// refusingSubmitter rejects everything, like a pool that has shut down.
type refusingSubmitter struct{}

func (refusingSubmitter) Submit(func()) error {
	return fanout.ErrPoolShutdown
}

func newPool(t *testing.T, workers int) *fanout.Pool {
	t.Helper()
	pool, err := fanout.NewPool(workers, fanout.WithLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	t.Cleanup(pool.Shutdown)
	return pool
}

// inputs returns a named set of arrays covering the interesting shapes.
func inputs(rng *rand.Rand) map[string][]int {
	random := make([]int, 2000)
	for i := range random {
		random[i] = rng.IntN(1 << 20)
	}

	dups := make([]int, 2000)
	for i := range dups {
		dups[i] = rng.IntN(5)
	}

	ascending := make([]int, 500)
	descending := make([]int, 500)
	for i := range ascending {
		ascending[i] = i
		descending[i] = len(descending) - i
	}

	return map[string][]int{
		"empty":      {},
		"single":     {42},
		"pair":       {2, 1},
		"random":     random,
		"duplicates": dups,
		"all-equal":  {7, 7, 7, 7, 7, 7, 7},
		"ascending":  ascending,
		"descending": descending,
		"negative":   {-3, 5, -10, 0, 2, -1},
	}
}

func sortedCopy(in []int) []int {
	want := slices.Clone(in)
	slices.Sort(want)
	return want
}

// ============================================================================
// Partition Tests
// ============================================================================

func checkPartition(t *testing.T, buf []int, low, high, pi int) {
	t.Helper()
	if pi < low || pi > high {
		t.Fatalf("pi = %d outside [%d, %d]", pi, low, high)
	}
	for i := low; i < pi; i++ {
		if buf[i] > buf[pi] {
			t.Fatalf("buf[%d] = %d > pivot buf[%d] = %d", i, buf[i], pi, buf[pi])
		}
	}
	for i := pi + 1; i <= high; i++ {
		if buf[i] < buf[pi] {
			t.Fatalf("buf[%d] = %d < pivot buf[%d] = %d", i, buf[i], pi, buf[pi])
		}
	}
}

func TestPartition_Example(t *testing.T) {
	buf := []int{5, 3, 8, 1, 9, 2}
	before := sortedCopy(buf)

	pi := Partition(buf, 0, 5)

	if pi != 1 {
		t.Errorf("Partition() = %d, want 1", pi)
	}
	if buf[pi] != 2 {
		t.Errorf("pivot value = %d, want 2", buf[pi])
	}
	checkPartition(t, buf, 0, 5, pi)
	if diff := cmp.Diff(before, sortedCopy(buf)); diff != "" {
		t.Errorf("Partition changed the multiset (-want +got):\n%s", diff)
	}
}

func TestPartition_Property(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for trial := 0; trial < 500; trial++ {
		n := 1 + rng.IntN(64)
		buf := make([]int, n)
		for i := range buf {
			buf[i] = rng.IntN(20)
		}
		low := rng.IntN(n)
		high := low + rng.IntN(n-low)

		outside := slices.Concat(slices.Clone(buf[:low]), slices.Clone(buf[high+1:]))
		pi := Partition(buf, low, high)

		checkPartition(t, buf, low, high, pi)
		if diff := cmp.Diff(outside, slices.Concat(buf[:low], buf[high+1:])); diff != "" {
			t.Fatalf("trial %d: Partition touched indices outside [%d, %d]:\n%s", trial, low, high, diff)
		}
	}
}

func TestPartition_SingleElement(t *testing.T) {
	buf := []int{9, 4, 1}
	if pi := Partition(buf, 1, 1); pi != 1 {
		t.Errorf("Partition(buf, 1, 1) = %d, want 1", pi)
	}
	if diff := cmp.Diff([]int{9, 4, 1}, buf); diff != "" {
		t.Errorf("single-element partition changed buf:\n%s", diff)
	}
}

// ============================================================================
// LinearSort Tests
// ============================================================================

func TestLinearSort(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))

	for name, in := range inputs(rng) {
		t.Run(name, func(t *testing.T) {
			buf := slices.Clone(in)
			LinearSort(buf, 0, len(buf)-1)

			if diff := cmp.Diff(sortedCopy(in), buf); diff != "" {
				t.Errorf("LinearSort mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLinearSort_Subrange(t *testing.T) {
	buf := []int{9, 8, 7, 6, 5, 4, 3}
	LinearSort(buf, 2, 5)

	if diff := cmp.Diff([]int{9, 8, 4, 5, 6, 7, 3}, buf); diff != "" {
		t.Errorf("subrange sort mismatch (-want +got):\n%s", diff)
	}
}

func TestLinearSort_InvalidRange(t *testing.T) {
	buf := []int{3, 2, 1}
	LinearSort(buf, 2, 0)
	LinearSort(buf, 1, 1)

	if diff := cmp.Diff([]int{3, 2, 1}, buf); diff != "" {
		t.Errorf("invalid range modified buf:\n%s", diff)
	}
}

func TestLinearSort_Strings(t *testing.T) {
	buf := []string{"pear", "apple", "fig", "banana"}
	LinearSort(buf, 0, len(buf)-1)

	if diff := cmp.Diff([]string{"apple", "banana", "fig", "pear"}, buf); diff != "" {
		t.Errorf("string sort mismatch (-want +got):\n%s", diff)
	}
}

// ============================================================================
// ParallelSort Tests
// ============================================================================

func TestParallelSort_PermutationThenDrain(t *testing.T) {
	for _, workers := range []int{1, 2, runtime.NumCPU()} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			pool := newPool(t, workers)

			rng := rand.New(rand.NewPCG(5, uint64(workers)))
			buf := rng.Perm(1000)

			ParallelSort(buf, 0, len(buf)-1, pool)
			pool.Wait()

			want := make([]int, 1000)
			for i := range want {
				want[i] = i
			}
			if diff := cmp.Diff(want, buf); diff != "" {
				t.Errorf("ParallelSort mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParallelSort_ShutdownAsDrain(t *testing.T) {
	pool, err := fanout.NewPool(4, fanout.WithLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	rng := rand.New(rand.NewPCG(6, 7))
	buf := rng.Perm(5000)

	ParallelSort(buf, 0, len(buf)-1, pool)
	pool.Shutdown()

	if !IsSorted(buf) {
		t.Error("buffer not sorted after Shutdown drained the pool")
	}
}

func TestParallelSort_Inputs(t *testing.T) {
	pool := newPool(t, runtime.NumCPU())
	rng := rand.New(rand.NewPCG(8, 9))

	for name, in := range inputs(rng) {
		t.Run(name, func(t *testing.T) {
			buf := slices.Clone(in)
			ParallelSort(buf, 0, len(buf)-1, pool)
			pool.Wait()

			if diff := cmp.Diff(sortedCopy(in), buf); diff != "" {
				t.Errorf("ParallelSort mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParallelSort_Degenerate(t *testing.T) {
	s := &inlineSubmitter{}

	var empty []int
	ParallelSort(empty, 0, -1, s)

	single := []int{7}
	ParallelSort(single, 0, 0, s)

	if s.calls.Load() != 0 {
		t.Errorf("degenerate input submitted %d tasks, want 0", s.calls.Load())
	}
	if single[0] != 7 {
		t.Errorf("single element changed to %d", single[0])
	}
}

func TestParallelSort_SubmitsBothHalves(t *testing.T) {
	s := &inlineSubmitter{}
	buf := []int{3, 1, 2}

	ParallelSort(buf, 0, 2, s)

	// Pivot 2 lands in the middle: one task per half, each a base case
	if got := s.calls.Load(); got != 2 {
		t.Errorf("submitted %d tasks, want 2", got)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, buf); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParallelSort_RefusedSubmitFallsBack(t *testing.T) {
	rng := rand.New(rand.NewPCG(10, 11))
	buf := rng.Perm(300)

	ParallelSort(buf, 0, len(buf)-1, refusingSubmitter{})

	if !IsSorted(buf) {
		t.Error("buffer not sorted when every Submit was refused")
	}
}

// ============================================================================
// Sort Tests
// ============================================================================

func TestSort_Inputs(t *testing.T) {
	pool := newPool(t, runtime.NumCPU())
	rng := rand.New(rand.NewPCG(12, 13))

	for name, in := range inputs(rng) {
		for _, cutoff := range []int{0, 16} {
			t.Run(fmt.Sprintf("%s/cutoff=%d", name, cutoff), func(t *testing.T) {
				buf := slices.Clone(in)
				Sort(buf, pool, WithSequentialCutoff(cutoff))

				// No Wait: Sort itself must not return early
				if diff := cmp.Diff(sortedCopy(in), buf); diff != "" {
					t.Errorf("Sort mismatch (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestSort_ConcurrentCallsShareOnePool(t *testing.T) {
	pool := newPool(t, 4)

	rng := rand.New(rand.NewPCG(14, 15))
	bufs := make([][]int, 8)
	for i := range bufs {
		bufs[i] = rng.Perm(2000)
	}

	done := make(chan int, len(bufs))
	for i := range bufs {
		go func(i int) {
			Sort(bufs[i], pool)
			done <- i
		}(i)
	}
	for range bufs {
		i := <-done
		if !IsSorted(bufs[i]) {
			t.Errorf("buffer %d not sorted when its Sort returned", i)
		}
	}
}

func TestSort_RefusedSubmit(t *testing.T) {
	rng := rand.New(rand.NewPCG(16, 17))
	buf := rng.Perm(500)

	Sort(buf, refusingSubmitter{})

	if !IsSorted(buf) {
		t.Error("Sort did not fall back when Submit was refused")
	}
}

func TestSort_CutoffSkipsFanOut(t *testing.T) {
	s := &inlineSubmitter{}
	buf := []int{5, 4, 3, 2, 1}

	Sort(buf, s, WithSequentialCutoff(10))

	if s.calls.Load() != 0 {
		t.Errorf("submitted %d tasks below cutoff, want 0", s.calls.Load())
	}
	if !IsSorted(buf) {
		t.Errorf("buf = %v, want sorted", buf)
	}
}

func TestIsSorted(t *testing.T) {
	tests := []struct {
		in   []int
		want bool
	}{
		{nil, true},
		{[]int{1}, true},
		{[]int{1, 1, 2}, true},
		{[]int{2, 1}, false},
	}
	for _, tt := range tests {
		if got := IsSorted(tt.in); got != tt.want {
			t.Errorf("IsSorted(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRefusingSubmitter_MatchesPoolError(t *testing.T) {
	if err := (refusingSubmitter{}).Submit(func() {}); !errors.Is(err, fanout.ErrPoolShutdown) {
		t.Errorf("refusingSubmitter error = %v", err)
	}
}
