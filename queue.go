package fanout

// taskQueue is an unbounded FIFO ring buffer of tasks.
// It is not safe for concurrent use; the pool guards it with Pool.mu.
type taskQueue struct {
	// head is the index of the front task, tail one past the last.
	// Both only ever increase; slots are addressed with mask.
	head uint64
	tail uint64

	buffer []func()
	mask   uint64

	// highWater is the largest length ever observed
	highWater int
}

// newTaskQueue creates a queue whose initial capacity is capacity rounded
// up to a power of two.
func newTaskQueue(capacity int) *taskQueue {
	capacity = nextPowerOfTwo(capacity)
	return &taskQueue{
		buffer: make([]func(), capacity),
		mask:   uint64(capacity - 1),
	}
}

// push appends task at the tail, doubling the buffer when it is full.
func (q *taskQueue) push(task func()) {
	if q.tail-q.head == uint64(len(q.buffer)) {
		q.grow()
	}

	q.buffer[q.tail&q.mask] = task
	q.tail++

	if n := q.len(); n > q.highWater {
		q.highWater = n
	}
}

// pop removes and returns the front task, or nil if the queue is empty.
func (q *taskQueue) pop() func() {
	if q.head == q.tail {
		return nil
	}

	index := q.head & q.mask
	task := q.buffer[index]

	// Clear the slot so the closure can be collected
	q.buffer[index] = nil
	q.head++

	return task
}

// grow doubles the buffer, keeping tasks in FIFO order starting at slot 0.
func (q *taskQueue) grow() {
	n := q.len()
	buffer := make([]func(), len(q.buffer)*2)
	for i := 0; i < n; i++ {
		buffer[i] = q.buffer[(q.head+uint64(i))&q.mask]
	}

	q.buffer = buffer
	q.mask = uint64(len(buffer) - 1)
	q.head = 0
	q.tail = uint64(n)
}

func (q *taskQueue) len() int {
	return int(q.tail - q.head)
}

func (q *taskQueue) isEmpty() bool {
	return q.head == q.tail
}

func (q *taskQueue) capacity() int {
	return len(q.buffer)
}
