package storage

import "sync"

type requestKind int

const (
	requestPut requestKind = iota + 1
	requestClaim
	requestBarrier
)

type claimResult struct {
	claimed bool
	err     error
}

// request is one unit of work for the single writer goroutine.
type request struct {
	kind  requestKind
	key   string
	value []byte
	claim chan claimResult
	done  chan struct{}
}

// writeQueue is an unbounded FIFO so Put never blocks the caller, even while
// the backend is slow. Ordering of puts from one process is preserved.
type writeQueue struct {
	mu       sync.Mutex
	requests []request
	closed   bool
	signal   chan struct{}
}

func newWriteQueue() *writeQueue {
	return &writeQueue{
		requests: make([]request, 0, 64),
		signal:   make(chan struct{}, 1),
	}
}

// enqueue appends a request. Returns false once the queue is closed.
func (q *writeQueue) enqueue(r request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.requests = append(q.requests, r)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// dequeue blocks until a request is available. It returns false when the
// queue is closed and drained.
func (q *writeQueue) dequeue() (request, bool) {
	for {
		q.mu.Lock()
		if len(q.requests) > 0 {
			r := q.requests[0]
			q.requests[0] = request{}
			if len(q.requests) == 1 {
				q.requests = q.requests[:0]
			} else {
				q.requests = q.requests[1:]
			}
			q.mu.Unlock()
			return r, true
		}
		if q.closed {
			q.mu.Unlock()
			return request{}, false
		}
		q.mu.Unlock()

		<-q.signal
	}
}

func (q *writeQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
