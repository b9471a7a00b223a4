package stream

// Queue is a FIFO that holds each value at most once.
type Queue[T comparable] struct {
	items []T
	set   map[T]struct{}
}

// NewQueue returns an empty queue.
func NewQueue[T comparable]() *Queue[T] {
	return &Queue[T]{set: make(map[T]struct{})}
}

// Push appends v unless it is already queued.
func (q *Queue[T]) Push(v T) bool {
	if _, ok := q.set[v]; ok {
		return false
	}
	q.set[v] = struct{}{}
	q.items = append(q.items, v)
	return true
}

// Pop removes and returns the oldest value.
func (q *Queue[T]) Pop() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	delete(q.set, v)
	return v, true
}

// Contains reports whether v is queued.
func (q *Queue[T]) Contains(v T) bool {
	_, ok := q.set[v]
	return ok
}

// Len returns the number of queued values.
func (q *Queue[T]) Len() int { return len(q.items) }

// Filter drops every value for which keep returns false and reports how
// many were dropped. Order is preserved.
func (q *Queue[T]) Filter(keep func(T) bool) int {
	kept := q.items[:0]
	for _, v := range q.items {
		if keep(v) {
			kept = append(kept, v)
		} else {
			delete(q.set, v)
		}
	}
	dropped := len(q.items) - len(kept)
	clear(q.items[len(kept):])
	q.items = kept
	return dropped
}

// Drain pops every value in order, including values pushed by fn.
func (q *Queue[T]) Drain(fn func(T)) {
	for {
		v, ok := q.Pop()
		if !ok {
			return
		}
		fn(v)
	}
}
