package queues

type Queue[T any] []T

func NewQueue[T any]() *Queue[T] {
	q := Queue[T]{}
	return &q
}

func (q *Queue[T]) Push(x T) {
	*q = append(*q, x)
}

func (q *Queue[T]) Peek() T {
	return (*q)[0]
}

func (q *Queue[T]) Pop() T {
	x := (*q)[0]
	*q = (*q)[1:]
	return x
}

// TryPop is Pop for callers that don't check IsEmpty first.
func (q *Queue[T]) TryPop() (T, bool) {
	if q.IsEmpty() {
		var zero T
		return zero, false
	}
	return q.Pop(), true
}

// Drain empties the queue and returns its items in push order.
func (q *Queue[T]) Drain() []T {
	items := []T(*q)
	*q = Queue[T]{}
	return items
}

func (q *Queue[T]) Len() int {
	return len(*q)
}

func (q *Queue[T]) IsEmpty() bool {
	return len(*q) == 0
}
