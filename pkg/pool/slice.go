package pool

import "sync"

// SlicePool manages reusable fixed-capacity slices. Producers write whole
// output buffers per call, so pooled slices always come back at full
// length with stale contents; callers overwrite before reading.
type SlicePool[T any] struct {
	capacity int       // Element count of every pooled slice.
	pool     sync.Pool // Thread-safe pool of slice headers.
}

// NewSlicePool creates a pool whose slices all hold capacity elements.
func NewSlicePool[T any](capacity int) *SlicePool[T] {
	return &SlicePool[T]{
		capacity: capacity,
		pool: sync.Pool{
			New: func() any {
				s := make([]T, capacity)
				return &s
			},
		},
	}
}

// Get retrieves a slice of exactly the pool's capacity.
func (sp *SlicePool[T]) Get() []T {
	return *sp.pool.Get().(*[]T)
}

// Put returns a slice to the pool. Slices of the wrong capacity are
// dropped rather than pooled.
func (sp *SlicePool[T]) Put(s []T) {
	if cap(s) != sp.capacity {
		return
	}

	s = s[:sp.capacity]
	sp.pool.Put(&s)
}

// Capacity returns the element count of every slice this pool hands out.
func (sp *SlicePool[T]) Capacity() int {
	return sp.capacity
}
