package views

import (
	"sync"

	"github.com/baharkarakas/bank-demo-web/internal/metrics"
)

// Resource holds the latest remote snapshot for one view instance.
// Each fetch is tagged with a sequence number from Begin; Resolve ignores any
// response that is not from the most recently issued fetch, so a slow earlier
// request can never overwrite a newer one.
type Resource[T any] struct {
	name string

	mu       sync.Mutex
	issued   uint64
	resolved uint64
	data     T
	hasData  bool
	err      error
}

func NewResource[T any](name string) *Resource[T] {
	return &Resource[T]{name: name}
}

// Begin registers a new in-flight fetch and returns its sequence number.
func (r *Resource[T]) Begin() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued++
	return r.issued
}

// Resolve records the outcome of fetch seq. It reports false when the
// response was stale and dropped. A failed fetch keeps the previous data.
func (r *Resource[T]) Resolve(seq uint64, data T, err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.issued {
		metrics.StaleResponses.WithLabelValues(r.name).Inc()
		return false
	}
	r.resolved = seq
	r.err = err
	if err == nil {
		r.data = data
		r.hasData = true
	}
	return true
}

// Snapshot is a consistent read of the resource.
type Snapshot[T any] struct {
	Data    T
	HasData bool
	Err     error
	Loading bool
}

func (r *Resource[T]) Snapshot() Snapshot[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot[T]{
		Data:    r.data,
		HasData: r.hasData,
		Err:     r.err,
		Loading: r.resolved != r.issued,
	}
}
