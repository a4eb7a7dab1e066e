package tx

import (
	"context"
	"sync"
)

// MemoryRunner serializes callbacks behind one mutex. It stands in for
// SQLRunner when services run against in-memory stores: each callback is
// atomic with respect to every other, which is the same guarantee the SQL
// runner gives mutating operations that take the customer row lock.
//
// It cannot roll back: callbacks against memory stores must either fully
// apply or fail before mutating, which the memory stores uphold by
// validating before writing.
type MemoryRunner struct {
	mu sync.Mutex
}

// NewMemoryRunner constructs an in-memory Runner.
func NewMemoryRunner() *MemoryRunner {
	return &MemoryRunner{}
}

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}
