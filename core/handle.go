package core

import (
	"context"
	"sync"
)

// Handle tracks one submitted request.  Its result is set exactly once.
type Handle struct {
	id     string
	done   chan struct{}
	once   sync.Once
	result TransformResult
	notify func(TransformResult)
}

func newHandle(id string, notify func(TransformResult)) *Handle {
	return &Handle{id: id, done: make(chan struct{}), notify: notify}
}

// ID returns the job identifier, also carried in TransformResult.JobID.
func (h *Handle) ID() string { return h.id }

// Done is closed once the result is available.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Result returns the outcome and whether it is available yet.
func (h *Handle) Result() (TransformResult, bool) {
	select {
	case <-h.done:
		return h.result, true
	default:
		return TransformResult{}, false
	}
}

// Wait blocks until the job finishes or ctx ends.  Ending ctx stops the wait
// only; the job keeps running.
func (h *Handle) Wait(ctx context.Context) (TransformResult, error) {
	select {
	case <-h.done:
		return h.result, nil
	case <-ctx.Done():
		return TransformResult{JobID: h.id}, ctx.Err()
	}
}

// complete publishes res.  Later calls are ignored and report false.
func (h *Handle) complete(res TransformResult) bool {
	fired := false
	h.once.Do(func() {
		res.JobID = h.id
		h.result = res
		close(h.done)
		fired = true
	})
	if fired && h.notify != nil {
		h.notify(h.result)
	}
	return fired
}
