package mocks

import (
	"context"
	"sync"

	"eventsapi/audit"
)

// Recorder keeps audit entries in memory. Err, when set, is returned from
// every Record call.
type Recorder struct {
	mu      sync.Mutex
	Entries []audit.Entry
	Err     error
}

func (r *Recorder) Record(_ context.Context, e audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Entries = append(r.Entries, e)
	return nil
}

func (r *Recorder) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		out = append(out, e.Action)
	}
	return out
}
