// Package ledger holds the authoritative in-memory view of in-flight and
// completed requests. It owns the mutable representation of a request while
// it is running; completion hands an immutable copy to observers for
// durable persistence.
package ledger

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/nothatDinger/qwen-code-trace/internal/record"
)

// Observer receives lifecycle notifications. Implementations must not
// mutate the request they are handed.
type Observer interface {
	RequestStarted(r *record.Request)
	RequestUpdated(r *record.Request)
	RequestCompleted(r *record.Request)
}

// Collector is the per-request lifecycle state machine.
//
// Lifecycle calls for the same id are expected to come from one logical
// flow; the internal mutex only guards the maps, it does not serialize a
// caller's start/update/complete sequence.
type Collector struct {
	mu        sync.Mutex
	enabled   bool
	active    map[string]*record.Request
	completed []*record.Request
	observers []Observer
}

// New creates a Collector. When enabled is false all lifecycle calls
// silently no-op.
func New(enabled bool) *Collector {
	return &Collector{
		enabled: enabled,
		active:  make(map[string]*record.Request),
	}
}

// Enabled reports whether tracing is active.
func (c *Collector) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Subscribe registers an observer for lifecycle events.
func (c *Collector) Subscribe(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// Start allocates a request in running state and returns its id.
// Returns the empty sentinel id when tracing is disabled.
func (c *Collector) Start(t record.Type, content record.Content, meta record.Metadata) string {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return ""
	}

	r := &record.Request{
		ID:        ulid.Make().String(),
		Type:      t,
		Status:    record.StatusRunning,
		StartTime: time.Now().UTC(),
		Content:   record.MergeContent(nil, content),
		Metadata:  meta,
	}
	c.active[r.ID] = r
	observers := c.observers
	snapshot := r.Clone()
	c.mu.Unlock()

	for _, o := range observers {
		o.RequestStarted(snapshot)
	}
	return r.ID
}

// Update merges partial content into a running request. Unknown ids and
// disabled tracing are no-ops.
func (c *Collector) Update(id string, content record.Content) {
	c.mu.Lock()
	r, ok := c.active[id]
	if !c.enabled || !ok {
		c.mu.Unlock()
		return
	}
	r.Content = record.MergeContent(r.Content, content)
	observers := c.observers
	snapshot := r.Clone()
	c.mu.Unlock()

	for _, o := range observers {
		o.RequestUpdated(snapshot)
	}
}

// Complete merges final content, stamps the end time, and moves the request
// to the completed set. Completing an unknown or already-terminal id is a
// no-op, which makes double-completion harmless.
func (c *Collector) Complete(id string, content record.Content, status record.Status) {
	if !status.Terminal() {
		status = record.StatusCompleted
	}

	c.mu.Lock()
	r, ok := c.active[id]
	if !c.enabled || !ok {
		c.mu.Unlock()
		return
	}
	delete(c.active, id)

	r.Content = record.MergeContent(r.Content, content)
	r.Status = status
	r.EndTime = time.Now().UTC()
	r.Duration = r.EndTime.Sub(r.StartTime)
	c.completed = append(c.completed, r)

	observers := c.observers
	snapshot := r.Clone()
	c.mu.Unlock()

	for _, o := range observers {
		o.RequestCompleted(snapshot)
	}
}

// Active returns copies of the requests still running.
func (c *Collector) Active() []*record.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*record.Request, 0, len(c.active))
	for _, r := range c.active {
		out = append(out, r.Clone())
	}
	return out
}

// Completed returns copies of the requests that reached a terminal state.
func (c *Collector) Completed() []*record.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*record.Request, 0, len(c.completed))
	for _, r := range c.completed {
		out = append(out, r.Clone())
	}
	return out
}

// All returns copies of every tracked request, running and completed.
func (c *Collector) All() []*record.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*record.Request, 0, len(c.active)+len(c.completed))
	for _, r := range c.completed {
		out = append(out, r.Clone())
	}
	for _, r := range c.active {
		out = append(out, r.Clone())
	}
	return out
}

// Stats summarizes the tracked requests. Requests still running contribute
// to counts but not to duration or error rate.
type Stats struct {
	Total       int
	ByType      map[record.Type]int
	ByStatus    map[record.Status]int
	AvgDuration time.Duration
	ErrorRate   float64
}

// Stats computes aggregate statistics over all tracked requests.
func (c *Collector) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		ByType:   make(map[record.Type]int),
		ByStatus: make(map[record.Status]int),
	}

	var totalDur time.Duration
	var doneCount, failed int

	count := func(r *record.Request) {
		s.Total++
		s.ByType[r.Type]++
		s.ByStatus[r.Status]++
		if r.Done() {
			doneCount++
			totalDur += r.Duration
			if r.Status == record.StatusFailed {
				failed++
			}
		}
	}
	for _, r := range c.active {
		count(r)
	}
	for _, r := range c.completed {
		count(r)
	}

	if doneCount > 0 {
		s.AvgDuration = totalDur / time.Duration(doneCount)
	}
	if s.Total > 0 {
		s.ErrorRate = float64(failed) / float64(s.Total)
	}
	return s
}
