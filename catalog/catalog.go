package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/alert-correlator/model"
)

var ErrDuplicateIndex = errors.New("alert index already present")

// EventType indicates what kind of change happened in the catalog.
type EventType int

const (
	EventAlertAdded EventType = iota
	EventCatalogCleared
)

// Event is emitted to subscribers when the catalog changes.
type Event struct {
	Type  EventType
	Alert model.Alert
}

// Catalog is an in-memory, thread-safe store for alert events. Alerts are
// validated on entry so the geometry pipeline never sees malformed input.
type Catalog struct {
	mu sync.RWMutex

	alerts map[int]*model.Alert

	subs []func(Event)
}

// New constructs an empty catalog.
func New() *Catalog {
	return &Catalog{
		alerts: make(map[int]*model.Alert),
	}
}

// Add validates and stores an alert. It returns an error when validation
// fails or when the index is already taken.
func (c *Catalog) Add(a *model.Alert) error {
	if a == nil {
		return fmt.Errorf("catalog: nil alert")
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	c.mu.Lock()
	if _, exists := c.alerts[a.Index]; exists {
		c.mu.Unlock()
		return fmt.Errorf("catalog: alert %d: %w", a.Index, ErrDuplicateIndex)
	}
	stored := *a
	c.alerts[a.Index] = &stored

	event := Event{Type: EventAlertAdded, Alert: stored}
	subs := append([]func(Event){}, c.subs...)
	c.mu.Unlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	for _, sub := range subs {
		sub(event)
	}
	return nil
}

// Get returns a copy of the alert with the given index.
func (c *Catalog) Get(index int) (model.Alert, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.alerts[index]
	if !ok {
		return model.Alert{}, false
	}
	return *a, true
}

// Len reports the number of alerts currently stored.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.alerts)
}

// Snapshot returns a copy of all alerts ordered by index. The correlation
// pipeline works on snapshots so results are deterministic for a fixed
// catalog even while alerts keep arriving.
func (c *Catalog) Snapshot() []model.Alert {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res := make([]model.Alert, 0, len(c.alerts))
	for _, a := range c.alerts {
		res = append(res, *a)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Index < res[j].Index })
	return res
}

// Clear removes all alerts and notifies subscribers.
func (c *Catalog) Clear() {
	c.mu.Lock()
	c.alerts = make(map[int]*model.Alert)
	subs := append([]func(Event){}, c.subs...)
	c.mu.Unlock()

	for _, sub := range subs {
		sub(Event{Type: EventCatalogCleared})
	}
}

// Subscribe registers a callback for catalog events. It returns an
// unsubscribe function.
func (c *Catalog) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
	idx := len(c.subs) - 1

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if idx < 0 || idx >= len(c.subs) {
			return
		}
		c.subs = append(c.subs[:idx], c.subs[idx+1:]...)
		idx = -1
	}
}
