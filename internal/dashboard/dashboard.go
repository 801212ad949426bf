// Package dashboard owns the selection state of the dashboard and the
// derived views recomputed from it.
//
// A Dashboard is a single state cell: events are applied one at a time, each
// followed by a full recomputation and listener notification before the next
// event is admitted. Readers get immutable Snapshots.
package dashboard

import (
	"context"
	"sync"

	"revdash/internal/core"
)

// Snapshot is every derived view for one selection. Its slices are shared
// between snapshots and must be treated as read-only.
type Snapshot struct {
	Version      uint64
	Categories   core.CategorySet
	Selection    core.Selection
	TimeSeries   core.TimeSeries
	Aggregate    []core.AggregateRow
	Distribution []core.DistributionRow
	Summary      core.Summary
}

// Change describes a selection transition caused by an event.
type Change struct {
	Event    Event
	Previous core.Selection
	Current  core.Selection
	Snapshot Snapshot
}

// Listener is notified synchronously after every selection change, inside
// the event turn. Listeners must not call back into the Dashboard.
type Listener func(ctx context.Context, c Change)

// Compute derives every view for sel from scratch.
func Compute(d core.Dataset, sel core.Selection) Snapshot {
	agg := core.Aggregate(d)
	return Snapshot{
		Categories:   d.Categories(),
		Selection:    sel,
		TimeSeries:   core.Project(d, sel),
		Aggregate:    agg,
		Distribution: core.Distribute(agg),
		Summary:      core.Summarize(sel, agg),
	}
}

type Dashboard struct {
	mu        sync.Mutex
	dataset   core.Dataset
	snapshot  Snapshot
	listeners []Listener
}

// New builds a dashboard over an immutable dataset with nothing selected.
func New(d core.Dataset) *Dashboard {
	return &Dashboard{
		dataset:  d,
		snapshot: Compute(d, core.NoSelection),
	}
}

// Subscribe registers l for every subsequent selection change.
func (d *Dashboard) Subscribe(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

// Snapshot returns the current derived views.
func (d *Dashboard) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot
}

// Categories returns the dataset's category set.
func (d *Dashboard) Categories() core.CategorySet {
	return d.dataset.Categories()
}

// Dataset returns the raw dataset the views are derived from.
func (d *Dashboard) Dataset() core.Dataset {
	return d.dataset
}

// Handle applies ev and returns the resulting snapshot. Listeners are only
// notified when the selection actually changes.
func (d *Dashboard) Handle(ctx context.Context, ev Event) Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev := d.snapshot
	next := ev.Apply(prev.Selection)
	if next == prev.Selection {
		return prev
	}

	d.snapshot = d.recompute(next, prev)
	change := Change{
		Event:    ev,
		Previous: prev.Selection,
		Current:  next,
		Snapshot: d.snapshot,
	}
	for _, l := range d.listeners {
		l(ctx, change)
	}
	return d.snapshot
}

// Activate handles a CategoryActivated event.
func (d *Dashboard) Activate(ctx context.Context, category string) Snapshot {
	return d.Handle(ctx, CategoryActivated{Category: category})
}

// Clear handles a SelectionCleared event.
func (d *Dashboard) Clear(ctx context.Context) Snapshot {
	return d.Handle(ctx, SelectionCleared{})
}

// recompute reuses the selection-independent views of prev and derives the
// rest for sel.
func (d *Dashboard) recompute(sel core.Selection, prev Snapshot) Snapshot {
	return Snapshot{
		Version:      prev.Version + 1,
		Categories:   prev.Categories,
		Selection:    sel,
		TimeSeries:   core.Project(d.dataset, sel),
		Aggregate:    prev.Aggregate,
		Distribution: prev.Distribution,
		Summary:      core.Summarize(sel, prev.Aggregate),
	}
}
