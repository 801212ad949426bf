package dashboard

import "revdash/internal/core"

// Event is an input that may change the selection. Events are pure state
// transitions; the Dashboard applies them one at a time.
type Event interface {
	Apply(current core.Selection) core.Selection
	Name() string
}

// CategoryActivated is fired when a chart segment for Category is clicked.
type CategoryActivated struct {
	Category string
}

// SelectionCleared resets the dashboard to all categories.
type SelectionCleared struct{}

const (
	EventCategoryActivated = "category_activated"
	EventSelectionCleared  = "selection_cleared"
)

func (e CategoryActivated) Apply(current core.Selection) core.Selection {
	return current.Toggle(e.Category)
}

func (CategoryActivated) Name() string { return EventCategoryActivated }

func (SelectionCleared) Apply(core.Selection) core.Selection {
	return core.NoSelection
}

func (SelectionCleared) Name() string { return EventSelectionCleared }
