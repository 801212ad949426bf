package core

import (
	"bytes"
	"encoding/json"
)

// AllLabel is the active label shown when nothing is selected.
const AllLabel = "All"

// Selection holds at most one selected category. The zero value selects
// nothing, meaning every category is in focus.
type Selection struct {
	category string
	set      bool
}

// NoSelection is the empty selection.
var NoSelection = Selection{}

// Select returns a selection of exactly one category.
func Select(category string) Selection {
	return Selection{category: category, set: true}
}

// Category returns the selected category and whether one is set.
func (s Selection) Category() (string, bool) {
	return s.category, s.set
}

func (s Selection) IsNone() bool {
	return !s.set
}

// Matches reports whether category is the selected one.
func (s Selection) Matches(category string) bool {
	return s.set && s.category == category
}

// Toggle deselects when category is already selected and selects it
// otherwise, replacing any prior selection.
func (s Selection) Toggle(category string) Selection {
	if s.Matches(category) {
		return NoSelection
	}
	return Select(category)
}

// Label is the selected category, or AllLabel.
func (s Selection) Label() string {
	if !s.set {
		return AllLabel
	}
	return s.category
}

func (s Selection) String() string {
	return s.Label()
}

// MarshalJSON encodes the empty selection as null.
func (s Selection) MarshalJSON() ([]byte, error) {
	if !s.set {
		return []byte("null"), nil
	}
	return json.Marshal(s.category)
}

func (s *Selection) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = NoSelection
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*s = Select(name)
	return nil
}
