package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// CategorySet is the ordered list of category names tracked by a dataset.
	// Order drives color assignment and legend order.
	CategorySet []string

	// DataPoint is one labeled period with a value for every category.
	DataPoint struct {
		Label  string
		Values map[string]decimal.Decimal
	}

	// Dataset is the immutable raw input of the dashboard.
	Dataset struct {
		categories CategorySet
		points     []DataPoint
	}
)

var (
	ErrNoCategories      = errors.New("dataset has no categories")
	ErrEmptyCategory     = errors.New("empty category name")
	ErrDuplicateCategory = errors.New("duplicate category")
	ErrEmptyLabel        = errors.New("empty period label")
	ErrDuplicateLabel    = errors.New("duplicate period label")
	ErrMissingValue      = errors.New("missing category value")
	ErrNegativeValue     = errors.New("negative category value")
	ErrUnknownCategory   = errors.New("unknown category")
)

// Contains reports whether name is one of the categories.
func (cs CategorySet) Contains(name string) bool {
	return cs.Index(name) >= 0
}

// Index returns the position of name, or -1.
func (cs CategorySet) Index(name string) int {
	for i, c := range cs {
		if c == name {
			return i
		}
	}
	return -1
}

// Len returns the number of categories.
func (cs CategorySet) Len() int {
	return len(cs)
}

func (cs CategorySet) Validate() error {
	if len(cs) == 0 {
		return ErrNoCategories
	}
	seen := make(map[string]struct{}, len(cs))
	for _, c := range cs {
		if strings.TrimSpace(c) == "" {
			return ErrEmptyCategory
		}
		if _, ok := seen[c]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateCategory, c)
		}
		seen[c] = struct{}{}
	}
	return nil
}

// Validate checks the point against the category set: a non-empty label and a
// non-negative value for every category. Extra keys are rejected as unknown.
func (p DataPoint) Validate(categories CategorySet) error {
	if strings.TrimSpace(p.Label) == "" {
		return ErrEmptyLabel
	}
	for _, c := range categories {
		v, ok := p.Values[c]
		if !ok {
			return fmt.Errorf("%w: period %q, category %q", ErrMissingValue, p.Label, c)
		}
		if v.IsNegative() {
			return fmt.Errorf("%w: period %q, category %q", ErrNegativeValue, p.Label, c)
		}
	}
	if len(p.Values) != len(categories) {
		for k := range p.Values {
			if !categories.Contains(k) {
				return fmt.Errorf("%w: period %q, category %q", ErrUnknownCategory, p.Label, k)
			}
		}
	}
	return nil
}

// NewDataset validates and copies the given categories and points. The
// returned Dataset shares no memory with its arguments.
func NewDataset(categories []string, points []DataPoint) (Dataset, error) {
	cs := append(CategorySet(nil), categories...)
	if err := cs.Validate(); err != nil {
		return Dataset{}, err
	}

	labels := make(map[string]struct{}, len(points))
	copied := make([]DataPoint, 0, len(points))
	for _, p := range points {
		if err := p.Validate(cs); err != nil {
			return Dataset{}, err
		}
		if _, ok := labels[p.Label]; ok {
			return Dataset{}, fmt.Errorf("%w: %q", ErrDuplicateLabel, p.Label)
		}
		labels[p.Label] = struct{}{}

		values := make(map[string]decimal.Decimal, len(p.Values))
		for k, v := range p.Values {
			values[k] = v
		}
		copied = append(copied, DataPoint{Label: p.Label, Values: values})
	}

	return Dataset{categories: cs, points: copied}, nil
}

// MustDataset is NewDataset for literals known to be valid.
func MustDataset(categories []string, points []DataPoint) Dataset {
	d, err := NewDataset(categories, points)
	if err != nil {
		panic(err)
	}
	return d
}

// Categories returns a copy of the category set.
func (d Dataset) Categories() CategorySet {
	return append(CategorySet(nil), d.categories...)
}

// Periods returns the period labels in order.
func (d Dataset) Periods() []string {
	out := make([]string, len(d.points))
	for i, p := range d.points {
		out[i] = p.Label
	}
	return out
}

// Len returns the number of periods.
func (d Dataset) Len() int {
	return len(d.points)
}

// Value returns the value of category at period index i.
func (d Dataset) Value(i int, category string) (decimal.Decimal, bool) {
	if i < 0 || i >= len(d.points) {
		return decimal.Zero, false
	}
	v, ok := d.points[i].Values[category]
	return v, ok
}
