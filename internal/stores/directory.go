// Package stores holds the store directory: the fixed mapping from the
// numeric store code embedded in receipt ids to a store name, plus the
// business-defined order stores are presented in.
//
// A Directory is immutable after New and safe for concurrent readers.
package stores

import (
	"fmt"
	"sort"
)

// DefaultUnknownLabel is used for codes missing from the directory.
const DefaultUnknownLabel = "不明"

// Entry describes one store.
type Entry struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`

	// Label is an ASCII rendition of Name used on chart images.
	Label string `yaml:"label"`
}

// Directory resolves store codes and orders store names.
type Directory struct {
	byCode  map[string]string
	labels  map[string]string
	order   []string
	rank    map[string]int
	unknown string
}

// New builds a directory. Every name in order must belong to an entry, and
// codes and names must be unique.
func New(entries []Entry, order []string, unknownLabel string) (*Directory, error) {
	if unknownLabel == "" {
		unknownLabel = DefaultUnknownLabel
	}
	d := &Directory{
		byCode:  make(map[string]string, len(entries)),
		labels:  make(map[string]string, len(entries)+1),
		rank:    make(map[string]int, len(order)),
		order:   append([]string(nil), order...),
		unknown: unknownLabel,
	}

	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Code == "" || e.Name == "" {
			return nil, fmt.Errorf("store entry needs both code and name (code=%q, name=%q)", e.Code, e.Name)
		}
		if _, dup := d.byCode[e.Code]; dup {
			return nil, fmt.Errorf("duplicate store code %q", e.Code)
		}
		if names[e.Name] {
			return nil, fmt.Errorf("duplicate store name %q", e.Name)
		}
		names[e.Name] = true
		d.byCode[e.Code] = e.Name
		if e.Label != "" {
			d.labels[e.Name] = e.Label
		}
	}

	for i, name := range order {
		if !names[name] {
			return nil, fmt.Errorf("display order names unmapped store %q", name)
		}
		if _, dup := d.rank[name]; dup {
			return nil, fmt.Errorf("store %q appears twice in display order", name)
		}
		d.rank[name] = i
	}

	return d, nil
}

// Name resolves a store code. Unknown codes resolve to the unknown label.
func (d *Directory) Name(code string) string {
	if name, ok := d.byCode[code]; ok {
		return name
	}
	return d.unknown
}

// UnknownLabel returns the label used for unmapped codes.
func (d *Directory) UnknownLabel() string {
	return d.unknown
}

// Order returns a copy of the curated display order.
func (d *Directory) Order() []string {
	return append([]string(nil), d.order...)
}

// Rank returns a store's position in the curated order.
func (d *Directory) Rank(name string) (int, bool) {
	i, ok := d.rank[name]
	return i, ok
}

// Known reports whether name is part of the curated order.
func (d *Directory) Known(name string) bool {
	_, ok := d.rank[name]
	return ok
}

// Label returns the chart label for a store name, or the name itself.
func (d *Directory) Label(name string) string {
	if l, ok := d.labels[name]; ok {
		return l
	}
	if name == d.unknown {
		return "Unknown"
	}
	return name
}

// Less orders curated stores by display order, ahead of every other
// name; the rest compare lexicographically.
func (d *Directory) Less(a, b string) bool {
	ra, okA := d.rank[a]
	rb, okB := d.rank[b]
	switch {
	case okA && okB:
		return ra < rb
	case okA:
		return true
	case okB:
		return false
	default:
		return a < b
	}
}

// SortNames sorts names in place using Less.
func (d *Directory) SortNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool { return d.Less(names[i], names[j]) })
}
