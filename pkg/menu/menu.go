package menu

import (
	"errors"
)

var (
	// ErrLoad is returned when the descriptor source cannot be read.
	ErrLoad = errors.New("failed to load menu descriptor")

	// ErrMalformedDescriptor is returned when a descriptor cannot be decoded
	// into menu entries.
	ErrMalformedDescriptor = errors.New("malformed menu descriptor")

	// ErrEmptyDescriptor is returned when a descriptor has no top-level
	// entry to fall back on.
	ErrEmptyDescriptor = errors.New("menu descriptor has no top-level entries")
)

// Descriptor represents the menu structure of the site: the ordered
// top-level entries shown in the navigation menu and the ordered sub entries
// reachable only by anchor.
type Descriptor struct {
	// Items are the top-level entries in descriptor order.
	// The first one is the default page.
	Items []Entry `json:"menuItem"`

	// SubItems are the entries not listed in the navigation menu.
	SubItems []Entry `json:"subMenuItem,omitempty"`
}

// Default returns the first top-level entry.
func (d *Descriptor) Default() (Entry, error) {
	if d == nil || len(d.Items) == 0 {
		return Entry{}, ErrEmptyDescriptor
	}
	return d.Items[0], nil
}

// Resolve returns the entry for the given anchor.
//
// Top-level entries are searched first, then sub entries, both in descriptor
// order. An empty or unknown anchor resolves to the first top-level entry;
// only a descriptor without top-level entries yields an error.
func (d *Descriptor) Resolve(anchor string) (Entry, error) {
	def, err := d.Default()
	if err != nil {
		return Entry{}, err
	}

	if anchor == "" {
		return def, nil
	}

	if e, ok := find(d.Items, anchor); ok {
		return e, nil
	}

	if e, ok := find(d.SubItems, anchor); ok {
		return e, nil
	}

	return def, nil
}

// Entries returns all top-level entries followed by all sub entries.
func (d *Descriptor) Entries() []Entry {
	all := make([]Entry, 0, len(d.Items)+len(d.SubItems))
	all = append(all, d.Items...)
	return append(all, d.SubItems...)
}

// ToJSON returns a JSON-serializable representation of the descriptor.
func (d *Descriptor) ToJSON() interface{} {
	return d
}

func find(entries []Entry, anchor string) (Entry, bool) {
	for _, e := range entries {
		if e.Anchor == anchor {
			return e, true
		}
	}
	return Entry{}, false
}
