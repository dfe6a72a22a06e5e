package menu

// Kind distinguishes top-level menu entries from sub entries.
type Kind int

const (
	// KindTop marks an entry listed in the navigation menu (menuItem).
	KindTop Kind = iota

	// KindSub marks an entry reachable only by its anchor (subMenuItem).
	KindSub
)

// String returns the descriptor element name for the kind.
func (k Kind) String() string {
	switch k {
	case KindTop:
		return "menuItem"
	case KindSub:
		return "subMenuItem"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind using its descriptor element name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Entry represents a single page of the site as listed in the menu descriptor.
type Entry struct {
	// Anchor is the identifier of the page, used both as lookup key and as
	// the value of the content query parameter.
	Anchor string `json:"anchor"`

	// Title is the display title of the page.
	Title string `json:"title"`

	// Date is the free-text last modification date shown in the footer.
	Date string `json:"date,omitempty"`

	// Kind tells whether the entry appears in the navigation menu.
	Kind Kind `json:"kind"`
}
