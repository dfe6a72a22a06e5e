package menu

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a menu descriptor.
type Format string

const (
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath derives the descriptor format from the file extension.
// Unknown extensions are treated as XML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatXML
	}
}

// rawEntry is the wire shape shared by all descriptor formats.
type rawEntry struct {
	Anchor string `xml:"anchor" json:"anchor" yaml:"anchor"`
	Title  string `xml:"title" json:"title" yaml:"title"`
	Date   string `xml:"date" json:"date" yaml:"date"`

	// Kind is optional and, when present, must match the list holding the
	// entry. It lets the /menu.json output be loaded back.
	Kind string `xml:"-" json:"kind" yaml:"kind"`
}

type rawDescriptor struct {
	XMLName      xml.Name   `xml:"menu" json:"-" yaml:"-"`
	MenuItems    []rawEntry `xml:"menuItem" json:"menuItem" yaml:"menuItem"`
	SubMenuItems []rawEntry `xml:"subMenuItem" json:"subMenuItem" yaml:"subMenuItem"`
}

// Load decodes a descriptor from r using the given format and validates
// every entry. The XML root must be <menu>; JSON and YAML documents may only
// carry the menuItem and subMenuItem keys. Any decoding or validation
// failure wraps ErrMalformedDescriptor.
func Load(r io.Reader, format Format) (*Descriptor, error) {
	var (
		raw rawDescriptor
		err error
	)

	switch format {
	case FormatXML:
		err = xml.NewDecoder(r).Decode(&raw)
	case FormatJSON:
		err = decodeJSON(r, &raw)
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(&raw)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrMalformedDescriptor, format)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDescriptor, err)
	}

	d := &Descriptor{}
	if d.Items, err = convert(raw.MenuItems, KindTop); err != nil {
		return nil, err
	}
	if d.SubItems, err = convert(raw.SubMenuItems, KindSub); err != nil {
		return nil, err
	}

	return d, nil
}

// decodeJSON decodes exactly one JSON object with known fields only.
func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after the descriptor object")
	}
	return nil
}

// LoadFile reads and decodes the descriptor stored at path.
func LoadFile(path string) (*Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer f.Close()

	d, err := Load(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func convert(raw []rawEntry, kind Kind) ([]Entry, error) {
	entries := make([]Entry, 0, len(raw))
	for i, r := range raw {
		anchor := strings.TrimSpace(r.Anchor)
		title := strings.TrimSpace(r.Title)
		if anchor == "" {
			return nil, fmt.Errorf("%w: %s #%d has no anchor", ErrMalformedDescriptor, kind, i+1)
		}
		if title == "" {
			return nil, fmt.Errorf("%w: %s %q has no title", ErrMalformedDescriptor, kind, anchor)
		}
		if r.Kind != "" && r.Kind != kind.String() {
			return nil, fmt.Errorf("%w: %s %q is listed as %s", ErrMalformedDescriptor, r.Kind, anchor, kind)
		}
		entries = append(entries, Entry{
			Anchor: anchor,
			Title:  title,
			Date:   strings.TrimSpace(r.Date),
			Kind:   kind,
		})
	}
	return entries, nil
}

// Source provides a freshly loaded descriptor on every call.
type Source interface {
	Load(ctx context.Context) (*Descriptor, error)
}

// FileSource loads the descriptor from a file on disk.
type FileSource struct {
	Path string
}

// Load reads the descriptor file.
func (s FileSource) Load(_ context.Context) (*Descriptor, error) {
	return LoadFile(s.Path)
}

// String returns the descriptor location.
func (s FileSource) String() string {
	return s.Path
}

// FSSource loads the descriptor from a file inside an fs.FS, such as an
// embedded site.
type FSSource struct {
	FS   fs.FS
	Name string
}

// Load reads the descriptor from the file system.
func (s FSSource) Load(_ context.Context) (*Descriptor, error) {
	f, err := s.FS.Open(s.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer f.Close()

	d, err := Load(f, FormatFromPath(s.Name))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	return d, nil
}

// String returns the descriptor location.
func (s FSSource) String() string {
	return s.Name
}
