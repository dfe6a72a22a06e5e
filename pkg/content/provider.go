// Package content supplies the HTML body of each page, keyed by anchor.
//
// The renderer only depends on the Provider interface; fragments can come
// from memory (MapProvider), from a directory or embedded file system
// (FSProvider), or from anything else able to answer a lookup by anchor.
package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// ErrNotFound is returned when no fragment exists for an anchor.
var ErrNotFound = errors.New("content fragment not found")

// Provider returns the HTML fragment for an anchor, or an error wrapping
// ErrNotFound when there is none.
type Provider interface {
	Get(ctx context.Context, anchor string) (template.HTML, error)
}

// MapProvider serves fragments from memory.
type MapProvider map[string]template.HTML

// Get returns the fragment stored under anchor.
func (m MapProvider) Get(_ context.Context, anchor string) (template.HTML, error) {
	f, ok := m[anchor]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, anchor)
	}
	return f, nil
}

// DefaultPrefix is the file name prefix FSProvider uses for fragments.
const DefaultPrefix = "content_"

// FSProvider reads fragments from a file system. For anchor "home" it
// looks for content_home.html, served as is, then content_home.md, which
// is converted to HTML.
//
// Fragments are trusted site content; raw HTML inside markdown is kept.
type FSProvider struct {
	fsys   fs.FS
	prefix string
	md     goldmark.Markdown
}

// NewFSProvider returns a provider reading fragments from fsys.
func NewFSProvider(fsys fs.FS) *FSProvider {
	return &FSProvider{
		fsys:   fsys,
		prefix: DefaultPrefix,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
		),
	}
}

// Get returns the fragment for anchor.
func (p *FSProvider) Get(_ context.Context, anchor string) (template.HTML, error) {
	base := p.prefix + anchor
	if anchor == "" || !fs.ValidPath(base) || base != path.Base(base) {
		return "", fmt.Errorf("%w: invalid anchor %q", ErrNotFound, anchor)
	}

	b, err := fs.ReadFile(p.fsys, base+".html")
	if err == nil {
		return template.HTML(b), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to read fragment %q: %w", anchor, err)
	}

	b, err = fs.ReadFile(p.fsys, base+".md")
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, anchor)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read fragment %q: %w", anchor, err)
	}

	var buf bytes.Buffer
	if err := p.md.Convert(b, &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown fragment %q: %w", anchor, err)
	}
	return template.HTML(buf.String()), nil
}
