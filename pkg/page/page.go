// Package page assembles complete site pages: the document head and header
// banner, the navigation menu, the content block of the resolved entry and
// the footer with its last-changed date.
package page

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mchmarny/docsite/pkg/content"
	"github.com/mchmarny/docsite/pkg/logger"
	"github.com/mchmarny/docsite/pkg/menu"
)

const tracerName = "github.com/mchmarny/docsite/pkg/page"

// ErrMissingFragment is returned when the provider has no fragment for the
// resolved entry. Every descriptor entry must have one, so this signals a
// deployment mistake rather than bad input.
var ErrMissingFragment = errors.New("missing content fragment")

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// Chrome holds the site-wide parameters of the header and footer.
type Chrome struct {
	// Title is used for the document title and the header banner.
	Title string

	// Author is shown in the footer after the last-changed date.
	Author string

	// Stylesheet is the URL of the site stylesheet; empty omits the link.
	Stylesheet string

	// SelfURL is the path menu links point to, e.g. "/" or "".
	SelfURL string

	// Static is the URL prefix of static images.
	Static string

	// Script is the URL of the htmx script; empty leaves menu links as plain links.
	Script string

	// Badges adds the XHTML and CSS validator badges to the footer.
	Badges bool
}

type data struct {
	Chrome   Chrome
	Entry    menu.Entry
	Menu     template.HTML
	Fragment template.HTML
}

// Renderer renders pages using fragments from a content.Provider.
type Renderer struct {
	chrome   Chrome
	provider content.Provider
	tracer   trace.Tracer
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithChrome sets the header and footer parameters.
func WithChrome(c Chrome) Option {
	return func(r *Renderer) { r.chrome = c }
}

// WithTracerProvider sets the provider of the tracer used for render spans.
// The global OpenTelemetry provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Renderer) { r.tracer = tp.Tracer(tracerName) }
}

// New creates a Renderer reading fragments from provider.
func New(provider content.Provider, opts ...Option) *Renderer {
	r := &Renderer{
		provider: provider,
		tracer:   otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Chrome returns the header and footer parameters of the renderer.
func (r *Renderer) Chrome() Chrome {
	return r.chrome
}

// RenderPage writes the complete page for anchor and returns the entry that
// was rendered. An empty or unknown anchor renders the default entry.
// Nothing is written to w unless the whole page rendered successfully.
func (r *Renderer) RenderPage(ctx context.Context, w io.Writer, d *menu.Descriptor, anchor string) (menu.Entry, error) {
	return r.render(ctx, w, "page", d, anchor, false)
}

// RenderContent writes the content block for anchor, the entry title heading
// followed by its fragment, and the menu for the same entry marked for an
// HTMX out-of-band swap, so the current item follows the content.
func (r *Renderer) RenderContent(ctx context.Context, w io.Writer, d *menu.Descriptor, anchor string) (menu.Entry, error) {
	return r.render(ctx, w, "partial", d, anchor, true)
}

func (r *Renderer) render(ctx context.Context, w io.Writer, name string, d *menu.Descriptor, anchor string, swap bool) (menu.Entry, error) {
	ctx, span := r.tracer.Start(ctx, "page.Render",
		trace.WithAttributes(
			attribute.String("docsite.template", name),
			attribute.String("docsite.anchor.requested", anchor),
		))
	defer span.End()

	entry, err := r.renderTo(ctx, w, name, d, anchor, swap)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return entry, err
	}

	span.SetAttributes(attribute.String("docsite.anchor.resolved", entry.Anchor))
	return entry, nil
}

func (r *Renderer) renderTo(ctx context.Context, w io.Writer, name string, d *menu.Descriptor, anchor string, swap bool) (menu.Entry, error) {
	entry, err := d.Resolve(anchor)
	if err != nil {
		return menu.Entry{}, err
	}

	if anchor != "" && entry.Anchor != anchor {
		logger.FromContext(ctx).Debug("unknown anchor, using default entry",
			"requested", anchor,
			"anchor", entry.Anchor)
	}

	v := data{Chrome: r.chrome, Entry: entry}

	renderMenu := d.RenderMenu
	if swap {
		renderMenu = d.RenderMenuSwap
	}
	var buf bytes.Buffer
	if err := renderMenu(&buf, anchor, r.chrome.SelfURL); err != nil {
		return entry, err
	}
	v.Menu = template.HTML(buf.String())

	v.Fragment, err = r.provider.Get(ctx, entry.Anchor)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return entry, fmt.Errorf("%w for %q: %w", ErrMissingFragment, entry.Anchor, err)
		}
		return entry, fmt.Errorf("failed to get fragment for %q: %w", entry.Anchor, err)
	}

	var out bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&out, name, v); err != nil {
		return entry, fmt.Errorf("error executing template %q for %q: %w", name, entry.Anchor, err)
	}

	if _, err := out.WriteTo(w); err != nil {
		return entry, fmt.Errorf("failed to write page: %w", err)
	}

	return entry, nil
}
