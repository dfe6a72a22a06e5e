// Package site serves the documentation pages over HTTP.
//
// A Site loads its menu descriptor on every request, so edits to the
// descriptor or fragments are visible without a restart and no state is
// shared between requests.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/angelofallars/htmx-go"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/mchmarny/docsite/pkg/content"
	"github.com/mchmarny/docsite/pkg/logger"
	"github.com/mchmarny/docsite/pkg/menu"
	"github.com/mchmarny/docsite/pkg/metric"
	"github.com/mchmarny/docsite/pkg/page"
)

// ContentTarget is the id of the element HTMX requests may target to get
// only the content block of a page.
const ContentTarget = "content"

// Failure reasons reported in logs and metrics.
const (
	ReasonDescriptor = "descriptor"
	ReasonEmpty      = "empty_descriptor"
	ReasonFragment   = "missing_fragment"
	ReasonInternal   = "internal"
)

// Resolution outcomes of the requested anchor.
const (
	ResultDefault  = "default"
	ResultMatch    = "match"
	ResultFallback = "fallback"
)

// Site renders pages from a descriptor source and a fragment provider.
type Site struct {
	source   menu.Source
	provider content.Provider
	chrome   page.Chrome
	tracer   trace.TracerProvider
	registry prometheus.Registerer

	renderer *page.Renderer
	pages    metric.IncrementalCounter
	failures metric.IncrementalCounter
	latency  metric.DurationObserver
}

// Option configures a Site.
type Option func(*Site)

// WithChrome sets the header and footer parameters of rendered pages.
func WithChrome(c page.Chrome) Option {
	return func(s *Site) { s.chrome = c }
}

// WithRegistry registers the page metrics with reg.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(s *Site) { s.registry = reg }
}

// WithTracerProvider sets the provider used for render spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Site) { s.tracer = tp }
}

// New creates a Site loading its descriptor from src and its fragments from provider.
func New(src menu.Source, provider content.Provider, opts ...Option) *Site {
	s := &Site{
		source:   src,
		provider: provider,
		pages:    metric.Noop{},
		failures: metric.Noop{},
		latency:  metric.Noop{},
	}

	for _, opt := range opts {
		opt(s)
	}

	ropts := []page.Option{page.WithChrome(s.chrome)}
	if s.tracer != nil {
		ropts = append(ropts, page.WithTracerProvider(s.tracer))
	}
	s.renderer = page.New(provider, ropts...)

	if s.registry != nil {
		s.pages = metric.NewCounterWithRegistry(s.registry,
			"pages_rendered_total", "Pages rendered by resolved anchor and resolution result.", "anchor", "result")
		s.failures = metric.NewCounterWithRegistry(s.registry,
			"page_failures_total", "Page renders that failed by reason.", "reason")
		s.latency = metric.NewHistogramWithRegistry(s.registry,
			"page_render_duration_seconds", "Time spent loading the descriptor and rendering a page.", "partial")
	}

	return s
}

// ServeHTTP renders the page selected by the content query parameter.
// HTMX requests targeting #content get only the content block and an
// out-of-band copy of the menu.
// Any failure is logged and answered with a generic server error.
func (s *Site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	anchor := r.URL.Query().Get(menu.ContentParam)
	partial := isContentRequest(r)

	log := logger.FromContext(ctx).With("anchor", anchor, "partial", partial)
	ctx = logger.WithContext(ctx, log)

	var buf bytes.Buffer
	entry, err := s.render(ctx, &buf, anchor, partial)
	s.latency.Observe(time.Since(start), fmt.Sprint(partial))
	if err != nil {
		reason := Reason(err)
		s.failures.Increment(reason)
		log.Error("error rendering page", "reason", reason, "error", err)
		http.Error(w, "Server error.", http.StatusInternalServerError)
		return
	}

	s.pages.Increment(entry.Anchor, result(anchor, entry))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Vary", "HX-Request, HX-Target")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Error("failed to write page", "error", err)
	}
}

// Render loads the descriptor and writes the complete page for anchor to w.
func (s *Site) Render(ctx context.Context, w io.Writer, anchor string) (menu.Entry, error) {
	return s.render(ctx, w, anchor, false)
}

func (s *Site) render(ctx context.Context, w io.Writer, anchor string, partial bool) (menu.Entry, error) {
	d, err := s.source.Load(ctx)
	if err != nil {
		return menu.Entry{}, err
	}

	if partial {
		return s.renderer.RenderContent(ctx, w, d, anchor)
	}
	return s.renderer.RenderPage(ctx, w, d, anchor)
}

// Descriptor loads the current descriptor.
func (s *Site) Descriptor(ctx context.Context) (*menu.Descriptor, error) {
	return s.source.Load(ctx)
}

// Check loads the descriptor and verifies that it has a default entry and
// that every entry, top-level or sub, has a fragment.
func (s *Site) Check(ctx context.Context) error {
	d, err := s.source.Load(ctx)
	if err != nil {
		return err
	}

	if _, err := d.Default(); err != nil {
		return err
	}

	var errs []error
	for _, e := range d.Entries() {
		if _, err := s.provider.Get(ctx, e.Anchor); err != nil {
			if errors.Is(err, content.ErrNotFound) {
				err = fmt.Errorf("%w for %s %q: %w", page.ErrMissingFragment, e.Kind, e.Anchor, err)
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Healthy reports the process as healthy; the site holds no state that can degrade.
func (s *Site) Healthy(context.Context) error {
	return nil
}

// Ready reports whether the descriptor and every fragment are available.
func (s *Site) Ready(ctx context.Context) error {
	return s.Check(ctx)
}

// Reason classifies a render error for logs and metrics.
func Reason(err error) string {
	switch {
	case errors.Is(err, menu.ErrEmptyDescriptor):
		return ReasonEmpty
	case errors.Is(err, page.ErrMissingFragment):
		return ReasonFragment
	case errors.Is(err, menu.ErrMalformedDescriptor), errors.Is(err, menu.ErrLoad):
		return ReasonDescriptor
	default:
		return ReasonInternal
	}
}

func result(requested string, entry menu.Entry) string {
	switch requested {
	case "":
		return ResultDefault
	case entry.Anchor:
		return ResultMatch
	default:
		return ResultFallback
	}
}

func isContentRequest(r *http.Request) bool {
	if !htmx.IsHTMX(r) {
		return false
	}
	target, ok := htmx.GetTarget(r)
	return ok && target == ContentTarget
}
