package menu

import (
	"fmt"
	"html/template"
	"io"
	"net/url"
)

// ContentParam is the query parameter selecting the page to render.
const ContentParam = "content"

// Menu links are boosted by HTMX: when the script is loaded a click fetches
// only the #content block, which carries a fresh menu as an out-of-band swap.
// Without the script they are plain links.
var menuTemplate = template.Must(template.New("menu").Parse(
	`<div id="menu"{{ if .Swap }} hx-swap-oob="true"{{ end }}>` +
		`<ul hx-boost="true" hx-target="#content" hx-swap="outerHTML">` +
		`{{ range .Links }}<li>{{ if .Current }}{{ .Title }}{{ else }}<a href="{{ .Href }}">{{ .Title }}</a>{{ end }}</li>{{ end }}` +
		`</ul></div>`))

type menuView struct {
	Links []Link
	Swap  bool
}

// Link is a rendered navigation item.
type Link struct {
	Anchor string
	Title  string
	Href   string

	// Current is set for the entry of the page being shown; its link is disabled.
	Current bool
}

// Href returns the link to the page with the given anchor, relative to self.
func Href(self, anchor string) string {
	return self + "?" + ContentParam + "=" + url.QueryEscape(anchor)
}

// Links returns the navigation items for the top-level entries in
// descriptor order. The anchor is resolved first, so an empty or unknown
// anchor marks the default entry as current.
func (d *Descriptor) Links(anchor, self string) ([]Link, error) {
	current, err := d.Resolve(anchor)
	if err != nil {
		return nil, err
	}

	links := make([]Link, 0, len(d.Items))
	for _, e := range d.Items {
		links = append(links, Link{
			Anchor:  e.Anchor,
			Title:   e.Title,
			Href:    Href(self, e.Anchor),
			Current: e.Anchor == current.Anchor,
		})
	}
	return links, nil
}

// RenderMenu writes the navigation menu for the page selected by anchor.
// Sub entries never appear in the menu.
func (d *Descriptor) RenderMenu(w io.Writer, anchor, self string) error {
	return d.renderMenu(w, anchor, self, false)
}

// RenderMenuSwap writes the same menu as RenderMenu marked for an HTMX
// out-of-band swap, for responses that replace only the content block.
func (d *Descriptor) RenderMenuSwap(w io.Writer, anchor, self string) error {
	return d.renderMenu(w, anchor, self, true)
}

func (d *Descriptor) renderMenu(w io.Writer, anchor, self string, swap bool) error {
	links, err := d.Links(anchor, self)
	if err != nil {
		return err
	}

	if err := menuTemplate.Execute(w, menuView{Links: links, Swap: swap}); err != nil {
		return fmt.Errorf("failed to render menu: %w", err)
	}
	return nil
}
