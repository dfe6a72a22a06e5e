package menu

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const list = `<ul hx-boost="true" hx-target="#content" hx-swap="outerHTML">`

func render(t *testing.T, d *Descriptor, anchor, self string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, d.RenderMenu(&buf, anchor, self))
	return buf.String()
}

func TestRenderMenu(t *testing.T) {
	tests := []struct {
		name   string
		anchor string
		self   string
		want   string
	}{
		{
			name:   "download is current",
			anchor: "download",
			want:   `<div id="menu">` + list + `<li><a href="?content=home">Home</a></li><li>Download</li></ul></div>`,
		},
		{
			name:   "unknown anchor highlights default",
			anchor: "nonexistent",
			want:   `<div id="menu">` + list + `<li>Home</li><li><a href="?content=download">Download</a></li></ul></div>`,
		},
		{
			name:   "unset anchor highlights default",
			anchor: "",
			want:   `<div id="menu">` + list + `<li>Home</li><li><a href="?content=download">Download</a></li></ul></div>`,
		},
		{
			name:   "self url prefixes links",
			anchor: "home",
			self:   "/mpc/index.php",
			want:   `<div id="menu">` + list + `<li>Home</li><li><a href="/mpc/index.php?content=download">Download</a></li></ul></div>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, render(t, scenario(), tt.anchor, tt.self)); diff != "" {
				t.Errorf("RenderMenu() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderMenuIdempotent(t *testing.T) {
	d := withSubs()
	before := *d
	first := render(t, d, "download", "")
	second := render(t, d, "download", "")
	assert.Equal(t, first, second)
	assert.Equal(t, before.Items, d.Items)
	assert.Equal(t, before.SubItems, d.SubItems)
}

func TestLinksExactlyOneCurrent(t *testing.T) {
	d := withSubs()
	for _, anchor := range []string{"", "home", "download", "applications", "nonexistent"} {
		links, err := d.Links(anchor, "")
		require.NoError(t, err)
		require.Len(t, links, len(d.Items))

		current := 0
		for i, l := range links {
			assert.Equal(t, d.Items[i].Anchor, l.Anchor, "descriptor order")
			if l.Current {
				current++
				want, _ := d.Resolve(anchor)
				assert.Equal(t, want.Anchor, l.Anchor)
			}
		}
		assert.Equal(t, 1, current, anchor)
	}
}

func TestRenderMenuExcludesSubEntries(t *testing.T) {
	d := withSubs()
	for _, anchor := range []string{"", "html", "download"} {
		out := render(t, d, anchor, "")
		assert.NotContains(t, out, "Reference Manual")
		assert.NotContains(t, out, "content=html")
		assert.Equal(t, len(d.Items), strings.Count(out, "<li>"))
	}
}

func TestRenderMenuSubEntryCurrent(t *testing.T) {
	// a sub entry page has no menu item, so every item is a link
	out := render(t, withSubs(), "html", "")
	assert.Equal(t, len(withSubs().Items), strings.Count(out, "<a href="))
}

func TestRenderMenuEscaping(t *testing.T) {
	d := &Descriptor{Items: []Entry{
		{Anchor: "home", Title: "Home"},
		{Anchor: "a&b", Title: "<b>Bold</b> & co"},
	}}
	out := render(t, d, "home", "")
	assert.Contains(t, out, `href="?content=a%26b"`)
	assert.Contains(t, out, `&lt;b&gt;Bold&lt;/b&gt; &amp; co`)
}

func TestRenderMenuEmptyDescriptor(t *testing.T) {
	var buf bytes.Buffer
	err := (&Descriptor{}).RenderMenu(&buf, "", "")
	require.ErrorIs(t, err, ErrEmptyDescriptor)
	assert.Zero(t, buf.Len())
}

func TestRenderMenuSwap(t *testing.T) {
	var swap bytes.Buffer
	require.NoError(t, scenario().RenderMenuSwap(&swap, "download", "/"))

	want := `<div id="menu" hx-swap-oob="true">` + list +
		`<li><a href="/?content=home">Home</a></li><li>Download</li></ul></div>`
	if diff := cmp.Diff(want, swap.String()); diff != "" {
		t.Errorf("RenderMenuSwap() mismatch (-want +got):\n%s", diff)
	}

	// same items as the in-page menu
	plain := render(t, scenario(), "download", "/")
	assert.Equal(t, strings.Replace(plain, `<div id="menu">`, `<div id="menu" hx-swap-oob="true">`, 1), swap.String())
}

func TestHref(t *testing.T) {
	assert.Equal(t, "?content=home", Href("", "home"))
	assert.Equal(t, "/?content=a%2Fb", Href("/", "a/b"))
}
