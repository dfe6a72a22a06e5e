package page_test

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/mchmarny/docsite/pkg/content"
	"github.com/mchmarny/docsite/pkg/menu"
	"github.com/mchmarny/docsite/pkg/page"
)

func testDescriptor() *menu.Descriptor {
	return &menu.Descriptor{
		Items: []menu.Entry{
			{Anchor: "home", Title: "Home", Date: "2008-11-01", Kind: menu.KindTop},
			{Anchor: "download", Title: "Download", Date: "2008-11-02", Kind: menu.KindTop},
		},
		SubItems: []menu.Entry{
			{Anchor: "html", Title: "Reference Manual", Date: "2008-11-03", Kind: menu.KindSub},
		},
	}
}

func testProvider() content.MapProvider {
	return content.MapProvider{
		"home":     "<p>Welcome.</p>",
		"download": "<p>Get it.</p>",
		"html":     "<p>Manual.</p>",
	}
}

func ExampleRenderer_RenderPage() {
	r := page.New(testProvider(), page.WithChrome(page.Chrome{
		Title:      "MPC",
		Author:     "Andreas Enge",
		Stylesheet: "mpc.css",
	}))

	if _, err := r.RenderPage(context.Background(), os.Stdout, testDescriptor(), "download"); err != nil {
		panic(err)
	}

	// Output:
	// <!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN"
	// "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
	// <html xmlns="http://www.w3.org/1999/xhtml">
	// <head>
	// <title>MPC</title>
	// <link rel="stylesheet" type="text/css" href="mpc.css" />
	// <meta http-equiv="content-type" content="text/html; charset=utf-8"/>
	// </head>
	// <body>
	// <div id="header"><h1>MPC</h1></div>
	// <div id="menu"><ul hx-boost="true" hx-target="#content" hx-swap="outerHTML"><li><a href="?content=home">Home</a></li><li>Download</li></ul></div>
	// <div id="content"><h1>Download</h1>
	// <p>Get it.</p>
	// </div>
	// <div id="footer"><hr/>
	// <address>
	// Last changed on 2008-11-02 by Andreas Enge
	// </address>
	// </div>
	// </body>
	// </html>
}

func TestRenderPage(t *testing.T) {
	ctx := context.Background()
	r := page.New(testProvider(),
		page.WithChrome(page.Chrome{Title: "MPC", SelfURL: "/index"}),
		page.WithTracerProvider(noop.NewTracerProvider()),
	)

	tests := []struct {
		name      string
		anchor    string
		wantEntry string
		wantBody  string
		wantMenu  string
	}{
		{
			name:      "default",
			anchor:    "",
			wantEntry: "home",
			wantBody:  "<p>Welcome.</p>",
			wantMenu:  `<li>Home</li><li><a href="/index?content=download">Download</a></li>`,
		},
		{
			name:      "top-level entry",
			anchor:    "download",
			wantEntry: "download",
			wantBody:  "<p>Get it.</p>",
			wantMenu:  `<li><a href="/index?content=home">Home</a></li><li>Download</li>`,
		},
		{
			name:      "unknown anchor falls back",
			anchor:    "nonexistent",
			wantEntry: "home",
			wantBody:  "<p>Welcome.</p>",
			wantMenu:  `<li>Home</li><li><a href="/index?content=download">Download</a></li>`,
		},
		{
			name:      "sub entry",
			anchor:    "html",
			wantEntry: "html",
			wantBody:  "<p>Manual.</p>",
			wantMenu:  `<li><a href="/index?content=home">Home</a></li><li><a href="/index?content=download">Download</a></li>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			entry, err := r.RenderPage(ctx, &buf, testDescriptor(), tt.anchor)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEntry, entry.Anchor)

			out := buf.String()
			assert.Contains(t, out, "<h1>"+entry.Title+"</h1>")
			assert.Contains(t, out, tt.wantBody)
			assert.Contains(t, out, tt.wantMenu)
			assert.Contains(t, out, "Last changed on "+entry.Date)
			assert.NotContains(t, out, " by ")
		})
	}
}

func TestRenderPageBadges(t *testing.T) {
	r := page.New(testProvider(), page.WithChrome(page.Chrome{Title: "MPC", Static: "/static", Badges: true}))

	var buf bytes.Buffer
	_, err := r.RenderPage(context.Background(), &buf, testDescriptor(), "home")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `src="/static/w3c_xhtml10.png"`)
	assert.Contains(t, buf.String(), `src="/static/w3c_css.png"`)
	assert.NotContains(t, buf.String(), "<link")
}

func TestRenderPageEscapesDescriptorText(t *testing.T) {
	d := &menu.Descriptor{Items: []menu.Entry{
		{Anchor: "home", Title: "Home & <Away>", Date: "<today>"},
	}}
	r := page.New(content.MapProvider{"home": "<p>trusted</p>"})

	var buf bytes.Buffer
	_, err := r.RenderPage(context.Background(), &buf, d, "")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<h1>Home &amp; &lt;Away&gt;</h1>")
	assert.Contains(t, buf.String(), "Last changed on &lt;today&gt;")
	assert.Contains(t, buf.String(), "<p>trusted</p>")
}

func TestRenderPageMissingFragment(t *testing.T) {
	provider := testProvider()
	delete(provider, "download")
	r := page.New(provider)

	var buf bytes.Buffer
	entry, err := r.RenderPage(context.Background(), &buf, testDescriptor(), "download")
	require.ErrorIs(t, err, page.ErrMissingFragment)
	require.ErrorIs(t, err, content.ErrNotFound)
	assert.Equal(t, "download", entry.Anchor)
	assert.Zero(t, buf.Len(), "nothing is written on failure")
}

type failingProvider struct{}

func (failingProvider) Get(context.Context, string) (template.HTML, error) {
	return "", errors.New("disk on fire")
}

func TestRenderPageProviderFailure(t *testing.T) {
	r := page.New(failingProvider{})

	var buf bytes.Buffer
	_, err := r.RenderPage(context.Background(), &buf, testDescriptor(), "home")
	require.Error(t, err)
	assert.NotErrorIs(t, err, page.ErrMissingFragment)
	assert.Zero(t, buf.Len())
}

func TestRenderPageEmptyDescriptor(t *testing.T) {
	r := page.New(testProvider())

	var buf bytes.Buffer
	_, err := r.RenderPage(context.Background(), &buf, &menu.Descriptor{}, "home")
	require.ErrorIs(t, err, menu.ErrEmptyDescriptor)
	assert.Zero(t, buf.Len())
}

func TestRenderContent(t *testing.T) {
	r := page.New(testProvider(), page.WithChrome(page.Chrome{Title: "MPC"}))

	var buf bytes.Buffer
	entry, err := r.RenderContent(context.Background(), &buf, testDescriptor(), "download")
	require.NoError(t, err)
	assert.Equal(t, "download", entry.Anchor)
	assert.Equal(t, "<div id=\"content\"><h1>Download</h1>\n<p>Get it.</p>\n</div>\n"+
		`<div id="menu" hx-swap-oob="true"><ul hx-boost="true" hx-target="#content" hx-swap="outerHTML">`+
		`<li><a href="?content=home">Home</a></li><li>Download</li></ul></div>`, buf.String())
	assert.False(t, strings.Contains(buf.String(), "<html"))
}

func TestRenderContentMenuFollowsFallback(t *testing.T) {
	r := page.New(testProvider(), page.WithChrome(page.Chrome{SelfURL: "/"}))

	var buf bytes.Buffer
	entry, err := r.RenderContent(context.Background(), &buf, testDescriptor(), "nonexistent")
	require.NoError(t, err)
	assert.Equal(t, "home", entry.Anchor)
	assert.Contains(t, buf.String(), "<h1>Home</h1>")
	assert.Contains(t, buf.String(), `<li>Home</li><li><a href="/?content=download">Download</a></li>`)
}

func TestRenderPageScript(t *testing.T) {
	r := page.New(testProvider(), page.WithChrome(page.Chrome{Script: "/static/htmx.min.js"}))

	var buf bytes.Buffer
	_, err := r.RenderPage(context.Background(), &buf, testDescriptor(), "")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `<script type="text/javascript" src="/static/htmx.min.js"></script>`)

	buf.Reset()
	_, err = page.New(testProvider()).RenderPage(context.Background(), &buf, testDescriptor(), "")
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "<script")
}
