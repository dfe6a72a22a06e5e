package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	Anchor string `short:"a" help:"Anchor of the page to render; the default page when empty"`
	Output string `short:"o" help:"Write the page to this file instead of stdout" type:"path"`
}

func (r *RenderCmd) Run(g *Global) error {
	cfg, err := g.CLI.load()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	entry, err := newSite(cfg, nil).Render(context.Background(), &buf, r.Anchor)
	if err != nil {
		return err
	}

	if err := r.write(g.Out, &buf); err != nil {
		return err
	}

	slog.Debug("page rendered", "requested", r.Anchor, "anchor", entry.Anchor, "output", r.Output)
	return nil
}

// write copies the rendered page to the output file, or to out when none is set.
func (r *RenderCmd) write(out io.Writer, page *bytes.Buffer) (err error) {
	if r.Output == "" {
		_, err = page.WriteTo(out)
		return err
	}

	f, err := os.Create(r.Output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()

	if _, err := page.WriteTo(f); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// MenuCmd implements the 'menu' command.
type MenuCmd struct{}

func (m *MenuCmd) Run(g *Global) error {
	cfg, err := g.CLI.load()
	if err != nil {
		return err
	}

	d, err := newSite(cfg, nil).Descriptor(context.Background())
	if err != nil {
		return err
	}

	return writeJSON(g.Out, d.ToJSON())
}

// CheckCmd implements the 'check' command.
type CheckCmd struct{}

func (c *CheckCmd) Run(g *Global) error {
	cfg, err := g.CLI.load()
	if err != nil {
		return err
	}

	if err := newSite(cfg, nil).Check(context.Background()); err != nil {
		return err
	}

	_, err = fmt.Fprintln(g.Out, "ok")
	return err
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
