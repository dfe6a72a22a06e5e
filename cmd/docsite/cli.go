package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mchmarny/docsite/pkg/config"
	"github.com/mchmarny/docsite/pkg/content"
	"github.com/mchmarny/docsite/pkg/logger"
	"github.com/mchmarny/docsite/pkg/menu"
	"github.com/mchmarny/docsite/pkg/page"
	"github.com/mchmarny/docsite/pkg/site"
	"github.com/mchmarny/docsite/web"
)

const appName = "docsite"

// Global is bound to every command's Run method.
type Global struct {
	CLI *CLI
	Out io.Writer
}

// CLI definition and global flags.
type CLI struct {
	Config   string           `short:"c" help:"Configuration file path; the embedded site is served when empty" type:"path"`
	LogLevel string           `name:"log-level" help:"Log level (debug, info, warn, error); overrides the config file"`
	Version  kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve  ServeCmd  `cmd:"" default:"withargs" help:"Serve the site over HTTP"`
	Render RenderCmd `cmd:"" help:"Render a single page"`
	Menu   MenuCmd   `cmd:"" help:"Print the menu descriptor as JSON"`
	Check  CheckCmd  `cmd:"" help:"Verify that every menu entry has a content fragment"`
}

// load reads the configuration and installs the default logger.
func (c *CLI) load() (*config.Config, error) {
	cfg := config.Default()
	if c.Config != "" {
		var err error
		if cfg, err = config.Load(c.Config); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	logger.SetDefaultLoggerWithLevel(appName, version, cfg.Log.Level)

	return cfg, nil
}

// sources returns the descriptor source and fragment provider configured
// in cfg, falling back to the embedded site.
func sources(cfg *config.Config) (menu.Source, content.Provider) {
	if cfg.Embedded() {
		return menu.FSSource{FS: web.Content(), Name: web.DescriptorName}, content.NewFSProvider(web.Content())
	}
	return menu.FileSource{Path: cfg.Site.Descriptor}, content.NewFSProvider(os.DirFS(cfg.Site.ContentDir))
}

// staticFS returns the file system served under /static.
func staticFS(cfg *config.Config) fs.FS {
	if cfg.Site.StaticDir != "" {
		return os.DirFS(cfg.Site.StaticDir)
	}
	return web.Static()
}

func newSite(cfg *config.Config, reg prometheus.Registerer) *site.Site {
	src, provider := sources(cfg)

	opts := []site.Option{site.WithChrome(page.Chrome{
		Title:      cfg.Site.Title,
		Author:     cfg.Site.Author,
		Stylesheet: cfg.Site.Stylesheet,
		SelfURL:    cfg.Site.SelfURL,
		Static:     staticPrefix,
		Script:     cfg.Site.HTMXScript,
		Badges:     cfg.Site.Badges,
	})}
	if reg != nil {
		opts = append(opts, site.WithRegistry(reg))
	}

	return site.New(src, provider, opts...)
}
