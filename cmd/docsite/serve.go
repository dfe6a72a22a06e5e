package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mchmarny/docsite/pkg/server"
)

const staticPrefix = "/static"

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Port int `short:"p" help:"Port to listen on; overrides the config file"`
}

func (s *ServeCmd) Run(g *Global) error {
	cfg, err := g.CLI.load()
	if err != nil {
		return err
	}
	if s.Port != 0 {
		cfg.Server.Port = s.Port
	}

	slog.Info("starting docsite", "commit", commit, "date", date, "embedded", cfg.Embedded())

	opts := []server.Option{
		server.WithPort(cfg.Server.Port),
		server.WithReadTimeout(cfg.Server.ReadTimeout),
		server.WithWriteTimeout(cfg.Server.WriteTimeout),
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		server.WithStatic(staticPrefix, staticFS(cfg)),
	}
	if cfg.Server.TLSCertFile != "" {
		opts = append(opts, server.WithTLS(server.TLSConfig{
			CertFile: cfg.Server.TLSCertFile,
			KeyFile:  cfg.Server.TLSKeyFile,
		}))
	}

	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		opts = append(opts, server.WithRegistry(reg), server.WithPrometheusMetrics())
	}

	st := newSite(cfg, registerer(reg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return st.Run(ctx, opts...)
}

// registerer avoids handing a typed nil registry to the site.
func registerer(reg *prometheus.Registry) prometheus.Registerer {
	if reg == nil {
		return nil
	}
	return reg
}
