package site

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mchmarny/docsite/pkg/menu"
	"github.com/mchmarny/docsite/pkg/server"
)

// Routes returns the site endpoints: the page itself at "/" and at the
// chrome's SelfURL, which menu links point to, and the descriptor as JSON
// at "/menu.json".
func (s *Site) Routes() map[string]http.Handler {
	routes := map[string]http.Handler{
		"/":          s,
		"/menu.json": menu.Handler(s.source),
	}
	if self := s.chrome.SelfURL; strings.HasPrefix(self, "/") {
		if _, taken := routes[self]; !taken {
			routes[self] = s
		}
	}
	return routes
}

// Run starts the HTTP server for the site and blocks until the context is
// canceled or an error occurs. Health and readiness probes are backed by
// the site itself.
func (s *Site) Run(ctx context.Context, opt ...server.Option) error {
	slog.Info("starting site", "source", s.source)

	opts := make([]server.Option, 0, len(opt)+4)
	opts = append(opts, opt...)
	for pattern, h := range s.Routes() {
		opts = append(opts, server.WithHandler(pattern, h))
	}
	opts = append(opts,
		server.WithHealthCheck(s),
		server.WithReadinessCheck(s),
	)

	return server.New(opts...).Serve(ctx)
}
