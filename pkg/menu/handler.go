package menu

import (
	"encoding/json"
	"net/http"

	"github.com/mchmarny/docsite/pkg/logger"
)

// Handler returns an HTTP handler that responds with the descriptor loaded
// from src as JSON. The descriptor is loaded on every request.
func Handler(src Source) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())
		log.Debug("handling menu request",
			"method", r.Method,
			"url", r.URL.Path,
		)

		d, err := src.Load(r.Context())
		if err != nil {
			log.Error("failed to load menu", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(d.ToJSON()); err != nil {
			log.Error("failed to encode menu", "error", err)
			return
		}

		log.Debug("menu response sent",
			"items", len(d.Items),
			"sub_items", len(d.SubItems),
			"status", http.StatusOK,
		)
	})
}
