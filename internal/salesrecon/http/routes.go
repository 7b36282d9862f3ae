package saleshttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the sale-line endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/", h.handleList)
	r.Get("/columns", h.handleColumns)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/export.csv", h.handleCSV)
	})
}
