package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"wallpaper/internal/http/handlers"
	"wallpaper/internal/infra"
	"wallpaper/internal/middleware"
)

// Config carries the router's tunables.
type Config struct {
	CORSOrigins     []string
	RateLimitPerMin int
	// Metrics serves /metrics when set.
	Metrics http.Handler
	Logger  infra.Logger
}

func NewRouter(app *handlers.App, cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.GetHead,
		middleware.Logger(cfg.Logger),
		middleware.CORS(cfg.CORSOrigins),
	)

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/options", app.Options)
		r.Get("/state", app.State)
		r.Get("/events", app.Events)

		r.Get("/wallpaper/image", app.CurrentImage)
		r.Get("/wallpaper/download", app.Download)
		r.Get("/history/{id}/image", app.HistoryImage)

		// Controls
		r.Group(func(r chi.Router) {
			if cfg.RateLimitPerMin > 0 {
				r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
			}
			r.Post("/pause", app.TogglePause)
			r.Post("/regenerate", app.Regenerate)
			r.Patch("/selection", app.UpdateSelection)
			r.Post("/history/{id}/select", app.SelectHistory)
		})
	})

	return r
}
