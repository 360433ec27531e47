package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"articleforge/internal/http/handlers"
	"articleforge/internal/infra"
	"articleforge/internal/middleware"
)

// Options configures the router middleware stack.
type Options struct {
	Logger          infra.Logger
	AllowedOrigins  []string
	RateLimitPerMin int
	Language        middleware.LanguageOptions
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
		middleware.Language(opts.Language),
	)

	r.Get("/v1/healthz", app.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))

		r.Post("/v1/audit", app.Audit)
		r.Route("/v1/jobs", func(r chi.Router) {
			r.Post("/", app.CreateJob)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", app.GetJob)
				r.Get("/sections", app.ListSections)
				r.Get("/article", app.Article)
				r.Post("/abort", app.AbortJob)
				r.Post("/autofix", app.AutoFix)
			})
		})
	})

	return r
}
