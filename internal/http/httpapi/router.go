package httpapi

import (
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"dreamscape/internal/http/handlers"
	"dreamscape/internal/middleware"
)

type RouterOptions struct {
	CORSAllowedOrigins []string
	// RateLimitPerMin caps generation and download calls per client IP.
	// Zero disables the limit.
	RateLimitPerMin int
	// TrustedProxies may set the client address through forwarding headers.
	TrustedProxies []netip.Prefix
	Metrics        http.Handler
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP(opts.TrustedProxies),
		middleware.Logger(app.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSAllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/options", app.Options)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Post("/v1/prompts/match", app.PromptMatch)
	r.Get("/v1/generations/{id}", app.GenerationGet)

	// Anything that waits out the simulated latency or hits the image host.
	r.Group(func(r chi.Router) {
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}
		r.Post("/v1/images/generate", app.ImagesGenerate)
		r.Get("/v1/images/download", app.ImageDownload)
		r.Get("/v1/generations/{id}/archive", app.GenerationArchive)
	})

	return r
}
