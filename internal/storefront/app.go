package storefront

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"CeazyStore/internal/catalog"
	"CeazyStore/internal/checkout"
	"CeazyStore/pkg/kit"
)

type Deps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	Store    catalog.Store
	Sessions checkout.SessionCreator
	Tokens   *checkout.TokenMaker

	PublicBaseURL string

	// AdminTokenHash is a bcrypt hash; when empty the admin routes are not
	// mounted at all.
	AdminTokenHash string

	MetricsEnabled bool
	MetricsToken   string

	RateLimit         int
	RateWindowSeconds int
}

func NewHandler(deps Deps) http.Handler {
	catalogSrv := &catalog.Server{Store: deps.Store, Log: deps.Log}
	checkoutSrv := &checkout.Server{
		Store:    deps.Store,
		Sessions: deps.Sessions,
		Tokens:   deps.Tokens,
		BaseURL:  deps.PublicBaseURL,
		Log:      deps.Log,
	}

	r := chi.NewRouter()
	setupMiddleware(r, deps)
	setupMetrics(r, deps)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 1*time.Second)
		defer cancel()

		if err := deps.Store.Ping(ctx); err != nil {
			if deps.Log != nil {
				deps.Log.Warn("readyz failed", zap.Error(err))
			}
			kit.WriteError(w, req, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	limiter := kit.NewIPRateLimiter(deps.RateLimit, deps.RateWindowSeconds)

	r.Route("/api", func(api chi.Router) {
		api.Get("/albums", catalogSrv.ListHandler())
		api.Get("/albums/{id}", catalogSrv.GetHandler())
		api.Get("/download/{token}", checkoutSrv.DownloadHandler())

		api.Group(func(pr chi.Router) {
			pr.Use(limiter.Middleware)
			pr.Post("/purchase/{id}", checkoutSrv.PurchaseHandler())
			pr.Post("/create-payment-intent", checkoutSrv.CreateSessionHandler())
		})
	})

	if deps.AdminTokenHash != "" {
		r.Route("/admin", func(ar chi.Router) {
			ar.Use(kit.BearerHashAuth(deps.AdminTokenHash))
			ar.Post("/albums", catalogSrv.CreateHandler())
		})
	}

	return r
}

func setupMiddleware(r *chi.Mux, deps Deps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))
}

func setupMetrics(r *chi.Mux, deps Deps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.RoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.BearerAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}
