package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vivetti/salesdesk-backend/api/controllers"
	"github.com/vivetti/salesdesk-backend/api/middleware"
	"github.com/vivetti/salesdesk-backend/internal/auth"
	"github.com/vivetti/salesdesk-backend/internal/catalog"
	"github.com/vivetti/salesdesk-backend/internal/quotes"
	"github.com/vivetti/salesdesk-backend/internal/sales"
	"github.com/vivetti/salesdesk-backend/pkg/auth/session"
	"github.com/vivetti/salesdesk-backend/pkg/config"
	"github.com/vivetti/salesdesk-backend/pkg/enums"
	"github.com/vivetti/salesdesk-backend/pkg/logger"
	pkgredis "github.com/vivetti/salesdesk-backend/pkg/redis"
)

// RedisStore is the slice of the redis client the HTTP layer relies on.
type RedisStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Ping(ctx context.Context) error
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        controllers.Pinger
	Redis     RedisStore
	Warehouse controllers.Pinger
	Sessions  session.AccessSessionChecker
	Metrics   http.Handler

	Auth    auth.Service
	Catalog catalog.Service
	Quotes  quotes.Service
	Sales   sales.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)

	var checks []controllers.ReadinessCheck
	if deps.DB != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "database", Pinger: deps.DB})
	}
	if deps.Redis != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "redis", Pinger: deps.Redis})
	}
	if deps.Warehouse != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "warehouse", Pinger: deps.Warehouse})
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg, checks...))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		// Inline so the idempotency guard sees the full route pattern.
		guarded := r.With(middleware.Idempotency(deps.Redis, logg))

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/articles", controllers.CatalogSearchArticles(deps.Catalog, logg))
			r.Get("/articles/{code}", controllers.CatalogGetArticle(deps.Catalog, logg))
			r.Get("/customers", controllers.CatalogListCustomers(deps.Catalog, logg))
		})

		guarded.Post("/quotes/drafts", controllers.QuoteOpenDraft(deps.Quotes, logg))
		r.Get("/quotes/drafts/{draftId}", controllers.QuoteGetDraft(deps.Quotes, logg))
		r.Delete("/quotes/drafts/{draftId}", controllers.QuoteDiscardDraft(deps.Quotes, logg))
		r.Post("/quotes/drafts/{draftId}/lines", controllers.QuoteAddLine(deps.Quotes, logg))
		r.Patch("/quotes/drafts/{draftId}/lines/{index}", controllers.QuoteUpdateLine(deps.Quotes, logg))
		r.Delete("/quotes/drafts/{draftId}/lines/{index}", controllers.QuoteRemoveLine(deps.Quotes, logg))
		r.Post("/quotes/drafts/{draftId}/preview", controllers.QuotePreviewDraft(deps.Quotes, logg))
		guarded.Post("/quotes/drafts/{draftId}/save", controllers.QuoteSaveDraft(deps.Quotes, logg))

		r.Get("/quotes", controllers.QuoteList(deps.Quotes, logg))
		r.Get("/quotes/{documentId}/pdf", controllers.QuoteDownload(deps.Quotes, logg))
		guarded.Post("/quotes/{documentId}/edit", controllers.QuoteEdit(deps.Quotes, logg))

		r.Route("/sales", func(r chi.Router) {
			r.Get("/performance", controllers.SalesPerformance(deps.Sales, logg))
			r.With(middleware.RequireRole(logg, enums.OperatorRoleAdmin)).Get("/agents", controllers.SalesAgents(deps.Sales, logg))
			r.Get("/customers", controllers.SalesCustomers(deps.Sales, logg))
			r.Get("/customers/{name}", controllers.SalesCustomerReport(deps.Sales, logg))
		})
	})

	return r
}
