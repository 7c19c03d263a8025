package router

import (
	"time"

	"github.com/gin-gonic/gin"
	partnerapp "github.com/subhransupk/shelfcure-sub008/internal/application/partner"
	tradeapp "github.com/subhransupk/shelfcure-sub008/internal/application/trade"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/cache"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/logger"
	"github.com/subhransupk/shelfcure-sub008/internal/interfaces/http/handler"
	"github.com/subhransupk/shelfcure-sub008/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Dependencies are the services and settings the API is built from
type Dependencies struct {
	Logger         *zap.Logger
	Database       handler.Pinger
	Suppliers      *partnerapp.SupplierLedgerService
	Purchases      *tradeapp.PurchaseService
	Payments       *tradeapp.PaymentLedger
	Idempotency    cache.IdempotencyStore
	IdempotencyTTL time.Duration
	Tracing        middleware.TracingConfig
	Profiling      bool
	CORS           middleware.CORSConfig
	BodyLimit      int64
	TrustedProxies []string
	Version        string
}

// NewEngine builds the gin engine with the global middleware chain, the
// health endpoint and the /api/v1 routes.
func NewEngine(deps Dependencies) (*gin.Engine, error) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	bodyLimit := deps.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = middleware.DefaultBodyLimit
	}
	ttl := deps.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, err
	}
	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(deps.Tracing),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORS(deps.CORS),
		middleware.BodyLimit(bodyLimit),
	)

	system := handler.NewSystemHandler(deps.Database, deps.Version)
	engine.GET("/health", system.Health)

	chain := []gin.HandlerFunc{
		middleware.Tenant(middleware.TenantConfig{Logger: log}),
		middleware.User(),
		middleware.SpanAttributes(),
	}
	if deps.Profiling {
		chain = append(chain, middleware.Profiling())
	}
	r := NewRouter(engine, WithMiddleware(chain...))
	r.Register(SupplierRoutes(handler.NewSupplierHandler(deps.Suppliers)))
	r.Register(PurchaseRoutes(
		handler.NewPurchaseHandler(deps.Purchases, deps.Payments),
		middleware.Idempotency(deps.Idempotency, ttl),
	))
	r.Setup()

	return engine, nil
}
