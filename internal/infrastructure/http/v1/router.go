// Package v1 provides HTTP API version 1.
package v1

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"fiskalis/internal/core/numerator"
	"fiskalis/internal/domain"
	"fiskalis/internal/domain/accounts"
	"fiskalis/internal/domain/advances"
	"fiskalis/internal/domain/audit"
	"fiskalis/internal/domain/auth"
	"fiskalis/internal/domain/company"
	"fiskalis/internal/domain/ledger"
	"fiskalis/internal/domain/partners"
	"fiskalis/internal/domain/pppdv"
	"fiskalis/internal/domain/vatrec"
	"fiskalis/internal/infrastructure/http/v1/handlers"
	"fiskalis/internal/infrastructure/http/v1/middleware"
	"fiskalis/internal/infrastructure/storage/postgres"
	"fiskalis/internal/infrastructure/storage/postgres/catalog_repo"
	"fiskalis/internal/infrastructure/storage/postgres/document_repo"
	"fiskalis/internal/infrastructure/storage/postgres/register_repo"
	"fiskalis/pkg/logger"
)

// RouterConfig holds everything the HTTP layer needs.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// TxManager handles transactions for all repositories
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService *auth.Service

	// Numerator for document number generation
	Numerator numerator.Generator

	// AccountRegistry validates accounts on journal lines.
	// Usually the LISTEN/NOTIFY backed cache.
	AccountRegistry ledger.AccountRegistry

	// Audit records entity changes. Nil disables auditing.
	Audit domain.AuditRecorder

	// Events receives lifecycle events (posted, reversed, allocated,
	// submitted). Defaults to the transactional outbox.
	Events domain.EventPublisher

	// IdempotencyEnabled enables idempotency middleware
	IdempotencyEnabled bool

	// IdempotencyTTL bounds how long completed responses are replayed
	IdempotencyTTL time.Duration
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	if cfg.Events == nil {
		cfg.Events = postgres.NewOutboxPublisher(cfg.TxManager)
	}

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, cfg)

		// Protected endpoints
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))
		protected.Use(middleware.Scope())

		// Idempotency for mutating operations
		if cfg.IdempotencyEnabled {
			ttl := cfg.IdempotencyTTL
			if ttl <= 0 {
				ttl = 10 * time.Minute
			}
			store := postgres.NewIdempotencyStore(cfg.Pool, cfg.TxManager, ttl)
			protected.Use(middleware.Idempotency(store))
		}

		registerCatalogRoutes(protected, cfg)
		registerLedgerRoutes(protected, cfg)
		registerAdvanceRoutes(protected, cfg)
		registerTaxRoutes(protected, cfg)
	}

	return router
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	publicAuth := rg.Group("/auth")

	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.Auth(cfg.JWTValidator))
	protectedAuth.Use(middleware.Scope())

	authHandler.RegisterRoutes(publicAuth, protectedAuth)
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	catalogs := rg.Group("/catalog")
	baseHandler := handlers.NewBaseHandler()

	// --- COMPANIES ---
	{
		repo := catalog_repo.NewCompanyRepo(cfg.TxManager)
		service := company.NewService(repo, cfg.TxManager)
		handler := handlers.NewCompanyHandler(baseHandler, service)
		RegisterCatalogRoutes(catalogs.Group("/companies"), handler, "catalog:company")
	}

	// --- PARTNERS ---
	{
		repo := catalog_repo.NewPartnerRepo(cfg.TxManager)
		service := partners.NewService(repo, cfg.TxManager)
		handler := handlers.NewPartnerHandler(baseHandler, service)

		group := catalogs.Group("/partners")
		RegisterCatalogRoutes(group, handler, "catalog:partner")
		group.GET("/by-pib/:pib", middleware.RequirePermission("catalog:partner:read"), handler.FindByPIB)
	}

	// --- CHART OF ACCOUNTS ---
	{
		repo := catalog_repo.NewAccountRepo(cfg.TxManager)
		service := accounts.NewService(repo, cfg.TxManager)
		handler := handlers.NewAccountHandler(baseHandler, service)
		RegisterCatalogRoutes(catalogs.Group("/accounts"), handler, "catalog:account")
	}
}

// registerLedgerRoutes registers journal entry endpoints.
func registerLedgerRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	repo := document_repo.NewJournalEntryRepo(cfg.TxManager)

	registry := cfg.AccountRegistry
	if registry == nil {
		accountRepo := catalog_repo.NewAccountRepo(cfg.TxManager)
		registry = accounts.NewService(accountRepo, cfg.TxManager)
	}

	service := ledger.NewService(repo, registry, cfg.Numerator, cfg.TxManager, nil, cfg.Audit)
	service.SetEventPublisher(cfg.Events)

	service.Hooks().OnBeforeCreate(func(ctx context.Context, entry *ledger.JournalEntry) error {
		audit.EnrichCreatedByDirect(ctx, &entry.CreatedBy, &entry.UpdatedBy)
		return nil
	})
	service.Hooks().OnBeforeUpdate(func(ctx context.Context, entry *ledger.JournalEntry) error {
		audit.EnrichUpdatedByDirect(ctx, &entry.UpdatedBy)
		return nil
	})

	handler := handlers.NewJournalEntryHandler(baseHandler, service)

	group := rg.Group("/ledger/entries")
	group.GET("", middleware.RequirePermission("ledger:read"), handler.List)
	group.POST("", middleware.RequirePermission("ledger:create"), handler.Create)
	group.GET("/:id", middleware.RequirePermission("ledger:read"), handler.Get)
	group.PUT("/:id", middleware.RequirePermission("ledger:update"), handler.Update)
	group.DELETE("/:id", middleware.RequirePermission("ledger:delete"), handler.Delete)
	group.POST("/:id/post", middleware.RequirePermission("ledger:post"), handler.Post)
	group.POST("/:id/reverse", middleware.RequirePermission("ledger:post"), handler.Reverse)
}

// registerAdvanceRoutes registers advance invoice endpoints.
func registerAdvanceRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	repo := document_repo.NewAdvanceInvoiceRepo(cfg.TxManager)
	partnerRepo := catalog_repo.NewPartnerRepo(cfg.TxManager)
	partnerService := partners.NewService(partnerRepo, cfg.TxManager)

	service := advances.NewService(repo, partnerService, cfg.Numerator, cfg.TxManager, cfg.Audit)
	service.SetEventPublisher(cfg.Events)

	service.Hooks().OnBeforeCreate(func(ctx context.Context, adv *advances.AdvanceInvoice) error {
		audit.EnrichCreatedByDirect(ctx, &adv.CreatedBy, &adv.UpdatedBy)
		return nil
	})

	handler := handlers.NewAdvanceInvoiceHandler(baseHandler, service)

	group := rg.Group("/advances")
	group.GET("", middleware.RequirePermission("advance:read"), handler.List)
	group.POST("", middleware.RequirePermission("advance:create"), handler.Create)
	group.GET("/:id", middleware.RequirePermission("advance:read"), handler.Get)
	group.DELETE("/:id", middleware.RequirePermission("advance:delete"), handler.Delete)
	group.POST("/:id/issue", middleware.RequirePermission("advance:update"), handler.Issue)
	group.POST("/:id/mark-paid", middleware.RequirePermission("advance:update"), handler.MarkPaid)
	group.POST("/:id/use", middleware.RequirePermission("advance:use"), handler.Use)
	group.POST("/:id/cancel", middleware.RequirePermission("advance:cancel"), handler.Cancel)
}

// registerTaxRoutes registers PPPDV report and VAT evidence endpoints.
func registerTaxRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	tax := rg.Group("/tax")

	recordRepo := register_repo.NewVATRecordRepo(cfg.TxManager)
	recordService := vatrec.NewService(recordRepo, cfg.TxManager)

	// --- VAT EVIDENCE ---
	{
		handler := handlers.NewVATRecordHandler(baseHandler, recordService)

		group := tax.Group("/vat-records")
		group.GET("", middleware.RequirePermission("tax:read"), handler.List)
		group.POST("", middleware.RequirePermission("tax:ingest"), handler.Ingest)
	}

	// --- PPPDV REPORTS ---
	{
		repo := document_repo.NewTaxReportRepo(cfg.TxManager)
		service := pppdv.NewService(repo, recordService, cfg.Numerator, cfg.TxManager, cfg.Audit)
		service.SetEventPublisher(cfg.Events)

		handler := handlers.NewTaxReportHandler(baseHandler, service)

		group := tax.Group("/reports")
		group.GET("", middleware.RequirePermission("tax:read"), handler.List)
		group.POST("", middleware.RequirePermission("tax:create"), handler.Create)
		group.POST("/preview", middleware.RequirePermission("tax:read"), handler.Preview)
		group.GET("/fields", middleware.RequirePermission("tax:read"), handler.Fields)
		group.GET("/:id", middleware.RequirePermission("tax:read"), handler.Get)
		group.POST("/:id/recalculate", middleware.RequirePermission("tax:update"), handler.Recalculate)
		group.POST("/:id/submit", middleware.RequirePermission("tax:submit"), handler.Submit)
		group.POST("/:id/outcome", middleware.RequirePermission("tax:submit"), handler.Outcome)
	}
}
