package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/naira-pay/naira_pay/internal/adjutor"
	"github.com/naira-pay/naira_pay/internal/config"
	"github.com/naira-pay/naira_pay/internal/identity"
	"github.com/naira-pay/naira_pay/internal/ledger"
	"github.com/naira-pay/naira_pay/internal/middleware"
	"github.com/naira-pay/naira_pay/internal/notification"
	"github.com/naira-pay/naira_pay/internal/store"
	"github.com/naira-pay/naira_pay/internal/txn"
	"github.com/naira-pay/naira_pay/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. Without a database
// or Redis (development only) the in-memory backends stand in, with the same
// atomic-unit and locking semantics.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	var (
		units      store.Manager
		walletRepo wallet.Repository
		entries    ledger.Store
		users      identity.Repository
	)
	if d.DB != nil {
		units = store.NewPgxManager(d.DB, d.Cfg.LockTimeout)
		walletRepo = wallet.NewPostgresRepository(d.DB)
		entries = ledger.NewPostgresStore(d.DB)
		users = identity.NewPostgresRepository(d.DB)
	} else {
		units = store.NewMemoryManager(d.Cfg.LockTimeout)
		walletRepo = wallet.NewMemoryRepository()
		entries = ledger.NewInMemory()
		users = identity.NewMemoryRepository()
	}

	var blacklist identity.Blacklist
	if d.Cfg.AdjutorAPIKey != "" {
		blacklist = adjutor.NewClient(d.Cfg.AdjutorBaseURL, d.Cfg.AdjutorAPIKey, d.Cache, d.Cfg.AdjutorCacheTTL, d.Logger)
	}

	identitySvc := identity.NewService(users, walletRepo, units, blacklist, d.Cfg.AdjutorFailOpen, d.Cfg.DefaultCurrency, d.Logger)
	notifier := notification.NewLoggerNotifier(d.Logger)
	coordinator := txn.NewCoordinator(units, walletRepo, entries, identitySvc, notifier, d.Logger)

	identityHandler := identity.NewHandler(identitySvc, middleware.AccountLocal)
	txnHandler := txn.NewHandler(coordinator, middleware.AccountLocal)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAuthRoutes(api, identityHandler)

	protected := api.Group("", middleware.BearerAccount(users))
	protected.Get("/me", identityHandler.Me)
	RegisterWalletRoutes(protected, txnHandler)

	return nil
}
