package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/numrent/numrent/internal/balance"
	"github.com/numrent/numrent/internal/catalog"
	"github.com/numrent/numrent/internal/config"
	"github.com/numrent/numrent/internal/deletion"
	"github.com/numrent/numrent/internal/expiry"
	"github.com/numrent/numrent/internal/notify"
	"github.com/numrent/numrent/internal/payment"
	"github.com/numrent/numrent/internal/rental"
	"github.com/numrent/numrent/internal/renting"
	"github.com/numrent/numrent/internal/routes"
	"github.com/numrent/numrent/internal/sweep"
)

// Collaborators are the external systems the core orchestrates. Nil fields
// fall back to static stubs so the service runs without credentials in
// development.
type Collaborators struct {
	Notifier   notify.Notifier
	InvoiceAPI payment.InvoiceAPI
	ChainAPI   payment.ChainAPI
	Platform   deletion.PlatformAPI
	Codes      deletion.CodeSource
	Probe      deletion.AvailabilityProbe
}

// Server wraps the Fiber application, domain services and background sweeps.
type Server struct {
	app *fiber.App
	cfg config.Config

	invoices  *payment.InvoiceRail
	chain     *payment.ChainRail
	scheduler *expiry.Scheduler
	deletions *deletion.Service
	logger    *slog.Logger
}

// New wires repositories, services and routes. Postgres-backed stores are
// used when a pool is provided, in-memory stores otherwise.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger, collab Collaborators) (*Server, error) {
	if collab.Notifier == nil {
		collab.Notifier = notify.NewLoggerNotifier(logger)
	}
	if collab.InvoiceAPI == nil {
		collab.InvoiceAPI = payment.StaticInvoiceAPI{}
	}
	if collab.ChainAPI == nil {
		collab.ChainAPI = payment.StaticChainAPI{}
	}
	if collab.Platform == nil {
		collab.Platform = deletion.StaticPlatform{}
	}
	if collab.Codes == nil {
		collab.Codes = deletion.StaticCodeSource{}
	}
	if collab.Probe == nil {
		collab.Probe = deletion.StaticProbe{Free: true}
	}

	var (
		catalogRepo catalog.Repository
		rentalRepo  rental.Repository
		balances    balance.Store
		invoiceRepo payment.PendingRepo
		orderRepo   payment.PendingRepo
		stateRepo   deletion.StateRepo
		guard       payment.CheckGuard
	)
	if db != nil {
		catalogRepo = catalog.NewPostgresRepository(db)
		rentalRepo = rental.NewPostgresRepository(db)
		balances = balance.NewPostgresStore(db)
		invoiceRepo = payment.NewPostgresRepository(db, "pending_invoices")
		orderRepo = payment.NewPostgresRepository(db, "pending_orders")
		stateRepo = deletion.NewPostgresStateRepo(db)
	} else {
		catalogRepo = catalog.NewMemoryRepository()
		rentalRepo = rental.NewMemoryRepository()
		balances = balance.NewInMemory()
		invoiceRepo = payment.NewMemoryRepository()
		orderRepo = payment.NewMemoryRepository()
		stateRepo = deletion.NewMemoryStateRepo()
	}
	if cache != nil {
		guard = payment.NewRedisGuard(cache)
	} else {
		guard = payment.NewMemoryGuard()
	}

	catalogSvc := catalog.NewService(catalogRepo)

	workflow := deletion.NewWorkflow(collab.Platform, collab.Codes, collab.Probe, catalogSvc, logger)
	deletions := deletion.NewService(workflow, stateRepo, collab.Probe, cfg.Platform2FAPassword, logger)

	rentalSvc := rental.NewService(rentalRepo, deletions)

	invoices := payment.NewInvoiceRail(collab.InvoiceAPI, invoiceRepo, balances, collab.Notifier, guard, cfg.InvoiceTTL, logger)
	chain := payment.NewChainRail(collab.ChainAPI, orderRepo, balances, collab.Notifier, cfg.ChainAddress, cfg.ChainTolerance, cfg.ChainFetchLimit, cfg.OrderRetention, logger)

	rentingSvc := renting.NewService(catalogSvc, rentalSvc, balances, invoices, chain, cfg.PageSize, logger)
	scheduler := expiry.NewScheduler(rentalSvc, collab.Notifier, cfg.WarningWindow, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	if err := routes.Setup(app, routes.Deps{
		Cfg:     cfg,
		Logger:  logger,
		Catalog: catalogSvc,
		Renting: rentingSvc,
	}); err != nil {
		return nil, err
	}

	return &Server{
		app:       app,
		cfg:       cfg,
		invoices:  invoices,
		chain:     chain,
		scheduler: scheduler,
		deletions: deletions,
		logger:    logger,
	}, nil
}

// StartBackground launches the deletion worker and the reconciliation and
// expiry sweeps. They stop when the context is cancelled.
func (s *Server) StartBackground(ctx context.Context) {
	go s.deletions.Run(ctx)
	go sweep.Run(ctx, s.logger, "expiry", s.cfg.ExpirySweepEvery, s.scheduler.Sweep)
	go sweep.Run(ctx, s.logger, "invoice-cleanup", s.cfg.InvoiceSweepEvery, s.invoices.Cleanup)
	go sweep.Run(ctx, s.logger, "invoice-poll", s.cfg.InvoiceSweepEvery, s.invoices.Sweep)
	go sweep.Run(ctx, s.logger, "chain-match", s.cfg.ChainSweepEvery, s.chain.Sweep)
	go sweep.Run(ctx, s.logger, "order-ageout", s.cfg.OrderAgeOutEvery, s.chain.AgeOut)
	go sweep.Run(ctx, s.logger, "deletion-finalize", s.cfg.FinalizeEvery, s.deletions.Finalize)
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
