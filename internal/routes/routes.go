package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/numrent/numrent/internal/catalog"
	"github.com/numrent/numrent/internal/config"
	"github.com/numrent/numrent/internal/middleware"
	"github.com/numrent/numrent/internal/renting"
)

// Deps aggregates the services required to wire routes.
type Deps struct {
	Cfg     config.Config
	Logger  *slog.Logger
	Catalog *catalog.Service
	Renting *renting.Service
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	rentingHandler := renting.NewHandler(d.Renting)
	catalogHandler := catalog.NewHandler(d.Catalog)

	api := app.Group("/api/v1")

	api.Get("/identities", rentingHandler.List)
	api.Post("/identities/:identityId/rent", rentingHandler.Rent)
	api.Post("/identities/:identityId/extend", rentingHandler.Extend)
	api.Post("/identities/:identityId/transfer", rentingHandler.Transfer)
	api.Delete("/identities/:identityId/rent", rentingHandler.Cancel)

	api.Get("/renters/:renterId/balance", rentingHandler.Balance)
	api.Post("/topups/invoice", rentingHandler.TopUpInvoice)
	api.Post("/topups/invoice/:invoiceId/check", rentingHandler.CheckInvoice)
	api.Post("/topups/chain", rentingHandler.TopUpChain)

	admin := api.Group("/admin", middleware.AdminAuth(d.Cfg.AdminTokenHash))
	admin.Post("/identities", catalogHandler.Upsert)
	admin.Patch("/identities/:identityId/availability", catalogHandler.SetAvailability)
	admin.Post("/identities/:identityId/ban", catalogHandler.Ban)

	return nil
}
