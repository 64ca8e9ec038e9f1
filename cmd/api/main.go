package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"blood-donation/internal/config"
	"blood-donation/internal/domain"
	"blood-donation/internal/handler"
	"blood-donation/internal/middleware"
	"blood-donation/internal/repository"
	"blood-donation/internal/service"
	"blood-donation/internal/service/compatibility"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat, "blood-donation-api")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	rules, err := compatibility.LoadRules(cfg.CompatibilityRulesFile)
	if err != nil {
		logger.Fatal("failed to load compatibility rules", zap.Error(err))
	}
	engine, err := compatibility.New(rules)
	if err != nil {
		logger.Fatal("invalid compatibility rules", zap.Error(err))
	}

	db, err := config.NewPostgresDB(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redis, err := config.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redis.Close()

	minioClient, err := config.NewMinIOClient(cfg, logger)
	if err != nil {
		logger.Warn("failed to connect to minio, image uploads disabled", zap.Error(err))
		minioClient = nil
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, redis, minioClient, engine, cfg, logger)
	handlers := handler.NewHandlers(services)

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		BodyLimit:    8 << 20,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	setupRoutes(app, handlers, services, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.String("port", cfg.Port))
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		return services.Sweeper(cfg.SweepInterval, logger).Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func setupRoutes(app *fiber.App, h *handler.Handlers, services *service.Services, cfg *config.Config) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1")

	v1.Post("/webhooks/identity", middleware.VerifyWebhook(cfg.WebhookSecret), h.Webhook.Identity)

	v1.Get("/blood-types", h.Lookup.ListBloodTypes)
	v1.Get("/compatibility/donors", h.Lookup.Donors)
	v1.Get("/compatibility/recipients", h.Lookup.Recipients)
	v1.Get("/campaigns", h.Campaign.List)
	v1.Get("/campaigns/:id", h.Campaign.Get)
	v1.Get("/blogs", h.Blog.ListPublished)
	v1.Get("/blogs/:id", h.Blog.GetPublished)

	staff := middleware.RequireRole(domain.RoleStaff)
	admin := middleware.RequireRole(domain.RoleAdmin)

	protected := v1.Group("", middleware.AuthRequired(services.Auth))

	accounts := protected.Group("/accounts")
	accounts.Get("/me", h.Account.Me)
	accounts.Put("/me", h.Account.UpdateMe)
	accounts.Put("/me/customer", middleware.RequireRole(domain.RoleCustomer), h.Account.UpdateCustomerProfile)
	accounts.Get("/", admin, h.Account.List)
	accounts.Patch("/:id/role", admin, h.Account.AssignRole)

	campaigns := protected.Group("/campaigns")
	campaigns.Post("/", staff, h.Campaign.Create)
	campaigns.Put("/:id", staff, h.Campaign.Update)
	campaigns.Post("/:id/banner", staff, h.Campaign.UploadBanner)
	campaigns.Post("/:id/donations", middleware.RequireRole(domain.RoleCustomer), h.Campaign.Enroll)
	campaigns.Get("/:id/donations", staff, h.Campaign.ListDonations)

	donations := protected.Group("/donations")
	donations.Get("/me", h.Donation.ListMine)
	donations.Get("/:id", h.Donation.Get)
	donations.Get("/:id/logs", h.Donation.Logs)
	donations.Patch("/:id/status", h.Donation.UpdateStatus)

	inventory := protected.Group("/inventory")
	inventory.Get("/me", middleware.RequireRole(domain.RoleCustomer), h.Inventory.ListMine)

	units := inventory.Group("/blood-units", staff)
	units.Post("/", h.Inventory.Create)
	units.Get("/", h.Inventory.List)
	units.Get("/compatible", h.Inventory.SearchCompatible)
	units.Get("/:id", h.Inventory.Get)
	units.Patch("/:id", h.Inventory.Update)
	units.Patch("/:id/status", h.Inventory.UpdateStatus)
	units.Post("/:id/separate", h.Inventory.Separate)
	units.Get("/:id/actions", h.Inventory.Actions)

	emergencies := protected.Group("/emergency-requests")
	emergencies.Post("/", middleware.RequireRole(domain.RoleHospital, domain.RoleCustomer), h.Emergency.Create)
	emergencies.Get("/", h.Emergency.List)
	emergencies.Post("/bulk-reject", staff, h.Emergency.BulkReject)
	emergencies.Get("/:id", h.Emergency.Get)
	emergencies.Put("/:id", h.Emergency.Update)
	emergencies.Get("/:id/logs", h.Emergency.Logs)
	emergencies.Post("/:id/approve", staff, h.Emergency.Approve)
	emergencies.Post("/:id/reject", staff, h.Emergency.Reject)
	emergencies.Post("/:id/wait-for-donor", staff, h.Emergency.WaitForDonor)
	emergencies.Post("/:id/provide-contacts", staff, h.Emergency.ProvideContacts)

	drafts := protected.Group("/staff/blogs", staff)
	drafts.Get("/", h.Blog.List)
	drafts.Get("/:id", h.Blog.Get)

	blogs := protected.Group("/blogs", staff)
	blogs.Post("/", h.Blog.Create)
	blogs.Put("/:id", h.Blog.Update)
	blogs.Delete("/:id", h.Blog.Delete)
	blogs.Post("/:id/image", h.Blog.UploadImage)

	protected.Get("/dashboard/stats", staff, h.Dashboard.GetStats)
}
