package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/go4it/builder/internal/builder"
	"github.com/go4it/builder/internal/config"
	"github.com/go4it/builder/internal/database"
	"github.com/go4it/builder/internal/deploy"
	"github.com/go4it/builder/internal/events"
	"github.com/go4it/builder/internal/generator"
	"github.com/go4it/builder/internal/handlers"
	"github.com/go4it/builder/internal/jobs"
	"github.com/go4it/builder/internal/middleware"
	"github.com/go4it/builder/internal/runtime"
	"github.com/go4it/builder/internal/screenshot"
	"github.com/go4it/builder/internal/services"
	"github.com/go4it/builder/internal/types"
	"github.com/go4it/builder/internal/workspace"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	swagger "github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	_ "github.com/go4it/builder/docs/api" // Swagger docs
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

// @title GO4IT Builder API
// @version 1.0.0
// @description Background generation, iteration and deployment jobs for the GO4IT platform
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/go4it/builder

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:4001
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	bus := newEventBus(cfg)
	defer bus.Close()

	b := newBuilder(cfg, db, bus)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		AppName:      "go4it-builder " + Version,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(compress.New(compress.Config{
		// Compression buffers the whole body, which would stall event streams
		Next: func(c *fiber.Ctx) bool {
			return c.Get(fiber.HeaderAccept) == "text/event-stream"
		},
	}))
	app.Use(middleware.VersionHeader(Version))

	// Prometheus metrics
	prometheus := fiberprometheus.New("go4it_builder")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	jobHandler := &handlers.JobHandler{Builder: b}

	// Liveness is unauthenticated for the platform's probes
	app.Get("/health", jobHandler.Health)

	// Job routes, called by the web app with the shared secret
	serviceAuth := middleware.AuthService(cfg.BuilderSecret)
	app.Post("/generate", serviceAuth, jobHandler.Generate)
	app.Post("/iterate", serviceAuth, jobHandler.Iterate)
	app.Post("/cancel", serviceAuth, jobHandler.Cancel)
	app.Post("/deploy", serviceAuth, jobHandler.Deploy)
	app.Delete("/workspace/:id", serviceAuth, jobHandler.DeleteWorkspace)

	// Owner-scoped status routes, called by browsers with an Authorizer session
	if cfg.AuthzURL != "" {
		authz := services.NewAuthorizer(cfg)
		genHandler := &handlers.GenerationHandler{DB: db, Events: b.Events()}
		api := app.Group("/api", middleware.AuthUser(authz))
		api.Get("/generations/:id", genHandler.GetGeneration)
		api.Get("/generations/:id/events", genHandler.StreamEvents)
		log.Printf("Authorizer will be initialized on first authenticated request")
	} else {
		log.Printf("AUTHZ_URL not set, generation status routes disabled")
	}

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	go b.RunReaper(reaperCtx, cfg.PreviewReapInterval)

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		stopReaper()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.KillGracePeriod+5*time.Second)
		defer cancel()
		if err := b.Shutdown(ctx); err != nil {
			log.Printf("Jobs did not stop in time: %v", err)
		}
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

func newEventBus(cfg *config.Config) events.Bus {
	if cfg.RedisAddr == "" {
		return events.NewMemoryBus()
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	log.Printf("Publishing generation events through Redis at %s", cfg.RedisAddr)
	return events.NewRedisBus(rdb)
}

func newBuilder(cfg *config.Config, db *gorm.DB, bus events.Bus) *builder.Builder {
	rt := runtime.NewExecRuntime(nil)

	opts := builder.Options{
		DB:         db,
		Jobs:       jobs.NewRegistry(),
		Workspaces: workspace.NewManager(cfg.WorkspaceRoot),
		Generator:  generator.New(rt, cfg.GeneratorCommand, cfg.GeneratorArgs, cfg.GeneratorTimeout, cfg.KillGracePeriod),
		Events:     bus,
		PreviewTTL: cfg.PreviewTTL,
	}

	if cfg.FlyEnabled {
		opts.Deployer = deploy.NewFly(rt, deploy.FlyConfig{
			Command:     cfg.FlyCommand,
			APIToken:    cfg.FlyAPIToken,
			Org:         cfg.FlyOrg,
			Region:      cfg.FlyRegion,
			Timeout:     cfg.GeneratorTimeout,
			GracePeriod: cfg.KillGracePeriod,
		})
		log.Printf("Fly deployments enabled for org %s in %s", cfg.FlyOrg, cfg.FlyRegion)
	}

	if cfg.ScreenshotEnabled {
		opts.Capturer = screenshot.New(screenshot.Options{
			ExecPath:    cfg.ChromePath,
			Timeout:     cfg.ScreenshotTimeout,
			SettleDelay: cfg.ScreenshotSettleDelay,
			MaxBrowsers: int64(cfg.MaxBrowsers),
		})
	}

	return builder.New(opts)
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	// Check if it's a Fiber error
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	// Middleware failures carry their own status and type
	var customErr *types.CustomError
	if errors.As(err, &customErr) {
		code = customErr.Code
		message = customErr.Message
		errorType = customErr.Type
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    code,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}
