package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"auctions/internal/config"
	"auctions/internal/events"
	"auctions/internal/http/handlers"
	applog "auctions/internal/log"
	"auctions/internal/repos"
)

func main() {
	cfg := config.Load()
	applog.SetLevel(cfg.LogLevel)

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
			applog.SetOutput(mw)
		}
	}

	ctx := context.Background()
	db, err := repos.OpenDB(ctx, repos.Options{
		Driver:   cfg.DBDriver,
		DSN:      cfg.DBDSN,
		MaxOpen:  cfg.DBMaxOpen,
		SeedDemo: cfg.SeedDemo,
	})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	// Domain events are optional
	var pub events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		np, err := events.NewNATSPublisher(cfg.NATSURL, cfg.NATSPrefix)
		if err != nil {
			log.Printf("[warn] events disabled: %v", err)
		} else {
			defer func() { _ = np.Close() }()
			pub = np
			log.Printf("[events] publishing to %s.*", cfg.NATSPrefix)
		}
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    1 << 20, // 1 MiB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{Output: applog.Writer()}))
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/healthz"
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "header:X-Csrf-Token",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		Next:           handlers.SkipCSRF,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"err": err.Error()})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "security check failed", "code": "FORBIDDEN"})
		},
	}))

	deps := handlers.NewDeps(db, cfg, pub)
	deps.Mount(app)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("[server] listen: %v", err)
		}
	}()
	log.Printf("[server] listening on :%s", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("[server] shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("[server] shutdown: %v", err)
	}
}
