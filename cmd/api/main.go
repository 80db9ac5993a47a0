package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go-pos-terminal/internal/client"
	"go-pos-terminal/internal/config"
	"go-pos-terminal/internal/handler"
	"go-pos-terminal/internal/metrics"
	"go-pos-terminal/internal/middleware"
	"go-pos-terminal/internal/model"
	"go-pos-terminal/internal/repository"
	"go-pos-terminal/internal/service"
	"go-pos-terminal/internal/terminal"
	"go-pos-terminal/internal/ws"
	"go-pos-terminal/pkg/database"
	"go-pos-terminal/pkg/jwt"
	"go-pos-terminal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.DSN(), zl)
	if err != nil {
		zl.Fatal("database unavailable", zap.Error(err))
	}
	if err := db.AutoMigrate(&model.User{}, &model.SubmissionRecord{}); err != nil {
		zl.Fatal("migration failed", zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub(zl.Named("ws"))
	go wsHub.Run(ctx)

	// 5. Dependency Injection (Wiring Layers)
	backend := m.Instrument(client.NewBackendClient(client.Options{
		BaseURL: cfg.BackendURL,
		Token:   cfg.BackendToken,
		Timeout: cfg.BackendTimeout,
	}))
	registry := terminal.NewRegistry(func(cashier string) *terminal.Controller {
		return terminal.New(backend, terminal.Options{
			Cashier:        cashier,
			RoundSubtotal:  cfg.RoundSubtotal,
			Messages:       terminal.MessagesFor(cfg.Locale),
			InvoiceBaseURL: cfg.InvoiceBaseURL,
			Currency:       cfg.Currency,
		})
	})

	userRepo := repository.NewUserRepo(db)
	submissionRepo := repository.NewSubmissionRepo(db)

	terminalService := service.NewTerminalService(registry, submissionRepo, wsHub, m, zl.Named("terminal"), service.TerminalOptions{
		IdleTimeout: cfg.SessionIdleTimeout,
	})
	authService := service.NewAuthService(userRepo, jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL), terminalService)
	userService := service.NewUserService(userRepo)

	// 6. Seed default admin
	if created, err := userService.SeedAdmin(); err != nil {
		zl.Warn("failed to seed admin user", zap.Error(err))
	} else if created {
		zl.Info("admin user created", zap.String("username", service.DefaultAdminUsername))
	}

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	terminalHandler := handler.NewTerminalHandler(terminalService)
	submissionHandler := handler.NewSubmissionHandler(terminalService)
	socketHandler := handler.NewSocketHandler(terminalService, wsHub, zl.Named("ws"))

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "POS Terminal v1.0",
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: strings.Join(cfg.CORSAllowOrigins, ",")}))

	if cfg.MetricsEnabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 8. Routes
	requireAuth := middleware.RequireAuth(authService)
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)

	// ============ PROTECTED ROUTES ============
	auth.Post("/logout", requireAuth, authHandler.Logout)
	auth.Get("/me", requireAuth, authHandler.Me)
	auth.Post("/change-password", requireAuth, authHandler.ChangePassword)
	auth.Post("/heartbeat", requireAuth, authHandler.Heartbeat)

	protected := api.Group("", requireAuth)

	term := protected.Group("/terminal", middleware.RequirePrivilege(model.PrivTerminalUse))
	term.Get("/", terminalHandler.Open)
	term.Post("/events", terminalHandler.Event)
	term.Post("/reload", terminalHandler.Reload)
	term.Post("/filter", terminalHandler.Filter)
	term.Post("/scan", terminalHandler.Scan)
	term.Post("/cart", terminalHandler.AddItem)
	term.Put("/cart/:index", terminalHandler.UpdateItem)
	term.Delete("/cart/:index", terminalHandler.RemoveItem)
	term.Delete("/cart", terminalHandler.Clear)
	term.Put("/form", terminalHandler.UpdateForm)
	term.Post("/pay", middleware.RequirePrivilege(model.PrivSaleCreate), terminalHandler.Pay)
	term.Post("/keys", terminalHandler.Key)

	protected.Get("/submissions", middleware.RequirePrivilege(model.PrivSaleView), submissionHandler.GetSubmissions)
	protected.Get("/submissions/summary", middleware.RequirePrivilege(model.PrivSaleView), submissionHandler.GetSummary)

	protected.Get("/users", middleware.RequirePrivilege(model.PrivUserManage), userHandler.GetUsers)
	protected.Post("/users", middleware.RequirePrivilege(model.PrivUserManage), userHandler.CreateUser)
	protected.Put("/users/:id", middleware.RequirePrivilege(model.PrivUserManage), userHandler.UpdateUser)

	// WebSocket Route
	app.Use("/ws", socketHandler.Upgrade)
	app.Get("/ws/terminal", requireAuth, middleware.RequirePrivilege(model.PrivTerminalUse), socketHandler.Serve())

	// 9. Idle session sweeper
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				terminalService.Sweep()
			}
		}
	}()

	// 10. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zl.Panic("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down server")
	stop()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zl.Fatal("server forced to shutdown", zap.Error(err))
	}

	zl.Info("server exited")
}
