package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/arturoeanton/finsentsis/internal/adapter/ai"
	"github.com/arturoeanton/finsentsis/internal/adapter/catalog"
	"github.com/arturoeanton/finsentsis/internal/adapter/store"
	"github.com/arturoeanton/finsentsis/internal/handler"
	"github.com/arturoeanton/finsentsis/internal/mcp"
	"github.com/arturoeanton/finsentsis/internal/middleware"
	"github.com/arturoeanton/finsentsis/internal/port"
	"github.com/arturoeanton/finsentsis/internal/service"
	"github.com/arturoeanton/finsentsis/internal/workflow"
	"github.com/arturoeanton/finsentsis/pkg/config"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("🚀 Starting Finsentsis",
		"port", cfg.Port,
		"copilot", cfg.EffectiveProvider(),
		"persistent_audit", cfg.Persistent(),
		"mcp_enabled", cfg.MCPEnabled,
	)

	// ── Catalog ──────────────────────────────────────────────────────────
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	// ── Audit trail ──────────────────────────────────────────────────────
	auditStore, closeStore, err := openAuditStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// ── Copilot collaborator ─────────────────────────────────────────────
	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return err
	}

	// ── Services ─────────────────────────────────────────────────────────
	clock := workflow.SystemClock{}
	jwtCfg := middleware.JWTConfig{
		Secret:    cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
		ExpiresIn: time.Duration(cfg.JWTExpiration) * time.Hour,
	}

	sessions := store.NewMemorySessionStore()
	auditService := service.NewAuditService(auditStore, cat.AuditLogs, clock)
	sessionService := service.NewSessionService(sessions, cat, auditService, jwtCfg, clock)
	complianceService := service.NewComplianceService(sessions, cat)
	taskService := service.NewTaskService(sessions, auditService, clock)

	scanCfg := workflow.DefaultScannerConfig()
	scanCfg.Interval = cfg.ScanInterval
	scanCfg.CompletionDelay = cfg.ScanCompleteDelay
	copilotService := service.NewCopilotService(cat, provider, sessions, auditService, clock, service.CopilotConfig{
		Scanner:       scanCfg,
		RatePerMinute: cfg.CopilotRatePerMin,
		MaxInflight:   int64(cfg.CopilotMaxInflight),
	})

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:     cfg.AppName,
		ReadTimeout: 30 * time.Second,
		// no WriteTimeout: the scan stream stays open for the whole walkthrough
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	// Audit middleware (records state-changing requests)
	app.Use(middleware.AuditMiddleware(auditService))

	handler.Mount(app, handler.Handlers{
		Auth:       handler.NewAuthHandler(sessionService),
		Compliance: handler.NewComplianceHandler(complianceService),
		Tasks:      handler.NewTaskHandler(taskService),
		Audit:      handler.NewAuditHandler(auditService),
		Copilot:    handler.NewCopilotHandler(copilotService),
	}, middleware.JWTMiddleware(jwtCfg), cfg.AppName)

	// ── Start ────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("🌐 Fiber listening", "port", cfg.Port)
		return app.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true})
	})

	// ── MCP Server (separate port) ───────────────────────────────────────
	if cfg.MCPEnabled {
		mcpServer := mcp.NewServer(cat, cfg.MCPPort)
		g.Go(func() error {
			return mcpServer.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Stop accepting requests before waiting on copilot background work.
		var errs []error
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		copilotCtx, cancelCopilot := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelCopilot()
		if err := copilotService.Shutdown(copilotCtx); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath != "" {
		slog.Info("loading catalog", "path", cfg.CatalogPath)
		return catalog.LoadFile(cfg.CatalogPath)
	}
	return catalog.Load()
}

func openAuditStore(cfg *config.Config) (port.AuditStore, func(), error) {
	if !cfg.Persistent() {
		slog.Warn("DATABASE_URL not set, audit trail is kept in memory")
		return store.NewMemoryAuditStore(), func() {}, nil
	}

	if cfg.AuditMigrate {
		if err := store.Migrate(cfg.DatabaseURL, "up"); err != nil {
			return nil, nil, err
		}
	}

	pg, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return pg, func() {
		if err := pg.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}, nil
}

func newProvider(ctx context.Context, cfg *config.Config) (port.AIProvider, error) {
	switch cfg.EffectiveProvider() {
	case config.ProviderGemini:
		p, err := ai.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.ProviderOllama:
		return ai.NewOllamaProvider(ai.OllamaEndpointConfig{
			BaseURL: cfg.OllamaChatURL,
			Model:   cfg.OllamaChatModel,
			Token:   cfg.OllamaChatToken,
		}), nil
	default:
		slog.Warn("using canned copilot replies",
			"provider", cfg.CopilotProvider,
			"gemini_key_set", cfg.GeminiAPIKey != "",
		)
		return ai.CannedProvider{}, nil
	}
}
