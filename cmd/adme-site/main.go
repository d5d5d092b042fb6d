package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimitrije/adme-site/internal/apidoc"
	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/dimitrije/adme-site/internal/config"
	"github.com/dimitrije/adme-site/internal/database"
	"github.com/dimitrije/adme-site/internal/fallback"
	"github.com/dimitrije/adme-site/internal/gotrue"
	"github.com/dimitrije/adme-site/internal/handlers"
	"github.com/dimitrije/adme-site/internal/logger"
	"github.com/dimitrije/adme-site/internal/metrics"
	authmw "github.com/dimitrije/adme-site/internal/middleware"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/dimitrije/adme-site/internal/postgrest"
	"github.com/dimitrije/adme-site/internal/sanitize"
	"github.com/dimitrije/adme-site/internal/services"
	"github.com/dimitrije/adme-site/internal/sse"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// stores is the storage backend the handlers run against.
type stores struct {
	profiles  handlers.ProfileServiceInterface
	inquiries fallback.InquiryStore
	catalog   handlers.CatalogServiceInterface
	projects  handlers.ProjectServiceInterface
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.SetupDefault(os.Stderr, "info")
		if apperr.Is(err, apperr.KindConfigurationMissing) {
			slog.Error("configuration incomplete, see .env.example", slog.String("error", apperr.Message(err)))
		} else {
			slog.Error("failed to load config", slog.String("error", err.Error()))
		}
		os.Exit(1)
	}

	logger.SetupDefault(os.Stdout, cfg.LogLevel)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	apiDoc, err := apidoc.Load(ctx)
	if err != nil {
		slog.Error("failed to load API description", slog.String("error", err.Error()))
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(registry)

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	st, err := openStores(ctx, cfg, httpClient)
	if err != nil {
		slog.Error("failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer st.close()

	local, err := fallback.Open(cfg.FallbackDBPath)
	if err != nil {
		// Leads still reach the primary store; only the safety net is gone.
		slog.Warn("local inquiry store unavailable",
			slog.String("path", cfg.FallbackDBPath),
			slog.String("error", err.Error()),
		)
		local = nil
	} else {
		defer local.Close()
	}
	inquiries := fallback.NewInquiries(st.inquiries, local, recorder)

	authAPI := gotrue.NewAPI(cfg.SupabaseURL, cfg.SupabaseAnonKey, gotrue.WithHTTPClient(httpClient))
	verifier := gotrue.NewVerifier(cfg.SupabaseJWTSecret, gotrue.WithRemoteLookup(authAPI))
	if cfg.SupabaseJWTSecret == "" {
		slog.Info("SUPABASE_JWT_SECRET not set, access tokens are checked against the auth service")
	}

	emailService := services.NewEmailService(cfg.SMTP)
	sanitizer := sanitize.New()
	limiter := authmw.NewRateLimiter(cfg.ContactRatePerMinute)

	hub := sse.NewHub()
	go hub.Run(ctx)
	go authAPI.Flows().Cleanup(ctx, 5*time.Minute)
	go limiter.Cleanup(ctx, time.Minute)

	sessions := handlers.NewSessions(handlers.GoTrueClients(authAPI), st.profiles, hub, recorder)

	authHandler := handlers.NewAuthHandler(cfg.SiteURL, sessions, sanitizer)
	accountHandler := handlers.NewAccountHandler(sessions, sanitizer)
	contactHandler := handlers.NewContactHandler(inquiries, emailService, hub, sanitizer, cfg.ContactNotifyEmail)
	catalogHandler := handlers.NewCatalogHandler(st.catalog)
	projectHandler := handlers.NewProjectHandler(st.projects, sanitizer)
	adminHandler := handlers.NewAdminHandler(inquiries)
	sseHandler := handlers.NewSSEHandler(hub, st.profiles)
	diagnosticsHandler := handlers.NewDiagnosticsHandler(
		handlers.Check{Name: "config", Run: func(context.Context) error {
			if cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "" {
				return apperr.New(apperr.KindConfigurationMissing, "config", "auth service URL or key not set")
			}
			return nil
		}},
		handlers.Check{Name: "auth", Run: authAPI.Health},
		handlers.Check{Name: "profiles", Run: func(ctx context.Context) error {
			_, err := st.profiles.GetByID(ctx, uuid.Nil)
			if apperr.Is(err, apperr.KindNotFound) {
				return nil
			}
			return err
		}},
	)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.SiteURL},
		AllowMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", authmw.RefreshTokenHeader},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	metricsHandler := metrics.Handler(registry)
	app.Get("/metrics", func(c *drift.Context) {
		metricsHandler.ServeHTTP(c.Response, c.Request)
	})
	app.Get("/auth/callback", authHandler.Callback)

	api := app.Group("/api/v1")

	api.Get("/health", diagnosticsHandler.Health)
	api.Get("/diagnostics", diagnosticsHandler.Diagnostics)
	api.Get("/openapi", apiDoc.Serve)

	auth := api.Group("/auth")
	auth.Post("/signup", authHandler.SignUp)
	auth.Post("/signin", authHandler.SignIn)
	auth.Post("/password/reset", authHandler.RequestPasswordReset)

	api.Get("/services", catalogHandler.List)
	api.Get("/services/:id", catalogHandler.Get)

	limited := api.Group("")
	limited.Use(limiter.Middleware())
	limited.Post("/contact", contactHandler.Submit)

	protected := api.Group("")
	protected.Use(authmw.Auth(verifier))

	protected.Post("/auth/signout", authHandler.SignOut)
	protected.Post("/auth/password/recover", accountHandler.UpdatePassword)

	protected.Get("/account", accountHandler.Get)
	protected.Patch("/account/profile", accountHandler.UpdateProfile)
	protected.Post("/account/password", accountHandler.UpdatePassword)
	protected.Get("/account/events", sseHandler.Connect)

	protected.Get("/projects", projectHandler.List)
	protected.Post("/projects", projectHandler.Create)

	admin := protected.Group("/admin")
	admin.Use(authmw.RequireRole(st.profiles, models.RoleAdmin, models.RoleDeveloper))

	admin.Get("/inquiries", adminHandler.ListInquiries)
	admin.Patch("/inquiries/:id", adminHandler.UpdateInquiry)
	admin.Get("/projects", projectHandler.ListAll)
	admin.Patch("/projects/:id", projectHandler.Update)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		slog.Info("server starting",
			slog.String("addr", addr),
			slog.String("env", cfg.Env),
			slog.Bool("direct_database", cfg.UsesDirectDatabase()),
		)
		if err := app.Run(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
}

// openStores picks direct Postgres when DATABASE_URL is set and the hosted
// table API otherwise.
func openStores(ctx context.Context, cfg *config.Config, httpClient *http.Client) (*stores, error) {
	if cfg.UsesDirectDatabase() {
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		return &stores{
			profiles:  services.NewProfileService(db),
			inquiries: services.NewInquiryService(db),
			catalog:   services.NewCatalogService(db),
			projects:  services.NewProjectService(db),
			close:     db.Close,
		}, nil
	}

	client := postgrest.New(cfg.SupabaseURL, cfg.SupabaseAnonKey, postgrest.WithHTTPClient(httpClient))
	return &stores{
		profiles:  postgrest.NewProfileStore(client),
		inquiries: postgrest.NewInquiryStore(client),
		catalog:   postgrest.NewCatalogStore(client),
		projects:  postgrest.NewProjectStore(client),
		close:     func() {},
	}, nil
}
