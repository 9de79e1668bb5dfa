// Command requisitionbot serves the conversational requisition assistant.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/requisitionbot/internal/adapter/driven/credentialfile"
	"github.com/ericfisherdev/requisitionbot/internal/adapter/driven/deepseek"
	"github.com/ericfisherdev/requisitionbot/internal/adapter/driven/ekuaibao"
	sqliteadapter "github.com/ericfisherdev/requisitionbot/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/requisitionbot/internal/adapter/driving/http"
	"github.com/ericfisherdev/requisitionbot/internal/application"
	"github.com/ericfisherdev/requisitionbot/internal/config"
)

// chatCallBudget is the number of sequential upstream calls one chat
// request may make: the tool choice, two renewals of refresh plus reissue,
// template list and detail, extraction, dimension lookups and the create.
const chatCallBudget = 16

// version is set at build time with -ldflags "-X main.version=...".
var version = "1.0.0"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	logger.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"base_url", cfg.BaseURL,
		"template", cfg.TemplateName,
		"model", cfg.DeepSeekModel,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the document ledger and migrate it.
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	logger.Info("ledger ready", "path", db.Path())

	// 4. Wire driven adapters.
	documents := sqliteadapter.NewDocumentRepo(db)
	credentials := credentialfile.NewStore(cfg.TokenCacheFile, logger)
	platform := ekuaibao.NewClient(ekuaibao.Config{
		BaseURL:     cfg.BaseURL,
		AppKey:      cfg.AppKey,
		AppSecurity: cfg.AppSecurity,
		PowerCode:   cfg.PowerCode,
		Timeout:     cfg.HTTPTimeout,
		RateLimit:   cfg.RateLimit,
	})
	llm := deepseek.NewClient(deepseek.Config{
		APIKey:  cfg.DeepSeekAPIKey,
		URL:     cfg.DeepSeekAPIURL,
		Model:   cfg.DeepSeekModel,
		Timeout: cfg.HTTPTimeout,
	})

	// 5. Create application services.
	tokens := application.NewTokenManager(platform, credentials, logger)
	templates := application.NewTemplateResolver(tokens, platform, cfg.TemplateType, cfg.TemplateName, logger)
	dimensions := application.NewDimensionService(tokens, platform, logger)
	submissions := application.NewSubmissionService(application.SubmissionDeps{
		Templates:   templates,
		Extractor:   application.NewLLMIntentExtractor(llm, logger),
		Coercer:     application.NewFieldCoercer(dimensions, logger),
		Tokens:      tokens,
		Platform:    platform,
		Documents:   documents,
		SubmitterID: cfg.SubmitterID,
		Logger:      logger,
	})
	chat := application.NewChatService(llm, templates, submissions, logger)
	health := application.NewHealthService(map[string]application.Check{
		"auth_service":     tokens.CheckConnection,
		"deepseek_service": application.LanguageModelCheck(llm.Complete),
		"ledger":           db.Ping,
	}, logger)

	// 6. Create HTTP handler.
	handler := httphandler.NewServeMux(httphandler.NewHandler(httphandler.Deps{
		Chat:        chat,
		Templates:   templates,
		Dimensions:  dimensions,
		Submissions: submissions,
		Tokens:      tokens,
		Health:      health,
		Version:     version,
		Logger:      logger,
	}), logger)

	// The chat endpoint may wait on two model calls and a platform create.
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      writeTimeout(cfg.HTTPTimeout),
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	logger.Info("requisitionbot started", "version", version, "listen_addr", cfg.ListenAddr)

	// 7. Wait for shutdown signal.
	<-ctx.Done()
	logger.Info("shutting down")

	// 8. Graceful shutdown with 10s timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// writeTimeout bounds a response by the slowest chat request when every
// upstream call takes the full per-call timeout.
func writeTimeout(perCall time.Duration) time.Duration {
	return chatCallBudget*perCall + 10*time.Second
}
