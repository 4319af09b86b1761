package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/michaelnathaan/pdf-editor-be/internal/assets"
	"github.com/michaelnathaan/pdf-editor-be/internal/cleanup"
	"github.com/michaelnathaan/pdf-editor-be/internal/commit"
	"github.com/michaelnathaan/pdf-editor-be/internal/compositor"
	"github.com/michaelnathaan/pdf-editor-be/internal/config"
	"github.com/michaelnathaan/pdf-editor-be/internal/documents"
	"github.com/michaelnathaan/pdf-editor-be/internal/middleware"
	"github.com/michaelnathaan/pdf-editor-be/internal/migrations"
	"github.com/michaelnathaan/pdf-editor-be/internal/notify"
	"github.com/michaelnathaan/pdf-editor-be/internal/operations"
	"github.com/michaelnathaan/pdf-editor-be/internal/sessions"
	"github.com/michaelnathaan/pdf-editor-be/internal/storage"
	"github.com/michaelnathaan/pdf-editor-be/pkg/handlers"
	"github.com/michaelnathaan/pdf-editor-be/pkg/logging"
	"github.com/michaelnathaan/pdf-editor-be/pkg/routes"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const basePath = "/api/v1"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(&cfg.Logging)
	slog.SetDefault(logger)

	db, err := openDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Up(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	if err := store.Init(); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	docSys := documents.New(db, store, logger, cfg.Pagination)
	sessSys := sessions.New(db, logger, cfg.Sessions, cfg.Pagination)
	opSys := operations.New(db, sessSys, docSys, assets.NewChecker(db), logger)
	assetSys := assets.New(db, store, sessSys, opSys, logger, cfg.Storage.MaxImageSizeBytes())

	comp := compositor.New(compositor.NewPDFCodec())
	notifier := notify.New(sessSys, logger, cfg.Webhook)
	pipeline := commit.New(
		sessSys, docSys, opSys, comp, store, assetSys, notifier,
		logger, cfg.Sessions.CommitTimeoutDuration(), cfg.Server.PublicURL,
	)

	mux := http.NewServeMux()
	apiKey := middleware.APIKey(cfg.Auth.APIKey)

	docHandler := documents.NewHandler(docSys, logger, cfg.Pagination, cfg.Storage.MaxUploadSizeBytes())
	sessHandler := sessions.NewHandler(sessSys, store, logger, cfg.Pagination, cfg.Server.EditorURL)
	opHandler := operations.NewHandler(opSys, sessSys, logger)
	assetHandler := assets.NewHandler(assetSys, sessSys, logger, cfg.Storage.MaxImageSizeBytes())
	commitHandler := commit.NewHandler(pipeline, sessSys, logger)

	routes.Register(mux, basePath,
		protect(apiKey, docHandler.Routes()),
		protect(apiKey, sessHandler.DocumentRoutes()),
		sessHandler.Routes(),
		commitHandler.Routes(),
		opHandler.Routes(),
		assetHandler.Routes(),
	)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	handler := middleware.Logger(logger)(middleware.CORS(cfg.CORS)(mux))

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
		IdleTimeout:  cfg.Server.IdleTimeoutDuration(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := cleanup.New(sessSys, store, logger, cfg.Sessions)
	go sweeper.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

func openDatabase(cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.Database.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetimeDuration())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnTimeoutDuration())
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected", "host", cfg.Database.Host, "name", cfg.Database.Name)
	return db, nil
}

// protect wraps every route in the group, recursively, with mw.
func protect(mw func(http.Handler) http.Handler, group routes.Group) routes.Group {
	for i, rt := range group.Routes {
		group.Routes[i].Handler = mw(rt.Handler).ServeHTTP
	}
	for i, child := range group.Children {
		group.Children[i] = protect(mw, child)
	}
	return group
}
