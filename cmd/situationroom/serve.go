package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"situationroom/internal/api"
	"situationroom/internal/auth"
	"situationroom/internal/cache"
	"situationroom/internal/db"
	"situationroom/internal/jobs"
	"situationroom/internal/metrics"
	"situationroom/internal/pubsub"
	"situationroom/internal/render"
	"situationroom/internal/schema"
	"situationroom/internal/service"
	"situationroom/internal/storage"
	"situationroom/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// serveCmd runs the HTTP server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	ctx := cmd.Context()

	// Database connection
	dbPool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	// Redis connection
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	// Pub/sub bus and WebSocket hub
	bus := pubsub.New(rdb, logger)
	hub := ws.NewHub(logger)
	hub.SetStreamsProvider(&wsStreamsAdapter{streams: bus.GetStreams()})
	hub.SetAuthorizer(canListen)
	go hub.Run()
	defer hub.Close()
	bus.SetWSHub(hub)

	// The relay must be gone before the hub closes underneath it.
	listenCtx, stopListening := context.WithCancel(ctx)
	var relay errgroup.Group
	relay.Go(func() error {
		err := bus.Listen(listenCtx)
		if err != nil {
			logger.Error("Event relay stopped", zap.Error(err))
		}
		return err
	})
	defer func() {
		stopListening()
		_ = relay.Wait()
	}()

	// Upload storage
	st, files, err := openStorage(logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}

	// Services
	jwtConfig := auth.NewJWTConfig(cfg.JWTSecret, cfg.TokenTTL)
	forms := service.NewFormService(dbPool.Queries, schema.NewCompilerWithCache(64), bus)
	submissions := service.NewSubmissionService(dbPool.Queries, forms, st, bus)
	submissions.SetLogger(logger)
	reports := service.NewReportService(forms, submissions, cache.NewRedis(rdb, "situationroom:"), cfg.ReportCacheTTL)

	// Background jobs
	jobServer, jobClient := jobs.NewJobServer(cfg.RedisAddr, reports, bus, logger)
	go func() {
		if err := jobServer.Start(); err != nil {
			logger.Fatal("Job server failed", zap.Error(err))
		}
	}()
	defer jobServer.Stop()
	defer jobClient.Close()
	submissions.SetJobClient(service.NewAsynqJobClient(jobClient))

	pages, err := render.NewPages()
	if err != nil {
		logger.Fatal("Failed to load templates", zap.Error(err))
	}

	// HTTP router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Timeout middleware - skip for WebSocket upgrades
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, req)
				return
			}
			middleware.Timeout(60*time.Second)(next).ServeHTTP(w, req)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Mount("/", api.Routes(api.Dependencies{
		Forms:           forms,
		Submissions:     submissions,
		Reports:         reports,
		PollingUnits:    service.NewPollingUnitService(dbPool.Queries),
		IncidentReports: service.NewIncidentReportService(dbPool.Queries, st),
		Users:           service.NewUserService(dbPool.Queries, jwtConfig),
		JWT:             jwtConfig,
		Pages:           pages,
		Files:           files,
		Hub:             hub,
		Log:             logger,
	}))

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	logger.Info("Starting server", zap.String("addr", cfg.Addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
	return nil
}

// openStorage picks the upload backend. The second result is set only for
// local storage, which this process must also serve.
func openStorage(logger *zap.Logger) (storage.Storage, storage.Storage, error) {
	switch cfg.StorageDriver {
	case "local":
		local, err := storage.NewLocalStorage(cfg.StorageBaseDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return local, local, nil
	case "s3":
		if !cfg.S3.Configured() {
			logger.Warn("S3 storage not configured; uploads will not be stored")
			return nil, nil, nil
		}
		s3, err := storage.NewS3Storage(cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		return s3, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// canListen limits form channels to roles that may read submissions
func canListen(role, channel string) bool {
	if strings.HasPrefix(channel, "form:") {
		return auth.HasPerm(role, auth.PermViewForms)
	}
	return false
}

// wsStreamsAdapter adapts pubsub.Streams to ws.StreamsProvider
type wsStreamsAdapter struct {
	streams *pubsub.Streams
}

func (a *wsStreamsAdapter) GetLastSequence(channel, connectionID string) (int64, error) {
	return a.streams.GetLastSequence(channel, connectionID)
}

func (a *wsStreamsAdapter) AcknowledgeSequence(channel, connectionID string, sequence int64) error {
	return a.streams.AcknowledgeSequence(channel, connectionID, sequence)
}

func (a *wsStreamsAdapter) ReplayEvents(channel string, sinceSeq int64, limit int64) ([]ws.StreamEvent, error) {
	events, err := a.streams.ReplayEvents(channel, sinceSeq, limit)
	if err != nil {
		return nil, err
	}

	wsEvents := make([]ws.StreamEvent, len(events))
	for i, e := range events {
		wsEvents[i] = ws.StreamEvent{
			Channel:   e.Channel,
			Sequence:  e.Sequence,
			Event:     e.Event,
			Timestamp: e.Timestamp,
		}
	}
	return wsEvents, nil
}
