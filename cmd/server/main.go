// Package main runs the analytics server: a scheduled full rebuild of the
// market aggregates plus the HTTP surface serving the dashboard payload,
// filtered queries, project drill-downs, a WebSocket push feed and
// Prometheus metrics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"property-analytics/internal/cache"
	"property-analytics/internal/domain"
	"property-analytics/internal/fetch"
	"property-analytics/internal/observability"
	"property-analytics/internal/push"
	"property-analytics/internal/service"
	chstore "property-analytics/internal/storage/clickhouse"
	"property-analytics/internal/storage/memory"
	"property-analytics/internal/storage/migrations"
	pgstore "property-analytics/internal/storage/postgres"
)

func main() {
	// Load .env if present; system env wins.
	_ = godotenv.Load()

	// Parse flags (env vars as defaults)
	upstreamURL := flag.String("upstream-url", os.Getenv("UPSTREAM_URL"), "Upstream data provider base URL")
	accessKey := flag.String("access-key", os.Getenv("UPSTREAM_ACCESS_KEY"), "Upstream provider access key")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	redisAddr := flag.String("redis-addr", os.Getenv("REDIS_ADDR"), "Redis address for the payload cache")
	useMemory := flag.Bool("use-memory", false, "Skip external stores, keep everything in memory")
	listenAddr := flag.String("listen-addr", ":8080", "HTTP listen address")
	rebuildInterval := flag.Duration("rebuild-interval", 24*time.Hour, "Full rebuild interval")

	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *upstreamURL == "" {
		logger.Fatal("--upstream-url is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory to run without them)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := service.Options{
		Fetcher:   fetch.NewClient(*upstreamURL, *accessKey),
		Snapshots: memory.NewSnapshotStore(),
		Metrics:   observability.NewMetrics(""),
		Logger:    logger.Named("service"),
	}

	if !*useMemory {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatal("connect to postgres", zap.Error(err))
		}
		defer pool.Close()
		if err := migrations.RunPostgres(ctx, pool); err != nil {
			logger.Fatal("postgres migrations", zap.Error(err))
		}

		conn, err := chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatal("connect to clickhouse", zap.Error(err))
		}
		defer conn.Close()
		if err := migrations.RunClickhouse(ctx, conn); err != nil {
			logger.Fatal("clickhouse migrations", zap.Error(err))
		}

		opts.Records = pgstore.NewRecordStore(pool)
		opts.Rollups = chstore.NewRollupStore(conn)
	}

	if *redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: *redisAddr})
		defer client.Close()
		opts.Cache = cache.New(client, logger.Named("cache"))
	}

	svc := service.New(opts)
	broadcaster := push.NewBroadcaster(logger.Named("push"))

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", zap.Stringer("signal", sig))
		cancel()
	}()

	go runRebuildLoop(ctx, svc, broadcaster, *rebuildInterval, logger)

	srv := &http.Server{
		Addr:    *listenAddr,
		Handler: newMux(svc, broadcaster),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		broadcaster.Shutdown(shutdownCtx)
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", zap.String("addr", *listenAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("http server", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// runRebuildLoop rebuilds immediately on start, then on the interval.
func runRebuildLoop(ctx context.Context, svc *service.Service, b *push.Broadcaster, interval time.Duration, logger *zap.Logger) {
	rebuild := func() {
		snap, err := svc.Rebuild(ctx)
		if err != nil {
			logger.Error("rebuild failed", zap.Error(err))
			return
		}
		b.Publish(snap.Payload)
	}

	rebuild()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rebuild()
		}
	}
}

func newMux(svc *service.Service, b *push.Broadcaster) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/dashboard", handleDashboard(svc))
	mux.HandleFunc("GET /api/dashboard/filtered", handleFiltered(svc))
	mux.HandleFunc("GET /api/projects/{name}", handleProject(svc))
	mux.Handle("GET /ws", b)
	mux.Handle("GET /metrics", observability.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func handleDashboard(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Payload()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, p)
	}
}

func handleFiltered(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := domain.FilterSet{
			District:     strings.TrimSpace(q.Get("district")),
			Year:         strings.TrimSpace(q.Get("year")),
			Segment:      strings.TrimSpace(q.Get("segment")),
			PropertyType: strings.TrimSpace(q.Get("propertyType")),
			Tenure:       strings.TrimSpace(q.Get("tenure")),
		}
		p, err := svc.Filtered(r.Context(), f)
		if err != nil {
			writeError(w, err)
			return
		}
		if p == nil {
			http.Error(w, `{"error":"no data for this filter combination"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, p)
	}
}

func handleProject(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.ProjectDetail(r.PathValue("name"))
		if err != nil {
			writeError(w, err)
			return
		}
		if d == nil {
			http.Error(w, `{"error":"unknown project"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, d)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrNotReady) {
		http.Error(w, `{"error":"first rebuild not finished"}`, http.StatusServiceUnavailable)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
