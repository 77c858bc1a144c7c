package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/employee-contacts/internal/api"
	"github.com/sells-group/employee-contacts/internal/config"
	"github.com/sells-group/employee-contacts/internal/ingest"
	"github.com/sells-group/employee-contacts/internal/query"
	"github.com/sells-group/employee-contacts/internal/store"
)

var (
	servePort       int
	serveTrustProxy bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the employee contact HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		stats, closeStats, err := openLimitStats(ctx, cfg.Server.RateLimit.Stats)
		if err != nil {
			return err
		}
		defer closeStats()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(st, cfg.Server, stats, zap.L()),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSecs)*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// openLimitStats connects the Redis rate limit counters when configured.
// The returned close func is always safe to call.
func openLimitStats(ctx context.Context, sc config.LimitStatsConfig) (api.LimitStats, func(), error) {
	if sc.RedisURL == "" {
		return nil, func() {}, nil
	}

	opts, err := redis.ParseURL(sc.RedisURL)
	if err != nil {
		return nil, nil, eris.Wrap(err, "redis: parse url")
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, eris.Wrap(err, "redis: ping")
	}

	zap.L().Info("recording rate limit stats", zap.String("addr", opts.Addr), zap.String("prefix", sc.Prefix))
	ttl := time.Duration(sc.TTLHours) * time.Hour
	return api.NewRedisLimitStats(rdb, sc.Prefix, ttl), func() { _ = rdb.Close() }, nil
}

func buildRouter(st store.Store, sc config.ServerConfig, stats api.LimitStats, log *zap.Logger) http.Handler {
	return api.NewRouter(
		ingest.New(st, ingest.WithLogger(log)),
		query.New(st, log),
		api.Options{
			Logger:         log,
			MaxBodyBytes:   sc.MaxBodyBytes,
			RateLimitRPS:   sc.RateLimit.RPS,
			RateLimitBurst: sc.RateLimit.Burst,
			LimitStats:     stats,
			AllowedOrigins: sc.CORS.AllowedOrigins,
			TrustProxy:     serveTrustProxy,
		},
	)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveTrustProxy, "trust-proxy", false, "take client addresses from X-Forwarded-For / X-Real-IP")
	rootCmd.AddCommand(serveCmd)
}
