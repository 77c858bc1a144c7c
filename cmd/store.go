package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/employee-contacts/internal/config"
	"github.com/sells-group/employee-contacts/internal/resilience"
	"github.com/sells-group/employee-contacts/internal/store"
)

// initStore opens the configured store, retrying while the database is
// unreachable, and applies the schema.
func initStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	retry := resilience.FromRetryConfig(
		sc.ConnectRetry.MaxAttempts,
		sc.ConnectRetry.InitialBackoffMs,
		sc.ConnectRetry.MaxBackoffMs,
	)
	retry.OnRetry = resilience.RetryLogger(zap.L(), "connect store")

	st, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (store.Store, error) {
		return openStore(ctx, sc)
	})
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}

	zap.L().Debug("store ready", zap.String("driver", sc.Driver))
	return st, nil
}

func openStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	switch sc.Driver {
	case "sqlite":
		st, err := store.NewSQLite(sc.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := st.Ping(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		return st, nil
	case "postgres":
		return store.NewPostgres(ctx, sc.DatabaseURL, &store.PoolConfig{
			MaxConns: sc.MaxConns,
			MinConns: sc.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", sc.Driver)
	}
}
