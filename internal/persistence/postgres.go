package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/primewheels/agent-service/internal/config"
)

// Postgres owns the pool behind the agent application store. A zero value
// (nil Pool) means the service runs on the in-memory store.
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres connects when a DSN is configured and returns an empty
// handle otherwise. The first ping is bounded by ConnectTimeoutSec so a
// dead database fails startup instead of hanging it.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		logger.Warn("POSTGRES_DSN not set; agent applications will be kept in memory")
		return &Postgres{}, nil
	}

	poolCfg, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	connectCtx := ctx
	if cfg.ConnectTimeoutSec > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.ConnectTimeoutSec)*time.Second)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open application store: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("reach application store at %s: %w", describe(poolCfg), err)
	}

	logger.Info("application store connected",
		zap.String("target", describe(poolCfg)),
		zap.Int32("max_conns", poolCfg.MaxConns),
		zap.String("application_name", poolCfg.ConnConfig.RuntimeParams["application_name"]),
	)
	return &Postgres{Pool: pool}, nil
}

// PoolConfig parses the DSN and applies the pool limits. Sessions carry
// ApplicationName in pg_stat_activity unless the DSN already sets one.
func PoolConfig(cfg config.PostgresConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		// pgconn errors can echo the DSN, password included.
		return nil, errors.New("invalid POSTGRES_DSN")
	}

	if cfg.ApplicationName != "" {
		if _, set := poolCfg.ConnConfig.RuntimeParams["application_name"]; !set {
			poolCfg.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
		}
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 && cfg.MinConns <= poolCfg.MaxConns {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}
	if cfg.HealthCheckSec > 0 {
		poolCfg.HealthCheckPeriod = time.Duration(cfg.HealthCheckSec) * time.Second
	}
	return poolCfg, nil
}

func describe(poolCfg *pgxpool.Config) string {
	cc := poolCfg.ConnConfig
	return fmt.Sprintf("%s:%d/%s", cc.Host, cc.Port, cc.Database)
}

func (p *Postgres) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

// Ping reports whether the store answers. Used by /health.
func (p *Postgres) Ping(ctx context.Context) error {
	if p == nil || p.Pool == nil {
		return errors.New("application store not configured")
	}
	return p.Pool.Ping(ctx)
}

// PoolHandle returns the pool, or nil when running in memory.
func (p *Postgres) PoolHandle() *pgxpool.Pool {
	if p == nil {
		return nil
	}
	return p.Pool
}
