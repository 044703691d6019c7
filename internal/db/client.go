// Package db provides PostgreSQL/pgvector access for the memory subsystem.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

// Config holds PostgreSQL connection configuration.
type Config struct {
	// URL is a pgx connection string (postgres://... or key=value form).
	URL string

	MaxConns       int32
	MinConns       int32
	ConnectTimeout time.Duration

	// QueryTimeout bounds every store call, including pool acquisition.
	// Zero means the caller's context is the only bound.
	QueryTimeout time.Duration
}

// DefaultConfig returns the pool defaults used when fields are zero.
func DefaultConfig() Config {
	return Config{
		MaxConns:       10,
		MinConns:       2,
		ConnectTimeout: 10 * time.Second,
		QueryTimeout:   15 * time.Second,
	}
}

// Client wraps a bounded pgx connection pool with an explicit lifecycle:
// constructed at process start, closed on shutdown. It is safe for
// concurrent use.
type Client struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient connects to PostgreSQL, verifies the connection and makes sure
// the pgvector extension is available. Vector column codecs are registered
// on every pooled connection.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = def.MaxConns
	}
	if cfg.MinConns <= 0 {
		cfg.MinConns = def.MinConns
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = def.QueryTimeout
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("enable pgvector extension: %w", err)
	}

	logger.Info("postgres connection established", "max_conns", cfg.MaxConns)
	return &Client{pool: pool, timeout: cfg.QueryTimeout, logger: logger}, nil
}

// Close releases the connection pool.
func (c *Client) Close() {
	c.logger.Info("closing postgres connection pool")
	c.pool.Close()
}

// Pool returns the underlying pool for test helpers and raw queries.
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}

// InitSchema creates the memory tables and indexes if they do not exist.
func (c *Client) InitSchema(ctx context.Context) error {
	c.logger.Info("initializing database schema")
	if _, err := c.pool.Exec(ctx, SchemaSQL); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// qctx bounds a store call with the configured query timeout. Pool
// exhaustion then surfaces as a deadline error, which callers treat as
// transient.
func (c *Client) qctx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}
