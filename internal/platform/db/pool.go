package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"
)

func NewPool(ctx context.Context, databaseURL string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// LazyPool defers opening the connection pool until first use. Concurrent
// first callers are collapsed into a single dial attempt via singleflight;
// a failed attempt is not cached, so the next caller retries.
type LazyPool struct {
	dial func(ctx context.Context) (*pgxpool.Pool, error)

	mu   sync.RWMutex
	pool *pgxpool.Pool
	sf   singleflight.Group
}

// NewLazyPool creates a LazyPool. No connection is opened until Get is called.
func NewLazyPool(databaseURL string, maxConns, minConns int32) *LazyPool {
	return &LazyPool{
		dial: func(ctx context.Context) (*pgxpool.Pool, error) {
			return NewPool(ctx, databaseURL, maxConns, minConns)
		},
	}
}

// Get returns the shared pool, dialing it on first use.
func (l *LazyPool) Get(ctx context.Context) (*pgxpool.Pool, error) {
	l.mu.RLock()
	p := l.pool
	l.mu.RUnlock()
	if p != nil {
		return p, nil
	}

	v, err, _ := l.sf.Do("connect", func() (interface{}, error) {
		pool, err := l.dial(ctx)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.pool = pool
		l.mu.Unlock()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pgxpool.Pool), nil
}

// Close closes the underlying pool if it was ever opened.
func (l *LazyPool) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pool != nil {
		l.pool.Close()
		l.pool = nil
	}
}
