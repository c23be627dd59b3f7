package dbpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/airsight-ai/airquery-engine/pkg/apperrors"
	"github.com/airsight-ai/airquery-engine/pkg/retry"
)

const (
	// DefaultMaxConnections bounds the hand-managed pool size.
	DefaultMaxConnections = 10

	// DefaultRetryAttempts is how many times a fresh connection is attempted
	// before the pool gives up.
	DefaultRetryAttempts = 3

	// DefaultRetryDelay is the fixed wait between connection attempts.
	DefaultRetryDelay = time.Second
)

// Conn is one pooled database connection. Implementations carry transaction
// state between Query/Exec calls until Commit or Rollback.
type Conn interface {
	// Alive probes the connection with a trivial query.
	Alive(ctx context.Context) bool
	Query(ctx context.Context, sql string) (*QueryResult, error)
	Exec(ctx context.Context, sql string) error
	Commit() error
	Rollback() error
	Close() error
}

// Factory opens a fresh connection.
type Factory func(ctx context.Context) (Conn, error)

// PoolConfig sizes the pool and its connection retry budget. Zero values
// select the defaults.
type PoolConfig struct {
	MaxConnections int
	RetryAttempts  int
	RetryDelay     time.Duration
}

// Status is a point-in-time snapshot of pool occupancy.
type Status struct {
	Total     int `json:"total"`
	InUse     int `json:"in_use"`
	Available int `json:"available"`
}

// Pool is a bounded connection pool. Idle connections are probed before
// reuse and replaced when dead; the most recently released connection is
// handed out first. Every live connection is either idle or checked out.
type Pool struct {
	factory  Factory
	max      int
	retryCfg *retry.Config
	logger   *zap.Logger

	mu    sync.Mutex
	live  []Conn
	inUse map[Conn]bool
}

// NewPool creates a pool. No connections are opened until first Acquire.
func NewPool(factory Factory, cfg PoolConfig, logger *zap.Logger) *Pool {
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = DefaultMaxConnections
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = DefaultRetryAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	return &Pool{
		factory:  factory,
		max:      cfg.MaxConnections,
		retryCfg: retry.FixedConfig(cfg.RetryAttempts, cfg.RetryDelay),
		logger:   logger.Named("dbpool"),
		inUse:    make(map[Conn]bool),
	}
}

// Acquire returns a live connection, reusing the most recently released idle
// one when possible. When every slot is checked out it fails with
// ErrPoolExhausted; when no connection can be established it fails with
// ErrConnectionFailed.
func (p *Pool) Acquire(ctx context.Context) (Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Scan idle connections newest-released first, dropping dead ones.
	for i := len(p.live) - 1; i >= 0; i-- {
		conn := p.live[i]
		if p.inUse[conn] {
			continue
		}
		if !conn.Alive(ctx) {
			p.logger.Warn("discarding dead pooled connection")
			p.removeLocked(i)
			continue
		}
		p.inUse[conn] = true
		return conn, nil
	}

	if len(p.live) >= p.max {
		return nil, fmt.Errorf("%w: all %d connections in use", apperrors.ErrPoolExhausted, p.max)
	}

	conn, err := retry.DoWithResult(ctx, p.retryCfg, func() (Conn, error) {
		return p.factory(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrConnectionFailed, err)
	}

	p.live = append(p.live, conn)
	p.inUse[conn] = true
	p.logger.Debug("opened new pooled connection", zap.Int("total", len(p.live)))
	return conn, nil
}

// Release returns a connection to the idle set. The connection moves to the
// front of the reuse order.
func (p *Pool) Release(conn Conn) {
	if conn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, c := range p.live {
		if c == conn {
			delete(p.inUse, conn)
			p.live = append(p.live[:i], p.live[i+1:]...)
			p.live = append(p.live, conn)
			return
		}
	}
	// Not one of ours; close it rather than adopt it.
	_ = conn.Close()
}

// WithCursor runs fn inside a scoped acquisition: the work commits when fn
// succeeds and rolls back when it fails, and the connection is always
// released.
func (p *Pool) WithCursor(ctx context.Context, fn func(Conn) error) error {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(conn)

	if err := fn(conn); err != nil {
		if rbErr := conn.Rollback(); rbErr != nil {
			p.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	return conn.Commit()
}

// RunQuery executes one query in its own cursor scope.
func (p *Pool) RunQuery(ctx context.Context, sql string) (*QueryResult, error) {
	var result *QueryResult
	err := p.WithCursor(ctx, func(conn Conn) error {
		var qErr error
		result, qErr = conn.Query(ctx, sql)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Status reports current pool occupancy.
func (p *Pool) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		Total:     len(p.live),
		InUse:     len(p.inUse),
		Available: len(p.live) - len(p.inUse),
	}
}

// Reset closes every connection and empties the pool, leaving it ready to
// open fresh connections. Connections still checked out are closed too;
// releasing one afterwards is a harmless second close.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, conn := range p.live {
		if err := conn.Close(); err != nil {
			p.logger.Warn("closing pooled connection", zap.Error(err))
		}
	}
	p.live = nil
	p.inUse = make(map[Conn]bool)
	p.logger.Info("connection pool reset")
}

// Close shuts down every connection, checked out or not.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, conn := range p.live {
		if err := conn.Close(); err != nil {
			p.logger.Warn("closing pooled connection", zap.Error(err))
		}
	}
	p.live = nil
	p.inUse = make(map[Conn]bool)
}

// removeLocked drops the connection at index i. Caller holds p.mu.
func (p *Pool) removeLocked(i int) {
	conn := p.live[i]
	_ = conn.Close()
	delete(p.inUse, conn)
	p.live = append(p.live[:i], p.live[i+1:]...)
}
