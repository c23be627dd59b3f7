package dbpool

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/airsight-ai/airquery-engine/pkg/logging"
)

// Executor is the query surface the rest of the engine sees, independent of
// which backend family serves it.
type Executor interface {
	RunQuery(ctx context.Context, sql string) (*QueryResult, error)
	Status() Status
	Close()
}

// Settings identifies the target database and sizes its pool. Which backend
// family handles the connection is inferred from the fields present: a
// driver or server entry means SQL Server, otherwise PostgreSQL.
type Settings struct {
	Driver   string
	Server   string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	Pool     PoolConfig
}

// IsSQLServer reports whether the settings select the SQL Server family.
func (s Settings) IsSQLServer() bool {
	return s.Driver != "" || s.Server != ""
}

// Type returns the database type label used in prompts.
func (s Settings) Type() string {
	if s.IsSQLServer() {
		return "sqlserver"
	}
	return "postgresql"
}

// sqlServerExecutor pairs the hand-managed pool with the driver handle its
// factory checks connections out of.
type sqlServerExecutor struct {
	*Pool
	db *sql.DB
}

func (e *sqlServerExecutor) Close() {
	e.Pool.Close()
	_ = e.db.Close()
}

// Connect builds the executor for the configured backend family.
func Connect(ctx context.Context, s Settings, logger *zap.Logger) (Executor, error) {
	if !s.IsSQLServer() {
		return NewPostgresExecutor(ctx, s, logger)
	}

	logger.Info("connecting to sql server",
		zap.String("dsn", logging.SanitizeConnectionString(sqlServerDSN(s))))

	factory, db, err := newSQLServerFactory(s)
	if err != nil {
		return nil, err
	}
	pool := NewPool(factory, s.Pool, logger)

	// Probe once so misconfiguration surfaces at startup, not first query.
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, err := pool.Acquire(probeCtx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	pool.Release(conn)

	return &sqlServerExecutor{Pool: pool, db: db}, nil
}
