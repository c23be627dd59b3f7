package dbpool

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/airsight-ai/airquery-engine/pkg/logging"
)

// PostgresExecutor runs queries through a pgxpool, which does its own
// connection management and health checking.
type PostgresExecutor struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresExecutor connects a pgxpool sized from the settings.
func NewPostgresExecutor(ctx context.Context, s Settings, logger *zap.Logger) (*PostgresExecutor, error) {
	dsn := postgresDSN(s)
	logger.Info("connecting to postgres", zap.String("dsn", logging.SanitizeConnectionString(dsn)))

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	max := s.Pool.MaxConnections
	if max <= 0 {
		max = DefaultMaxConnections
	}
	cfg.MaxConns = int32(max)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresExecutor{pool: pool, logger: logger.Named("dbpool")}, nil
}

// RunQuery executes one query and materializes the full result.
func (e *PostgresExecutor) RunQuery(ctx context.Context, sqlText string) (*QueryResult, error) {
	rows, err := e.pool.Query(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	result := &QueryResult{Columns: make([]string, len(fields))}
	for i, f := range fields {
		result.Columns[i] = f.Name
	}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// Status maps pgxpool statistics onto the pool snapshot shape.
func (e *PostgresExecutor) Status() Status {
	stat := e.pool.Stat()
	return Status{
		Total:     int(stat.TotalConns()),
		InUse:     int(stat.AcquiredConns()),
		Available: int(stat.IdleConns()),
	}
}

// Reset closes all pooled connections; pgxpool reopens lazily.
func (e *PostgresExecutor) Reset() {
	e.pool.Reset()
	e.logger.Info("connection pool reset")
}

// Close releases the underlying pgxpool.
func (e *PostgresExecutor) Close() {
	e.pool.Close()
}

func postgresDSN(s Settings) string {
	host := s.Host
	if host == "" {
		host = "localhost"
	}
	port := s.Port
	if port == 0 {
		port = 5432
	}
	sslMode := s.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(s.User, s.Password),
		Host:     fmt.Sprintf("%s:%d", host, port),
		Path:     "/" + s.Database,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}
