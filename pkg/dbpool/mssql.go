package dbpool

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/microsoft/go-mssqldb"
)

// sqlServerConn adapts one database/sql connection to the pool's Conn
// interface. Queries run inside a transaction that stays open until Commit
// or Rollback.
type sqlServerConn struct {
	conn *sql.Conn
	tx   *sql.Tx
}

func (c *sqlServerConn) Alive(ctx context.Context) bool {
	var one int
	if err := c.conn.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return false
	}
	return one == 1
}

func (c *sqlServerConn) begin(ctx context.Context) error {
	if c.tx != nil {
		return nil
	}
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	c.tx = tx
	return nil
}

func (c *sqlServerConn) Query(ctx context.Context, sqlText string) (*QueryResult, error) {
	if err := c.begin(ctx); err != nil {
		return nil, err
	}
	rows, err := c.tx.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func (c *sqlServerConn) Exec(ctx context.Context, sqlText string) error {
	if err := c.begin(ctx); err != nil {
		return err
	}
	if _, err := c.tx.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("execute statement: %w", err)
	}
	return nil
}

func (c *sqlServerConn) Commit() error {
	if c.tx == nil {
		return nil
	}
	err := c.tx.Commit()
	c.tx = nil
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (c *sqlServerConn) Rollback() error {
	if c.tx == nil {
		return nil
	}
	err := c.tx.Rollback()
	c.tx = nil
	if err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

func (c *sqlServerConn) Close() error {
	_ = c.Rollback()
	return c.conn.Close()
}

// scanRows reads a database/sql result set into a QueryResult.
func scanRows(rows *sql.Rows) (*QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := &QueryResult{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// sqlServerDSN builds the connection URL for the sqlserver driver.
func sqlServerDSN(s Settings) string {
	host := s.Server
	if host == "" {
		host = s.Host
	}
	port := s.Port
	if port == 0 {
		port = 1433
	}
	query := url.Values{}
	if s.Database != "" {
		query.Set("database", s.Database)
	}
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(s.User, s.Password),
		Host:     fmt.Sprintf("%s:%d", host, port),
		RawQuery: query.Encode(),
	}
	return u.String()
}

// newSQLServerFactory opens the driver handle and returns a Factory that
// checks out individual connections from it.
func newSQLServerFactory(s Settings) (Factory, *sql.DB, error) {
	db, err := sql.Open("sqlserver", sqlServerDSN(s))
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlserver: %w", err)
	}
	// The hand-managed pool owns sizing; the driver handle must not cap it.
	max := s.Pool.MaxConnections
	if max <= 0 {
		max = DefaultMaxConnections
	}
	db.SetMaxOpenConns(max)
	db.SetMaxIdleConns(max)

	factory := func(ctx context.Context) (Conn, error) {
		conn, err := db.Conn(ctx)
		if err != nil {
			return nil, fmt.Errorf("open connection: %w", err)
		}
		if err := conn.PingContext(ctx); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("ping connection: %w", err)
		}
		return &sqlServerConn{conn: conn}, nil
	}
	return factory, db, nil
}
