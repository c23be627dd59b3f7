package dbpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/airsight-ai/airquery-engine/pkg/apperrors"
)

type fakeConn struct {
	id        int
	alive     bool
	queries   []string
	commits   int
	rollbacks int
	closed    bool
	queryErr  error
}

func (c *fakeConn) Alive(ctx context.Context) bool { return c.alive }

func (c *fakeConn) Query(ctx context.Context, sql string) (*QueryResult, error) {
	c.queries = append(c.queries, sql)
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	return &QueryResult{Columns: []string{"n"}, Rows: [][]any{{c.id}}}, nil
}

func (c *fakeConn) Exec(ctx context.Context, sql string) error {
	c.queries = append(c.queries, sql)
	return c.queryErr
}

func (c *fakeConn) Commit() error   { c.commits++; return nil }
func (c *fakeConn) Rollback() error { c.rollbacks++; return nil }
func (c *fakeConn) Close() error    { c.closed = true; return nil }

// countingFactory hands out live fake connections with increasing ids.
func countingFactory() (Factory, *[]*fakeConn) {
	var made []*fakeConn
	factory := func(ctx context.Context) (Conn, error) {
		c := &fakeConn{id: len(made), alive: true}
		made = append(made, c)
		return c, nil
	}
	return factory, &made
}

func fastConfig(max int) PoolConfig {
	return PoolConfig{MaxConnections: max, RetryAttempts: 1, RetryDelay: time.Millisecond}
}

func TestAcquireCreatesUpToMax(t *testing.T) {
	factory, made := countingFactory()
	pool := NewPool(factory, fastConfig(2), zap.NewNop())
	ctx := context.Background()

	c1, err := pool.Acquire(ctx)
	require.NoError(t, err)
	c2, err := pool.Acquire(ctx)
	require.NoError(t, err)
	assert.NotSame(t, c1, c2)
	assert.Len(t, *made, 2)

	_, err = pool.Acquire(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPoolExhausted))
}

func TestReleaseMakesConnectionReusable(t *testing.T) {
	factory, made := countingFactory()
	pool := NewPool(factory, fastConfig(1), zap.NewNop())
	ctx := context.Background()

	c1, err := pool.Acquire(ctx)
	require.NoError(t, err)
	pool.Release(c1)

	c2, err := pool.Acquire(ctx)
	require.NoError(t, err)
	assert.Same(t, c1, c2)
	assert.Len(t, *made, 1)
}

func TestAcquireReusesMostRecentlyReleased(t *testing.T) {
	factory, _ := countingFactory()
	pool := NewPool(factory, fastConfig(3), zap.NewNop())
	ctx := context.Background()

	a, _ := pool.Acquire(ctx)
	b, _ := pool.Acquire(ctx)
	c, _ := pool.Acquire(ctx)

	pool.Release(a)
	pool.Release(c)
	pool.Release(b)

	got, err := pool.Acquire(ctx)
	require.NoError(t, err)
	assert.Same(t, b, got)
}

func TestAcquireReplacesDeadConnection(t *testing.T) {
	factory, made := countingFactory()
	pool := NewPool(factory, fastConfig(2), zap.NewNop())
	ctx := context.Background()

	c1, err := pool.Acquire(ctx)
	require.NoError(t, err)
	pool.Release(c1)
	c1.(*fakeConn).alive = false

	c2, err := pool.Acquire(ctx)
	require.NoError(t, err)
	assert.NotSame(t, c1, c2)
	assert.True(t, c1.(*fakeConn).closed)
	assert.Len(t, *made, 2)

	// The dead connection no longer counts against the pool size.
	status := pool.Status()
	assert.Equal(t, 1, status.Total)
	assert.Equal(t, 1, status.InUse)
}

func TestAcquireConnectionFailureDistinctFromExhaustion(t *testing.T) {
	attempts := 0
	factory := func(ctx context.Context) (Conn, error) {
		attempts++
		return nil, fmt.Errorf("network unreachable")
	}
	pool := NewPool(factory, fastConfig(2), zap.NewNop())

	_, err := pool.Acquire(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConnectionFailed))
	assert.False(t, errors.Is(err, apperrors.ErrPoolExhausted))
	assert.Equal(t, 1, attempts)
}

func TestAcquireRetriesConnectionAttempts(t *testing.T) {
	attempts := 0
	factory := func(ctx context.Context) (Conn, error) {
		attempts++
		if attempts < 3 {
			return nil, fmt.Errorf("not yet")
		}
		return &fakeConn{alive: true}, nil
	}
	pool := NewPool(factory, PoolConfig{MaxConnections: 1, RetryAttempts: 3, RetryDelay: time.Millisecond}, zap.NewNop())

	_, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithCursorCommitsOnSuccess(t *testing.T) {
	factory, made := countingFactory()
	pool := NewPool(factory, fastConfig(1), zap.NewNop())

	err := pool.WithCursor(context.Background(), func(conn Conn) error {
		return conn.Exec(context.Background(), "UPDATE x SET y = 1")
	})
	require.NoError(t, err)

	conn := (*made)[0]
	assert.Equal(t, 1, conn.commits)
	assert.Equal(t, 0, conn.rollbacks)
	assert.Equal(t, Status{Total: 1, InUse: 0, Available: 1}, pool.Status())
}

func TestWithCursorRollsBackOnError(t *testing.T) {
	factory, made := countingFactory()
	pool := NewPool(factory, fastConfig(1), zap.NewNop())

	boom := errors.New("query failed")
	err := pool.WithCursor(context.Background(), func(conn Conn) error {
		return boom
	})
	require.ErrorIs(t, err, boom)

	conn := (*made)[0]
	assert.Equal(t, 0, conn.commits)
	assert.Equal(t, 1, conn.rollbacks)
	assert.Equal(t, 0, pool.Status().InUse)
}

func TestRunQuery(t *testing.T) {
	factory, _ := countingFactory()
	pool := NewPool(factory, fastConfig(1), zap.NewNop())

	result, err := pool.RunQuery(context.Background(), "SELECT n FROM t")
	require.NoError(t, err)
	assert.Equal(t, []string{"n"}, result.Columns)
	require.Len(t, result.Rows, 1)
}

func TestClose(t *testing.T) {
	factory, made := countingFactory()
	pool := NewPool(factory, fastConfig(2), zap.NewNop())
	ctx := context.Background()

	c1, _ := pool.Acquire(ctx)
	_, _ = pool.Acquire(ctx)
	pool.Release(c1)

	pool.Close()
	for _, c := range *made {
		assert.True(t, c.closed)
	}
	assert.Equal(t, Status{}, pool.Status())
}

func TestQueryResultRecords(t *testing.T) {
	r := &QueryResult{
		Columns: []string{"name", "aqi"},
		Rows:    [][]any{{"凤凰山", 57}, {"天河", 42}},
	}
	records := r.Records()
	require.Len(t, records, 2)
	assert.Equal(t, map[string]any{"name": "凤凰山", "aqi": 57}, records[0])

	var nilResult *QueryResult
	assert.Nil(t, nilResult.Records())
	assert.Equal(t, 0, nilResult.RowCount())
}

func TestSettingsFamilySelection(t *testing.T) {
	assert.True(t, Settings{Driver: "ODBC Driver 17 for SQL Server"}.IsSQLServer())
	assert.True(t, Settings{Server: "db.example.com"}.IsSQLServer())
	assert.False(t, Settings{Host: "db.example.com"}.IsSQLServer())
	assert.Equal(t, "sqlserver", Settings{Server: "s"}.Type())
	assert.Equal(t, "postgresql", Settings{Host: "h"}.Type())
}

func TestConcurrentAcquireRelease(t *testing.T) {
	const max = 3
	var mu sync.Mutex
	created := 0
	factory := func(ctx context.Context) (Conn, error) {
		mu.Lock()
		created++
		id := created
		mu.Unlock()
		return &fakeConn{id: id, alive: true}, nil
	}
	pool := NewPool(factory, fastConfig(max), zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				conn, err := pool.Acquire(ctx)
				if err != nil {
					if !errors.Is(err, apperrors.ErrPoolExhausted) {
						t.Errorf("unexpected acquire error: %v", err)
						return
					}
					continue
				}
				status := pool.Status()
				if status.InUse > status.Total {
					t.Errorf("in-use %d exceeds total %d", status.InUse, status.Total)
				}
				if status.Total > max {
					t.Errorf("total %d exceeds max %d", status.Total, max)
				}
				if _, err := conn.Query(ctx, "SELECT 1"); err != nil {
					t.Errorf("query on pooled connection: %v", err)
				}
				pool.Release(conn)
			}
		}()
	}
	wg.Wait()

	status := pool.Status()
	assert.Zero(t, status.InUse)
	assert.LessOrEqual(t, status.Total, max)
	mu.Lock()
	assert.LessOrEqual(t, created, max)
	mu.Unlock()
}

func TestReset(t *testing.T) {
	factory, made := countingFactory()
	pool := NewPool(factory, fastConfig(2), zap.NewNop())
	ctx := context.Background()

	held, err := pool.Acquire(ctx)
	require.NoError(t, err)
	idle, err := pool.Acquire(ctx)
	require.NoError(t, err)
	pool.Release(idle)

	pool.Reset()

	for _, c := range *made {
		assert.True(t, c.closed)
	}
	assert.Equal(t, Status{}, pool.Status())

	// The pool stays usable: the next acquire opens a fresh connection.
	fresh, err := pool.Acquire(ctx)
	require.NoError(t, err)
	assert.NotSame(t, held, fresh)
	assert.Len(t, *made, 3)

	// Releasing a connection closed by the reset does not re-admit it.
	pool.Release(held)
	assert.Equal(t, Status{Total: 1, InUse: 1}, pool.Status())
}
