package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// statsDriver answers the total count and fails the per-category query.
type statsDriver struct{}

func (statsDriver) Open(string) (driver.Conn, error) { return statsConn{}, nil }

type statsConn struct{}

func (statsConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (statsConn) Close() error                        { return nil }
func (statsConn) Begin() (driver.Tx, error)           { return nil, errors.New("not supported") }

func (statsConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if strings.Contains(query, "GROUP BY") {
		return nil, errors.New("relation posted_articles does not exist")
	}
	return &countRows{}, nil
}

type countRows struct{ done bool }

func (*countRows) Columns() []string { return []string{"count"} }
func (*countRows) Close() error      { return nil }

func (r *countRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	r.done = true
	dest[0] = int64(3)
	return nil
}

func init() {
	sql.Register("storage-stats", statsDriver{})
}

func TestPostgresStatsReportsCategoryError(t *testing.T) {
	db, err := sql.Open("storage-stats", "")
	require.NoError(t, err)
	defer db.Close()

	pc := &PostgresCache{db: db, ttlHours: 48}
	stats, err := pc.GetStats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relation posted_articles does not exist")
	assert.Nil(t, stats)
}
