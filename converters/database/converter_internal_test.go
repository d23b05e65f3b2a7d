package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

type singleConn struct{}

func (singleConn) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, sql.ErrConnDone
}

func TestConcurrency(t *testing.T) {
	db, err := sql.Open(SQLite.Driver, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	c := &Converter{Dialect: SQLite}
	require.Equal(t, DefaultConcurrency, c.concurrency(db))

	c.Concurrency = 7
	require.Equal(t, 7, c.concurrency(db))
	require.Equal(t, 1, c.concurrency(singleConn{}))
}
