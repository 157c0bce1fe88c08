package pgxdb

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/marcodd23/go-stream-db/pkg/dbx"
	"github.com/marcodd23/go-stream-db/pkg/errorx"
	"github.com/marcodd23/go-stream-db/pkg/logx"
)

//###################################
//#       Postgres Connection       #
//###################################

// PgxConnection - one pooled Postgres connection, optionally carrying an
// open transaction. Implements dbx.Connection: Commit/Rollback finalize
// the transaction (when present) and release the connection back to the
// pool; Release discards any open transaction.
type PgxConnection struct {
	conn *pgxpool.Conn
	tx   pgx.Tx
	txId int64
}

// Query executes a query on the connection, within the open transaction
// when one is active, and returns a cursor over the result rows.
func (c *PgxConnection) Query(ctx context.Context, query string, args ...any) (dbx.Rows, error) {
	var (
		rows pgx.Rows
		err  error
	)

	if c.tx != nil {
		rows, err = c.tx.Query(ctx, query, args...)
	} else {
		rows, err = c.conn.Query(ctx, query, args...)
	}

	if err != nil {
		return nil, errorx.NewDatabaseErrorWrapper(err, "Error executing query '%s'", query)
	}

	return &pgxRows{rows: rows}, nil
}

// Commit - commits the open transaction and releases the connection to
// the pool. Without an open transaction it only releases.
func (c *PgxConnection) Commit(ctx context.Context) error {
	defer c.conn.Release()

	if c.tx == nil {
		return nil
	}

	err := c.tx.Commit(ctx)
	if err != nil {
		logx.GetLogger().LogError(ctx, "error during transaction commit", err)
		return errorx.NewDatabaseErrorWrapper(err, "error during transaction commit")
	}

	return nil
}

// Rollback - rolls back the open transaction and releases the connection
// to the pool. Without an open transaction it only releases.
func (c *PgxConnection) Rollback(ctx context.Context) error {
	defer c.conn.Release()

	if c.tx == nil {
		return nil
	}

	err := c.tx.Rollback(ctx)
	if err != nil {
		logx.GetLogger().LogError(ctx, fmt.Sprintf("error Rolling Back transaction: %d", c.txId), err)
		return errorx.NewDatabaseErrorWrapper(err, "error during transaction rollback")
	}

	logx.GetLogger().LogDebug(ctx, fmt.Sprintf("Rollback transaction: %d", c.txId))

	return nil
}

// Release - return the connection to the pool without finalizing. An open
// transaction is rolled back first.
func (c *PgxConnection) Release() {
	if c.tx != nil {
		_ = c.tx.Rollback(context.Background())
	}

	c.conn.Release()
}

// pgxRows adapts pgx.Rows to the dbx.Rows cursor.
type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool {
	return r.rows.Next()
}

func (r *pgxRows) Scan(dest ...any) error {
	return r.rows.Scan(dest...)
}

func (r *pgxRows) Err() error {
	return r.rows.Err()
}

func (r *pgxRows) Close() {
	r.rows.Close()
}
