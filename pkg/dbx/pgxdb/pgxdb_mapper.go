package pgxdb

import (
	"github.com/jackc/pgx/v5"
	"github.com/marcodd23/go-stream-db/pkg/dbx"
	"github.com/marcodd23/go-stream-db/pkg/errorx"
)

// StructMapper - RowMapper scanning each row into a struct by column
// name, via pgx's struct scanning. Only usable with rows produced by
// this package.
func StructMapper[T any]() dbx.RowMapper[T] {
	return func(row dbx.RowScan) (T, error) {
		pr, ok := row.(*pgxRows)
		if !ok {
			var zero T
			return zero, errorx.NewDatabaseError("StructMapper requires pgx rows, got %T", row)
		}

		return pgx.RowToStructByName[T](pr.rows)
	}
}
