package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the query surface shared by *pgxpool.Pool, pgx.Tx and the pgxmock
// pool used in tests. Repositories are constructed over a DB and can be
// rebound to a transaction with WithTx, which is how the billing service
// groups writes into one atomic unit.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool adds transaction initiation on top of DB.
type Pool interface {
	DB
	Begin(ctx context.Context) (pgx.Tx, error)
}
