package interfaces

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX — минимальный интерфейс исполнителя запросов Postgres.
// Ему удовлетворяют и *pgxpool.Pool, и pgx.Tx, поэтому репозитории
// работают одинаково внутри и вне транзакции. pgxscan принимает его напрямую.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
