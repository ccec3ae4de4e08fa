package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

// DBConnKey carries a request-scoped acquired connection. Repositories fall
// back to the shared pool when no connection has been pinned.
const DBConnKey contextKey = "db_conn"

// WithConn returns a context carrying conn so that all repository calls in
// the request share one connection (and one transaction when conn is inside
// a transaction).
func WithConn(ctx context.Context, conn *pgxpool.Conn) context.Context {
	return context.WithValue(ctx, DBConnKey, conn)
}

// ConnFromContext retrieves the request-scoped database connection from
// context, or nil when none was pinned.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(DBConnKey).(*pgxpool.Conn)
	return conn
}
