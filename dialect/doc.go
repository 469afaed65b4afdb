// Package dialect identifies the database backends snapshots can be read
// from.
//
// # Supported Dialects
//
//   - Postgres: PostgreSQL database
//   - MySQL: MySQL/MariaDB database
//   - SQLite: SQLite database
//
// # Driver Interface
//
//	type Driver interface {
//	    Query(ctx context.Context, query string, args, v any) error
//	    Close() error
//	    Dialect() string
//	}
//
// The database/sql implementation lives in dialect/sql:
//
//	drv, err := sql.Open(dialect.SQLite, "file:pos.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//	snap, err := drv.Snapshot(ctx, s, "res.partner", "pos.order")
package dialect
