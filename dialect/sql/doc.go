// Package sql reads snapshots from SQL databases through database/sql.
//
// Each model is stored in a table named after the model, with dots
// replaced by underscores. Stored columns are the id, the scalar fields
// and the many2one fields. Many2many fields are read from their relation
// table:
//
//	drv, err := sql.Open(dialect.Postgres, dsn)
//	if err != nil {
//	    return err
//	}
//	defer drv.Close()
//
//	snap, err := drv.Snapshot(ctx, s, "pos.order", "pos.order.line")
//	if err != nil {
//	    return err
//	}
//	loaded, err := store.Load(snap)
//
// # Statistics
//
// StatsDriver counts the queries issued while reading snapshots and warns
// about slow reads:
//
//	stats := sql.NewStatsDriver(drv,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(logger),
//	)
//	snap, err := sql.ReadSnapshot(ctx, stats, s)
//	fmt.Println(stats.QueryStats().Stats())
package sql
