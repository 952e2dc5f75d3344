// Package processor executes SQL against real databases through
// database/sql.
//
// Supported drivers are postgres (lib/pq), mysql (go-sql-driver/mysql),
// sqlserver (go-mssqldb), sqlite (modernc.org/sqlite, pure Go), sqlite3
// (mattn/go-sqlite3, cgo) and clickhouse (clickhouse-go/v2). ClickHouse has
// no transactions, so migrations against it run statement by statement.
//
// Example usage:
//
//	db, err := processor.Open(processor.Options{
//		Driver: "postgres",
//		DSN:    "postgres://localhost/app?sslmode=disable",
//	})
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	version, err := db.ServerVersion(ctx)
package processor
