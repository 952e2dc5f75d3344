// Package change defines the dialect independent change descriptors that
// migrations are written in.
//
// A descriptor describes one schema or data operation (create a table, add an
// index, upsert rows, ...). Descriptors hold data only: a dialect generator turns
// them into SQL and the runner executes that SQL. Every descriptor implements
// Change:
//
//   - Kind identifies the variant
//   - Validate returns structural violations (empty means valid) and never panics
//   - Reverse returns the inverse change, or nil when no mechanical inverse exists
//
// # Building descriptors
//
//	users := &change.CreateTable{
//		Table: "Users",
//		Columns: []change.Column{
//			change.NewColumn("Id", change.Int32()).PrimaryKey().Identity(),
//			change.NewColumn("Name", change.String(50)),
//			change.NewColumn("CreatedAt", change.DateTime()).Default(change.CurrentUTCDateTime),
//		},
//	}
//
//	users.Reverse() // &change.DeleteTable{Table: "Users"}
//
// # Reversal
//
// Create variants reverse to their Delete counterparts and renames reverse to
// the swapped rename. InsertRows reverses to deleting the inserted rows, and
// UpsertRows reverses to deleting rows keyed only on the match columns, since
// the values overwritten by the upsert are unknown. ExecuteSQL, Perform,
// UpdateRows, AlterColumn and the Delete variants (unless they carry the full
// definition) have no inverse; migrations using them need an explicit down body.
//
// # Vendor features
//
// Index and table options that only some vendors understand are attached
// through the typed Features side-table rather than dedicated fields. Each
// Feature documents its value type and Validate rejects mismatches.
package change
