// Package dialect generates vendor specific SQL from change descriptors.
//
// Each generator is a stack of layers: the ANSI base, the vendor defaults and
// then every version override up to the requested version, in ascending
// order. Generation walks the stack from the top and uses the first layer
// with a production for the change kind. A production may call ctx.Next to
// reuse the behavior of the layer below, so a version override only has to
// describe what diverges:
//
//	gen, err := dialect.New(dialect.Postgres, "9.5")
//	if err != nil {
//		return err
//	}
//
//	// INSERT INTO "users" ("id", "name") VALUES (1, 'a') ON CONFLICT ("id") DO UPDATE SET "name" = EXCLUDED."name";
//	sql, err := gen.Generate(&change.UpsertRows{
//		Table:        "users",
//		Rows:         []change.Row{{{Column: "id", Value: 1}, {Column: "name", Value: "a"}}},
//		MatchColumns: []string{"id"},
//	})
//
// # Compatibility
//
// A change the dialect cannot express fails with a *CompatibilityError rather
// than producing SQL that would be wrong or fail at runtime. Vendor features
// attached to tables and indexes (fill factor, filters, engines and so on)
// are checked the same way.
//
// # Oracle
//
// Productions may consult an *oracle.Oracle attached with WithOracle when the
// SQL depends on the live schema, such as dropping an unnamed default
// constraint. Without an oracle they emit SQL that performs the lookup when it
// executes.
package dialect
