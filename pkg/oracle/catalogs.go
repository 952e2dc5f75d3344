package oracle

// ANSI returns information_schema based queries.
func ANSI() Queries {
	return Queries{
		CurrentSchema: "CURRENT_SCHEMA",
		Schema:        "SELECT 1 FROM information_schema.schemata WHERE schema_name = {schema}",
		Table:         "SELECT 1 FROM information_schema.tables WHERE table_schema = {schema} AND table_name = {table}",
		Column:        "SELECT 1 FROM information_schema.columns WHERE table_schema = {schema} AND table_name = {table} AND column_name = {name}",
		Constraint:    "SELECT 1 FROM information_schema.table_constraints WHERE constraint_schema = {schema} AND table_name = {table} AND constraint_name = {name}",
		Sequence:      "SELECT 1 FROM information_schema.sequences WHERE sequence_schema = {schema} AND sequence_name = {name}",
		DefaultValue:  "SELECT 1 FROM information_schema.columns WHERE table_schema = {schema} AND table_name = {table} AND column_name = {name} AND column_default IS NOT NULL",
	}
}

func Postgres() Queries {
	q := ANSI()
	q.CurrentSchema = "current_schema()"
	q.Index = "SELECT 1 FROM pg_catalog.pg_indexes WHERE schemaname = {schema} AND tablename = {table} AND indexname = {name}"
	return q
}

// MySQL returns queries where schemas are databases. MySQL has no sequences.
func MySQL() Queries {
	q := ANSI()
	q.CurrentSchema = "DATABASE()"
	q.Index = "SELECT 1 FROM information_schema.statistics WHERE table_schema = {schema} AND table_name = {table} AND index_name = {name}"
	q.Sequence = ""
	return q
}

// SQLServer returns sys catalog queries. DefaultValue looks for a default
// constraint bound to the column.
func SQLServer() Queries {
	const object = "OBJECT_ID(QUOTENAME({schema}) + '.' + QUOTENAME({table}))"

	return Queries{
		CurrentSchema: "SCHEMA_NAME()",
		Schema:        "SELECT 1 FROM sys.schemas WHERE name = {schema}",
		Table:         "SELECT 1 FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = {schema} AND TABLE_NAME = {table}",
		Column:        "SELECT 1 FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = {schema} AND TABLE_NAME = {table} AND COLUMN_NAME = {name}",
		Index:         "SELECT 1 FROM sys.indexes WHERE name = {name} AND object_id = " + object,
		Constraint:    "SELECT 1 FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS WHERE CONSTRAINT_SCHEMA = {schema} AND TABLE_NAME = {table} AND CONSTRAINT_NAME = {name}",
		Sequence:      "SELECT 1 FROM sys.sequences WHERE name = {name} AND schema_id = SCHEMA_ID({schema})",
		DefaultValue: "SELECT 1 FROM sys.default_constraints dc JOIN sys.columns c ON c.object_id = dc.parent_object_id " +
			"AND c.column_id = dc.parent_column_id WHERE dc.parent_object_id = " + object + " AND c.name = {name}",
	}
}

// SQLite returns sqlite_master and pragma based queries. The schema of table
// level queries is ignored; attached databases are not inspected.
func SQLite() Queries {
	return Queries{
		CurrentSchema: "'main'",
		Schema:        "SELECT 1 FROM pragma_database_list WHERE name = {schema}",
		Table:         "SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = {table}",
		Column:        "SELECT 1 FROM pragma_table_info({table}) WHERE name = {name}",
		Index:         "SELECT 1 FROM sqlite_master WHERE type = 'index' AND tbl_name = {table} AND name = {name}",
		DefaultValue:  "SELECT 1 FROM pragma_table_info({table}) WHERE name = {name} AND dflt_value IS NOT NULL",
	}
}

// ClickHouse returns system table queries. Indexes are data skipping indices.
func ClickHouse() Queries {
	return Queries{
		CurrentSchema: "currentDatabase()",
		Schema:        "SELECT 1 FROM system.databases WHERE name = {schema}",
		Table:         "SELECT 1 FROM system.tables WHERE database = {schema} AND name = {table}",
		Column:        "SELECT 1 FROM system.columns WHERE database = {schema} AND table = {table} AND name = {name}",
		Index:         "SELECT 1 FROM system.data_skipping_indices WHERE database = {schema} AND table = {table} AND name = {name}",
		DefaultValue:  "SELECT 1 FROM system.columns WHERE database = {schema} AND table = {table} AND name = {name} AND default_kind != ''",
	}
}
