package quote

import "strings"

// ansiReserved is a conservative set of SQL:2003 reserved words shared by
// every dialect.
var ansiReserved = words(`
	ALL ALTER AND ANY AS ASC BETWEEN BY CASE CAST CHECK COLUMN CONSTRAINT CREATE
	CROSS CURRENT_DATE CURRENT_TIME CURRENT_TIMESTAMP DEFAULT DELETE DESC DISTINCT
	DROP ELSE END EXCEPT EXISTS FALSE FETCH FOR FOREIGN FROM FULL GRANT GROUP HAVING
	IN INDEX INNER INSERT INTERSECT INTO IS JOIN KEY LEFT LIKE NOT NULL OF ON OR ORDER
	OUTER PRIMARY REFERENCES RIGHT SELECT SET TABLE THEN TO TRUE UNION UNIQUE UPDATE
	USER USING VALUES WHEN WHERE WITH`)

// ANSI returns the standard quoter: double-quoted identifiers, TRUE/FALSE
// booleans and X'..' binary literals.
func ANSI() *Quoter {
	return New(Config{})
}

// Postgres returns the quoter for PostgreSQL.
func Postgres() *Quoter {
	return New(Config{
		ReservedWords: merge(ansiReserved, words(`ANALYSE ANALYZE ARRAY ASYMMETRIC BOTH
			DO LIMIT OFFSET ONLY PLACING RETURNING SYMMETRIC VARIADIC WINDOW`)),
		FormatBytes: func(h string) string { return `'\x` + h + `'::bytea` },
		FormatGUID:  func(s string) string { return "'" + s + "'::uuid" },
	})
}

// MySQL returns the quoter for MySQL/MariaDB: backtick identifiers, escaped
// backslashes and 1/0 booleans.
func MySQL() *Quoter {
	return New(Config{
		OpenIdentifier:    "`",
		CloseIdentifier:   "`",
		EscapeBackslashes: true,
		True:              "1",
		False:             "0",
		ReservedWords:     merge(ansiReserved, words(`CHANGE DATABASE DIV KEYS LIMIT MOD RANGE READ REPLACE SHOW`)),
		TimeLayout:        "2006-01-02 15:04:05",
		FormatBytes:       func(h string) string { return "UNHEX('" + strings.ToUpper(h) + "')" },
	})
}

// SQLServer returns the quoter for Microsoft SQL Server: bracket identifiers,
// N'' unicode literals, 1/0 booleans and 0x binary literals.
func SQLServer() *Quoter {
	return New(Config{
		OpenIdentifier:  "[",
		CloseIdentifier: "]",
		StringPrefix:    "N",
		True:            "1",
		False:           "0",
		ReservedWords:   merge(ansiReserved, words(`BACKUP BROWSE CLUSTERED IDENTITY NONCLUSTERED PROC TOP TRAN`)),
		FormatBytes:     func(h string) string { return "0x" + strings.ToUpper(h) },
		FormatGUID:      func(s string) string { return "'" + strings.ToUpper(s) + "'" },
	})
}

// SQLite returns the quoter for SQLite.
func SQLite() *Quoter {
	return New(Config{
		True:          "1",
		False:         "0",
		TimeLayout:    "2006-01-02 15:04:05",
		ReservedWords: merge(ansiReserved, words(`AUTOINCREMENT GLOB LIMIT PRAGMA REGEXP VACUUM`)),
	})
}

// ClickHouse returns the quoter for ClickHouse: backtick identifiers and
// escaped backslashes.
func ClickHouse() *Quoter {
	return New(Config{
		OpenIdentifier:    "`",
		CloseIdentifier:   "`",
		EscapeBackslashes: true,
		True:              "true",
		False:             "false",
		TimeLayout:        "2006-01-02 15:04:05",
		FormatBytes:       func(h string) string { return "unhex('" + h + "')" },
		FormatGUID:        func(s string) string { return "toUUID('" + s + "')" },
	})
}

func words(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

func merge(sets ...map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for _, set := range sets {
		for w := range set {
			out[w] = struct{}{}
		}
	}
	return out
}
