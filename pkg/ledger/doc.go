// Package ledger tracks applied migration versions in a table inside the
// target database.
//
// The table (default schema_versions) has a version, applied_at and
// description column plus a unique index on version. It is created lazily on
// first use, and every statement that reads or writes it is generated by the
// target's dialect generator.
package ledger
