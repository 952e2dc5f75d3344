// Package runner applies and reverts migrations against a target database.
//
// Each migration moves through Pending, Applying and then Applied, or Failed
// and (when its transaction was rolled back) RolledBack. For every pending
// migration the runner collects the changes its body emits, generates SQL
// for the target dialect, splits it into statements and executes them in
// order, recording the version in the ledger as the final statement of the
// same transaction.
//
// Migrations with TransactionMode None, and targets without transactions,
// run statement by statement; a failure then leaves earlier statements
// applied and the returned ExecutionError has Manual set.
//
// Cancellation is honored between migrations only. Statements run with a
// context detached from the caller's cancellation so that a migration is
// never abandoned half way.
package runner
