// Package splitter decomposes multi-statement SQL scripts into independently
// executable statements.
//
// Most database drivers execute a single statement per call, and several dialects
// wrap multi-statement logic in procedural blocks or use client-side batch
// separators. The splitter recognizes structural boundaries only: string
// literals, quoted identifiers, comments, dollar-quoted bodies, BEGIN ... END
// blocks and separator lines. It never validates the SQL itself.
//
// # Boundaries
//
// A statement ends at the dialect terminator (";" by default) when the scanner is
// outside any string, comment or procedural block. Blocks are opened by BEGIN
// (but not BEGIN TRANSACTION), DECLARE, CASE and CREATE PROCEDURE/FUNCTION/
// PACKAGE/TRIGGER productions, and closed by a matching END. END IF, END LOOP,
// END WHILE and END REPEAT close control statements and leave the block open.
//
// Batch separators such as SQL Server's GO are recognized when alone on a line,
// optionally followed by a repeat count:
//
//	stmts := splitter.New(splitter.SQLServer()).Split("INSERT INTO t DEFAULT VALUES\nGO 3\n")
//	// stmts[0].SQL == "INSERT INTO t DEFAULT VALUES", stmts[0].Repeat == 3
//
// # Recovery
//
// Unterminated strings, comments, quoted identifiers and blocks at the end of the
// input are closed implicitly so the script can still make progress. Each such
// case is logged through slog and attached to the statement's Warnings.
package splitter
