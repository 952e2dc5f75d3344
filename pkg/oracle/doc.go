// Package oracle answers "does this object exist?" questions against a live
// database using each dialect's system catalogs.
package oracle
