// Package migration defines versioned migrations and loads them from a
// directory of SQL and YAML files.
//
// A migration's Up and Down bodies emit change descriptors through a Builder.
// Bodies run against the target's generator and, when connected, its schema
// oracle, so a body can branch on the dialect or on what already exists. When
// Down is nil the Up changes are reversed mechanically (see Reverse).
//
// Directories may carry a crossmigrate.sum file recording a chained hash of
// every migration file. LoadDir refuses to load a directory whose files no
// longer match it.
package migration
