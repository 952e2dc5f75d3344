// Package columnspec parses the compact column definitions used by YAML
// migrations ("email string(255) null unique") into change.Column values.
package columnspec
