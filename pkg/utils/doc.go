// Package utils provides small generic helpers shared across packages.
package utils
