package processor

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// sqlServerReleases maps SQL Server product major versions to the release
// years dialect layers are keyed on.
var sqlServerReleases = map[int]string{
	10: "2008",
	11: "2012",
	12: "2014",
	13: "2016",
	14: "2017",
	15: "2019",
	16: "2022",
}

// ServerVersion asks the server for its version and returns it in the form
// dialect layers use: "major.minor[.patch]", or the release year for SQL
// Server.
func (d *DB) ServerVersion(ctx context.Context) (string, error) {
	rows, err := d.Query(ctx, d.driver.version)
	if err != nil {
		return "", errors.Wrap(err, "failed to query server version")
	}
	defer func() { _ = rows.Close() }()

	var raw string
	if rows.Next() {
		if err := rows.Scan(&raw); err != nil {
			return "", errors.Wrap(err, "failed to scan server version")
		}
	}
	if err := rows.Err(); err != nil {
		return "", errors.Wrap(err, "failed to query server version")
	}

	return NormalizeVersion(d.opts.Driver, raw)
}

// NormalizeVersion extracts the numeric version from a server version string
// such as "21.10.3.9 (official build)", "8.0.32-0ubuntu0" or
// "14.5 (Debian 14.5-1.pgdg110+1)".
func NormalizeVersion(driver, raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	if i := strings.IndexAny(cleaned, " -"); i != -1 {
		cleaned = cleaned[:i]
	}

	m := versionPattern.FindStringSubmatch(cleaned)
	if m == nil {
		return "", errors.Errorf("invalid version format: %q", raw)
	}

	if driver == "sqlserver" {
		major, _ := strconv.Atoi(m[1])
		if year, ok := sqlServerReleases[major]; ok {
			return year, nil
		}
	}

	if m[3] == "" {
		return m[1] + "." + m[2], nil
	}
	return m[1] + "." + m[2] + "." + m[3], nil
}
