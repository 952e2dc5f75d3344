package migration

import (
	"bufio"
	"context"
	"io/fs"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/crossmigrate/pkg/consts"
)

const (
	directivePrefix = "-- migrate:"
	noTransaction   = "no-transaction"
	breaking        = "breaking"
)

// fileName matches <version>_<description>.(up.sql|down.sql|yaml|yml).
var fileName = regexp.MustCompile(`^(\d+)_([^.]+)\.(up\.sql|down\.sql|ya?ml)$`)

// LoadDir loads the migrations in the root of fsys, in file name order.
//
// SQL migrations are pairs of <version>_<description>.up.sql and an optional
// .down.sql file. Leading "-- migrate:no-transaction" and "-- migrate:breaking"
// comment lines of the up file set the transaction mode and breaking flag.
// YAML migrations (<version>_<description>.yaml) describe changes
// declaratively. Other files are ignored.
//
// When a sum file is present, the migration files must match it.
func LoadDir(fsys fs.FS) ([]*Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read migrations directory")
	}

	if err := verifySum(fsys); err != nil {
		return nil, err
	}

	var (
		ms      []*Migration
		byVer   = make(map[int64]*Migration)
		downs   = make(map[int64]string)
		hasYAML = make(map[int64]bool)
	)

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		match := fileName.FindStringSubmatch(e.Name())
		if match == nil {
			continue
		}

		version, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid version in %s", e.Name())
		}

		content, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read migration: %s", e.Name())
		}

		description := strings.ReplaceAll(match[2], "_", " ")

		switch match[3] {
		case "down.sql":
			downs[version] = string(content)
			continue
		case "up.sql":
			if _, ok := byVer[version]; ok {
				return nil, errors.Errorf("duplicate migration version %d: %s", version, e.Name())
			}
			m := sqlMigration(version, description, string(content))
			m.Source = e.Name()
			byVer[version] = m
			ms = append(ms, m)
		default:
			if _, ok := byVer[version]; ok {
				return nil, errors.Errorf("duplicate migration version %d: %s", version, e.Name())
			}
			m, err := LoadYAML(version, description, content)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to load migration: %s", e.Name())
			}
			m.Source = e.Name()
			byVer[version] = m
			hasYAML[version] = true
			ms = append(ms, m)
		}
	}

	for version, sql := range downs {
		m, ok := byVer[version]
		if !ok || hasYAML[version] {
			return nil, errors.Errorf("down migration %d has no matching .up.sql file", version)
		}
		m.Down = sqlBody(sql)
	}

	return ms, nil
}

func sqlMigration(version int64, description, sql string) *Migration {
	m := &Migration{Version: version, Description: description, Up: sqlBody(sql)}

	for _, d := range directives(sql) {
		switch d {
		case noTransaction:
			m.Transaction = None
		case breaking:
			m.Breaking = true
		}
	}

	return m
}

func sqlBody(sql string) Body {
	return func(_ context.Context, b *Builder) error {
		b.SQL(sql)
		return nil
	}
}

// directives returns the "-- migrate:" directives of the leading comment
// lines of sql.
func directives(sql string) []string {
	var out []string

	scanner := bufio.NewScanner(strings.NewReader(sql))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "--") {
			break
		}
		if d, ok := strings.CutPrefix(line, directivePrefix); ok {
			out = append(out, strings.TrimSpace(d))
		}
	}

	return out
}

// verifySum checks the migration files against the sum file, if one exists.
func verifySum(fsys fs.FS) error {
	data, err := fs.ReadFile(fsys, consts.DefaultSumFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", consts.DefaultSumFile)
	}

	want, err := LoadSumFile(strings.NewReader(string(data)))
	if err != nil {
		return errors.Wrapf(err, "failed to parse %s", consts.DefaultSumFile)
	}

	got, err := ComputeSum(fsys)
	if err != nil {
		return err
	}

	if name, ok := want.Diff(got); !ok {
		return errors.Wrapf(ErrChecksumMismatch, "%s (run rehash after intentional edits)", name)
	}

	return nil
}
