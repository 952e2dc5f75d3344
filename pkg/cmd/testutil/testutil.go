// Package testutil provides project fixtures for command tests.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/crossmigrate/pkg/config"
	"github.com/pseudomuto/crossmigrate/pkg/consts"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

type (
	// ProjectFixture is an isolated project backed by a SQLite database file.
	ProjectFixture struct {
		Dir    string
		Config *config.Config
		t      *testing.T
	}

	// MigrationFile is a file written into the migrations directory.
	MigrationFile struct {
		Name    string
		Content string
	}
)

// TestProject creates a project in a temp directory with a config targeting
// a SQLite database in the same directory. Paths in the config are absolute
// so commands can run without changing directory.
func TestProject(t *testing.T) *ProjectFixture {
	t.Helper()

	dir := t.TempDir()
	p := &ProjectFixture{Dir: dir, t: t}

	cfg, err := config.LoadConfig(bytes.NewReader(mustYAML(t, map[string]any{
		"provider": "sqlite",
		"target":   map[string]any{"dsn": filepath.Join(dir, "app.db")},
		"dir":      filepath.Join(dir, consts.DefaultMigrationsDir),
	})))
	require.NoError(t, err, "Failed to build test config")
	p.Config = cfg

	require.NoError(t, os.MkdirAll(p.MigrationsDir(), consts.ModeDir))
	return p
}

// WithMigrations writes files into the migrations directory.
func (p *ProjectFixture) WithMigrations(files []MigrationFile) *ProjectFixture {
	p.t.Helper()

	for _, f := range files {
		path := filepath.Join(p.MigrationsDir(), f.Name)
		require.NoError(p.t, os.WriteFile(path, []byte(f.Content), consts.ModeFile), "Failed to write migration file: %s", f.Name)
	}

	return p
}

// WithConfig applies fn to the config.
func (p *ProjectFixture) WithConfig(fn func(*config.Config)) *ProjectFixture {
	fn(p.Config)
	return p
}

// MigrationsDir returns the absolute migrations directory.
func (p *ProjectFixture) MigrationsDir() string {
	return p.Config.Dir
}

// SumFilePath returns the path of the project's sum file.
func (p *ProjectFixture) SumFilePath() string {
	return filepath.Join(p.MigrationsDir(), consts.DefaultSumFile)
}

// Run executes command with args below a root command and returns what it
// printed.
func Run(t *testing.T, command *cli.Command, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	app := &cli.Command{
		Name:     "test",
		Writer:   &buf,
		Commands: []*cli.Command{command},
	}

	err := app.Run(context.Background(), append([]string{"test", command.Name}, args...))
	return buf.String(), err
}

// UsersMigrations creates a users table, seeds it with YAML and adds an index
// with raw SQL.
func UsersMigrations() []MigrationFile {
	return []MigrationFile{
		{
			Name: "20240101000000_create_users.yaml",
			Content: `up:
  - create_table:
      name: users
      columns:
        - id int32 primary key identity
        - name string(50)
`,
		},
		{
			Name: "20240102000000_seed_users.yaml",
			Content: `up:
  - insert:
      table: users
      rows:
        - {id: 1, name: Ann}
        - {id: 2, name: Bob}
`,
		},
		{Name: "20240103000000_name_index.up.sql", Content: "CREATE INDEX ix_users_name ON users (name);\n"},
		{Name: "20240103000000_name_index.down.sql", Content: "DROP INDEX ix_users_name;\n"},
	}
}

func mustYAML(t *testing.T, v any) []byte {
	t.Helper()

	data, err := yaml.Marshal(v)
	require.NoError(t, err)
	return data
}
