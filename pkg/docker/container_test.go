package docker_test

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/pseudomuto/crossmigrate/pkg/announce"
	"github.com/pseudomuto/crossmigrate/pkg/change"
	"github.com/pseudomuto/crossmigrate/pkg/dialect"
	"github.com/pseudomuto/crossmigrate/pkg/docker"
	"github.com/pseudomuto/crossmigrate/pkg/migration"
	"github.com/pseudomuto/crossmigrate/pkg/processor"
	"github.com/pseudomuto/crossmigrate/pkg/runner"
	"github.com/stretchr/testify/require"
)

// skipIfNoDocker skips the test if Docker is not available
func skipIfNoDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping Docker tests in short mode")
	}

	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("Docker not available")
	}

	if err := exec.Command("docker", "ps").Run(); err != nil {
		t.Skip("Docker daemon not running")
	}
}

func TestClickHouse_NotRunning(t *testing.T) {
	ch := docker.NewClickHouse(docker.ClickHouseOptions{Version: "24.8"})
	require.False(t, ch.IsRunning())
	require.NoError(t, ch.Stop(context.Background()))

	_, err := ch.DSN(context.Background())
	require.EqualError(t, err, "container is not running")

	_, err = ch.Open(context.Background())
	require.EqualError(t, err, "container is not running")
}

func TestClickHouse_Migrations(t *testing.T) {
	skipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	ch := docker.NewClickHouse(docker.ClickHouseOptions{
		Version:   "24.8",
		Database:  "app",
		Databases: []string{"meta"},
	})
	require.NoError(t, ch.Start(ctx))
	defer func() { _ = ch.Stop(ctx) }()
	require.True(t, ch.IsRunning())
	require.ErrorContains(t, ch.Start(ctx), "already running")

	db, err := ch.Open(ctx)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	raw, err := db.ServerVersion(ctx)
	require.NoError(t, err)
	version, err := processor.NormalizeVersion("clickhouse", raw)
	require.NoError(t, err)

	gen, err := dialect.New(dialect.ClickHouse, version)
	require.NoError(t, err)

	r, err := runner.New(runner.Options{
		Generator:    gen,
		Processor:    db,
		Announcer:    announce.Discard,
		LedgerSchema: "meta",
	})
	require.NoError(t, err)

	ms := []*migration.Migration{
		{
			Version:     1,
			Description: "events",
			Up: func(_ context.Context, b *migration.Builder) error {
				b.Add(&change.CreateTable{
					Table: "events",
					Columns: []change.Column{
						change.NewColumn("id", change.Int64()),
						change.NewColumn("name", change.String(100)),
					},
					Features: change.Features{}.With(change.OrderBy, []string{"id"}),
				})
				return nil
			},
		},
		{
			Version:     2,
			Description: "seed",
			Up: func(_ context.Context, b *migration.Builder) error {
				b.Add(&change.InsertRows{Table: "events", Rows: []change.Row{
					{{Column: "id", Value: 1}, {Column: "name", Value: "signup"}},
				}})
				return nil
			},
			Down: func(_ context.Context, b *migration.Builder) error {
				b.Add(&change.DeleteRows{Table: "events", AllRows: true})
				return nil
			},
		},
	}

	report, err := r.Up(ctx, ms, 0)
	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	ok, err := db.Exists(ctx, "SELECT 1 FROM events WHERE name = 'signup'")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = db.Exists(ctx, "SELECT 1 FROM meta.schema_versions WHERE version = 2")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = r.Down(ctx, ms, 0)
	require.NoError(t, err)

	status, err := r.Status(ctx, ms)
	require.NoError(t, err)
	require.False(t, status[0].Applied)
	require.False(t, status[1].Applied)
}
