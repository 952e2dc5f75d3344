package announce_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	. "github.com/pseudomuto/crossmigrate/pkg/announce"
	"github.com/stretchr/testify/require"
)

func TestScript(t *testing.T) {
	var buf bytes.Buffer
	s := NewScript(&buf)

	s.Say("Applying migration", "version", 20240101, "description", "create users")
	s.SQL("CREATE TABLE users (id INT)")
	s.SQL("  DROP TABLE old;\n")

	require.Equal(t, strings.Join([]string{
		"-- Applying migration version=20240101 description=create users",
		"CREATE TABLE users (id INT);",
		"DROP TABLE old;",
		"",
	}, "\n"), buf.String())
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	a := NewLogger(logger)
	a.Say("Migrated", "version", 1)
	a.SQL("SELECT 1")

	out := buf.String()
	require.Contains(t, out, `msg=Migrated kind=say version=1`)
	require.Contains(t, out, `kind=sql sql="SELECT 1"`)
}

func TestMulti(t *testing.T) {
	var a, b bytes.Buffer
	m := Multi(NewScript(&a), NewScript(&b))
	m.SQL("SELECT 1")

	require.Equal(t, "SELECT 1;\n", a.String())
	require.Equal(t, a.String(), b.String())

	Discard.SQL("ignored")
	Discard.Say("ignored")
}
