package docker

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
	"github.com/pseudomuto/crossmigrate/pkg/processor"
	"github.com/pseudomuto/crossmigrate/pkg/quote"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultClickHousePort is the native protocol port of the server
	DefaultClickHousePort = 9000

	// DefaultClickHouseHTTPPort is the HTTP port used for readiness checks
	DefaultClickHouseHTTPPort = 8123

	startupTimeout = 5 * time.Minute
	configTarget   = "/etc/clickhouse-server/config.d"
)

type (
	// ClickHouseOptions configures a throwaway ClickHouse server.
	ClickHouseOptions struct {
		// Version is the server image tag (default: latest)
		Version string

		// Database is created on startup and used by DSN (default: "default")
		Database string

		// Databases are created once the server is ready, e.g. a separate
		// database holding the migration ledger.
		Databases []string

		// ConfigDir is mounted at /etc/clickhouse-server/config.d when set.
		// Relative paths are resolved against the working directory.
		ConfigDir string
	}

	// ClickHouse manages a ClickHouse container to run migrations against.
	ClickHouse struct {
		options   ClickHouseOptions
		container *clickhouse.ClickHouseContainer
	}
)

// NewClickHouse creates a (stopped) ClickHouse server.
//
// Example:
//
//	ch := docker.NewClickHouse(docker.ClickHouseOptions{Version: "24.8", Databases: []string{"meta"}})
//	if err := ch.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer ch.Stop(ctx)
//
//	db, err := ch.Open(ctx)
func NewClickHouse(opts ClickHouseOptions) *ClickHouse {
	return &ClickHouse{options: opts}
}

// Start runs the server, waits until it answers HTTP requests and creates
// the extra databases.
func (c *ClickHouse) Start(ctx context.Context) error {
	if c.container != nil {
		return errors.New("container is already running")
	}

	customizers, err := c.customizers()
	if err != nil {
		return err
	}

	ctr, err := clickhouse.Run(ctx, c.image(), customizers...)
	if err != nil {
		return errors.Wrap(err, "failed to start ClickHouse container")
	}
	c.container = ctr

	if err := c.createDatabases(ctx); err != nil {
		_ = c.Stop(ctx)
		return err
	}

	return nil
}

func (c *ClickHouse) image() string {
	version := c.options.Version
	if version == "" {
		version = "latest"
	}
	return fmt.Sprintf("clickhouse/clickhouse-server:%s-alpine", version)
}

func (c *ClickHouse) customizers() ([]testcontainers.ContainerCustomizer, error) {
	ready := wait.NewHTTPStrategy("/").
		WithPort(nat.Port(fmt.Sprintf("%d/tcp", DefaultClickHouseHTTPPort))).
		WithStatusCodeMatcher(func(status int) bool { return status == 200 })

	out := []testcontainers.ContainerCustomizer{
		clickhouse.WithUsername("default"),
		clickhouse.WithPassword(""),
		testcontainers.WithEnv(map[string]string{"CLICKHOUSE_DEFAULT_ACCESS_MANAGEMENT": "1"}),
		testcontainers.WithWaitStrategyAndDeadline(startupTimeout, ready),
	}

	if c.options.Database != "" {
		out = append(out, clickhouse.WithDatabase(c.options.Database))
	}

	if c.options.ConfigDir == "" {
		return out, nil
	}

	abs, err := filepath.Abs(c.options.ConfigDir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get absolute path for ConfigDir: %s", c.options.ConfigDir)
	}

	return append(out, testcontainers.WithHostConfigModifier(func(hc *container.HostConfig) {
		hc.Mounts = append(hc.Mounts, mount.Mount{Type: mount.TypeBind, Source: abs, Target: configTarget})
	})), nil
}

func (c *ClickHouse) createDatabases(ctx context.Context) error {
	if len(c.options.Databases) == 0 {
		return nil
	}

	db, err := c.Open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	q := quote.ClickHouse()
	for _, name := range c.options.Databases {
		if err := db.Exec(ctx, "CREATE DATABASE IF NOT EXISTS "+q.QuoteIdentifier(name)); err != nil {
			return errors.Wrapf(err, "failed to create database %s", name)
		}
	}

	return nil
}

// Stop terminates and removes the container. Stopping a stopped server is a
// no-op.
func (c *ClickHouse) Stop(ctx context.Context) error {
	if c.container == nil {
		return nil
	}

	err := c.container.Terminate(ctx)
	c.container = nil

	if err != nil {
		return errors.Wrap(err, "failed to stop ClickHouse container")
	}

	return nil
}

// DSN returns a clickhouse:// connection string for the native port.
func (c *ClickHouse) DSN(ctx context.Context) (string, error) {
	if c.container == nil {
		return "", errors.New("container is not running")
	}

	dsn, err := c.container.ConnectionString(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to get connection string")
	}

	return dsn, nil
}

// Open returns a processor connected to the server.
func (c *ClickHouse) Open(ctx context.Context) (*processor.DB, error) {
	dsn, err := c.DSN(ctx)
	if err != nil {
		return nil, err
	}

	return processor.Open(processor.Options{Driver: "clickhouse", DSN: dsn})
}

func (c *ClickHouse) IsRunning() bool {
	return c.container != nil
}
