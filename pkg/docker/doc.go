// Package docker runs throwaway database servers in Docker for integration
// tests and local previews of migrations against real engines.
//
// Only ClickHouse is provided. The other supported targets either run
// in-process (SQLite) or are expected to be provided by the environment.
//
// # Usage Example
//
//	ch := docker.NewClickHouse(docker.ClickHouseOptions{Version: "24.8"})
//	if err := ch.Start(ctx); err != nil {
//		return err
//	}
//	defer ch.Stop(ctx)
//
//	dsn, err := ch.DSN(ctx)
//	if err != nil {
//		return err
//	}
//
// Tests using this package should skip when no Docker daemon is reachable.
package docker
