// Package cmd implements the command-line interface of skv. It provides a
// hierarchical command structure with operations for running the server and
// interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - kv: One command per hash command (hget, hset, hmget, ...) and a perf benchmark
//   - serve: Starting and configuring the skv server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set through an environment variable with the SKV_ prefix
// (e.g. SKV_DATA_DIR), .env and .env.local are loaded on startup.
//
// See skv -help for a list of all commands.
package cmd
