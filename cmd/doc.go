// Package cmd implements the command-line interface of dotset. It provides a
// hierarchical command structure for changing settings and for running a
// settings server.
//
// The package is organized into several subpackages:
//
//   - settings: Commands reading and changing settings (get, set, forget, all, keys, import)
//   - serve: Command starting the settings server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set in the environment as DOTSET_<FLAG> (dashes
// become underscores, e.g. DOTSET_DB_DSN), in a .env or .env.local file, or
// in a config file given with --config.
//
// See dotset -help for a list of all commands.
package cmd
