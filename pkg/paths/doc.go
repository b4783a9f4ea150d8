// Package paths provides centralized path handling for difftbx.
//
// This package implements the XDG Base Directory specification and provides
// a consistent API for all path operations throughout the difftbx codebase.
// It handles:
//
//   - Project root discovery (explicit, environment, git, cwd fallback)
//   - Build directory and package-metadata site directory layout
//   - XDG directory structure (data, config, cache, state)
//   - Scan inventory database and log file locations
//
// # Environment Variables
//
// The package respects the following environment variables:
//
//   - DIFFTBX_PROJECT_ROOT: Primary location for the project checkout
//   - DIFFTBX_BUILD_DIR: Override the build directory (default: <root>/build)
//   - DIFFTBX_DATA_DIR: Override XDG data directory (default: $XDG_DATA_HOME/difftbx)
//   - DIFFTBX_CONFIG_DIR: Override XDG config directory (default: $XDG_CONFIG_HOME/difftbx)
//   - DIFFTBX_CACHE_DIR: Override XDG cache directory (default: $XDG_CACHE_HOME/difftbx)
//   - DIFFTBX_INVENTORY_DB: Override the scan inventory database path
package paths
