// Package paths provides centralized path handling for difftbx.
// It implements XDG Base Directory specification compliance and
// provides a consistent API for all path operations in the codebase.
package paths

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/difftbx/pkg/errors"
)

// Environment variable names
const (
	// EnvProjectRoot is the primary environment variable for the project location
	EnvProjectRoot = "DIFFTBX_PROJECT_ROOT"

	// EnvBuildDir overrides the build directory relative to the project root
	EnvBuildDir = "DIFFTBX_BUILD_DIR"

	// EnvDataDir overrides the XDG data directory for difftbx
	EnvDataDir = "DIFFTBX_DATA_DIR"

	// EnvConfigDir overrides the XDG config directory for difftbx
	EnvConfigDir = "DIFFTBX_CONFIG_DIR"

	// EnvCacheDir overrides the XDG cache directory for difftbx
	EnvCacheDir = "DIFFTBX_CACHE_DIR"

	// EnvInventoryDB overrides the scan inventory database location
	EnvInventoryDB = "DIFFTBX_INVENTORY_DB"
)

// Default directories and files. These define difftbx's on-disk layout and
// are not user-configurable; configurable paths belong in pkg/config.
const (
	// DifftbxDirName is the directory name for difftbx-specific files
	DifftbxDirName = "difftbx"

	// DefaultBuildDir is the build directory name under the project root
	DefaultBuildDir = "build"

	// SitePackagesDir is the metadata destination under the build directory
	SitePackagesDir = "lib/site-packages"

	// InventoryDBName is the scan inventory database file name
	InventoryDBName = "inventory.db"

	// LogFileName is the name of the log file
	LogFileName = "difftbx.log"
)

// Paths provides centralized path management for difftbx
type Paths interface {
	ProjectRoot() string
	UsedFallback() bool
	BuildDir() string
	SiteDir() string
	DataDir() string
	ConfigDir() string
	CacheDir() string
	StateDir() string
	InventoryDBPath() string
	LogFilePath() string
}

type paths struct {
	projectRoot string

	xdgData   string
	xdgConfig string
	xdgCache  string
	xdgState  string

	// usedFallback indicates if we fell back to cwd (for warning display)
	usedFallback bool
}

// New creates a new Paths instance with the given project root.
// If projectRoot is empty, it will be determined from environment variables,
// git discovery, or the current directory.
func New(projectRoot string) (Paths, error) {
	p := &paths{}

	if projectRoot == "" {
		root, usedFallback, err := findProjectRoot()
		if err != nil {
			return nil, err
		}
		p.projectRoot = root
		p.usedFallback = usedFallback
	} else {
		p.projectRoot = expandHome(projectRoot)
		p.usedFallback = false
	}

	absRoot, err := filepath.Abs(p.projectRoot)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to get absolute path for project root")
	}
	p.projectRoot = absRoot

	p.setupXDGDirs()

	return p, nil
}

// setupXDGDirs initializes XDG directories, respecting environment overrides
func (p *paths) setupXDGDirs() {
	if dataDir := os.Getenv(EnvDataDir); dataDir != "" {
		p.xdgData = expandHome(dataDir)
	} else {
		p.xdgData = filepath.Join(xdg.DataHome, DifftbxDirName)
	}

	if configDir := os.Getenv(EnvConfigDir); configDir != "" {
		p.xdgConfig = expandHome(configDir)
	} else {
		p.xdgConfig = filepath.Join(xdg.ConfigHome, DifftbxDirName)
	}

	if cacheDir := os.Getenv(EnvCacheDir); cacheDir != "" {
		p.xdgCache = expandHome(cacheDir)
	} else {
		p.xdgCache = filepath.Join(xdg.CacheHome, DifftbxDirName)
	}

	// XDG doesn't provide StateHome through the library, so we check manually
	if stateDir := os.Getenv("XDG_STATE_HOME"); stateDir != "" {
		p.xdgState = filepath.Join(stateDir, DifftbxDirName)
	} else {
		homeDir, _ := os.UserHomeDir()
		p.xdgState = filepath.Join(homeDir, ".local", "state", DifftbxDirName)
	}
}

// findProjectRoot determines the project root using the following priority:
// 1. DIFFTBX_PROJECT_ROOT environment variable (if set)
// 2. Git repository root (found via 'git rev-parse --show-toplevel')
// 3. Current working directory (fallback)
//
// The bool result reports whether the current working directory was used as
// the fallback, so callers can warn.
func findProjectRoot() (string, bool, error) {
	if root := os.Getenv(EnvProjectRoot); root != "" {
		return expandHome(root), false, nil
	}

	gitRoot, err := findGitRoot()
	if err == nil && gitRoot != "" {
		return gitRoot, false, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", false, errors.Wrapf(err, errors.ErrFileAccess, "failed to get current directory")
	}

	return cwd, true, nil
}

// findGitRoot attempts to find the root of the current git repository
func findGitRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")

	output, err := cmd.Output()
	if err != nil {
		// Not in a git repo or git not installed
		return "", err
	}

	gitRoot := strings.TrimSpace(string(output))
	if gitRoot == "" {
		return "", errors.New(errors.ErrNotFound, "git root is empty")
	}

	return gitRoot, nil
}

// expandHome expands a leading ~ to the user's home directory
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

func (p *paths) ProjectRoot() string {
	return p.projectRoot
}

func (p *paths) UsedFallback() bool {
	return p.usedFallback
}

// BuildDir returns the build directory, honoring the DIFFTBX_BUILD_DIR
// override. A relative override is resolved against the project root.
func (p *paths) BuildDir() string {
	if dir := os.Getenv(EnvBuildDir); dir != "" {
		dir = expandHome(dir)
		if filepath.IsAbs(dir) {
			return dir
		}
		return filepath.Join(p.projectRoot, dir)
	}
	return filepath.Join(p.projectRoot, DefaultBuildDir)
}

// SiteDir returns the package metadata destination under the build directory.
func (p *paths) SiteDir() string {
	return filepath.Join(p.BuildDir(), filepath.FromSlash(SitePackagesDir))
}

func (p *paths) DataDir() string {
	return p.xdgData
}

func (p *paths) ConfigDir() string {
	return p.xdgConfig
}

func (p *paths) CacheDir() string {
	return p.xdgCache
}

func (p *paths) StateDir() string {
	return p.xdgState
}

// InventoryDBPath returns the scan inventory database path, honoring the
// DIFFTBX_INVENTORY_DB override.
func (p *paths) InventoryDBPath() string {
	if db := os.Getenv(EnvInventoryDB); db != "" {
		return expandHome(db)
	}
	return filepath.Join(p.xdgData, InventoryDBName)
}

func (p *paths) LogFilePath() string {
	return filepath.Join(p.xdgState, LogFileName)
}
