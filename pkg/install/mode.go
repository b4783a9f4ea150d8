// Package install implements the reconfigure-time package metadata
// installation, including the mode selection that decides whether the
// base-provided package receives its own metadata record.
package install

import (
	"os"
	"path/filepath"
)

// EnvInstallPackageBase selects standard installation mode when set to any
// value, including the empty string.
const EnvInstallPackageBase = "TBX_INSTALL_PACKAGE_BASE"

// MarkerName is the file name that, when present in the build directory,
// has the same effect as setting the environment variable.
const MarkerName = "TBX_INSTALL_PACKAGE_BASE"

// Mode is the package-metadata installation behavior chosen at
// reconfigure time.
type Mode string

const (
	// ModeStandard installs metadata records for every package
	ModeStandard Mode = "standard"

	// ModeLegacy avoids writing a second copy of the base package's
	// metadata, which the environment already provides
	ModeLegacy Mode = "legacy"
)

func (m Mode) String() string {
	return string(m)
}

// Source names the signal that selected the install mode
type Source string

const (
	SourceEnv     Source = "environment variable"
	SourceMarker  Source = "marker file"
	SourceDefault Source = "default"
)

// Detect evaluates the install-mode flag: standard mode when the
// TBX_INSTALL_PACKAGE_BASE environment variable is set (to any value) or
// when a marker file of the same name exists in the build directory,
// legacy mode otherwise. The check is a pure read and is idempotent; it
// cannot fail. A stat error other than not-exist counts as marker absent.
func Detect(buildDir string) (Mode, Source) {
	log := logger()

	if _, ok := os.LookupEnv(EnvInstallPackageBase); ok {
		log.Debug().
			Str("env", EnvInstallPackageBase).
			Msg("Install mode selected by environment variable")
		return ModeStandard, SourceEnv
	}

	marker := filepath.Join(buildDir, MarkerName)
	if _, err := os.Stat(marker); err == nil {
		log.Debug().
			Str("marker", marker).
			Msg("Install mode selected by marker file")
		return ModeStandard, SourceMarker
	} else if !os.IsNotExist(err) {
		log.Debug().
			Err(err).
			Str("marker", marker).
			Msg("Marker file unreadable, treating as absent")
	}

	return ModeLegacy, SourceDefault
}

// DetectMode returns just the mode, for callers that do not care which
// signal selected it
func DetectMode(buildDir string) Mode {
	mode, _ := Detect(buildDir)
	return mode
}

// MarkerPath returns where DetectMode looks for the marker file
func MarkerPath(buildDir string) string {
	return filepath.Join(buildDir, MarkerName)
}
