package difftbx

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort        = "A toolbox for diffraction experiment models and images"
	MsgReconfigureShort = "Write package metadata for the configured set"
	MsgInspectShort     = "Show the experimental models of an image"
	MsgFormatsShort     = "List the registered image formats"
	MsgConvertShort     = "Convert images to miniCBF files"
	MsgScanShort        = "Catalogue diffraction images under a directory"
	MsgGenConfigShort   = "Print the default configuration"
	MsgTopicsShort      = "Display available documentation topics"
	MsgTopicsLong       = "Display a list of all available help topics that provide additional documentation beyond command help."
	MsgVersionShort     = "Show version information"
	MsgCompletionShort  = "Generate shell completion script"

	// Status messages
	MsgDryRunNotice    = "\nDRY RUN MODE - No changes were made"
	MsgConvertDone     = "Wrote %d output files\n"
	MsgConvertPlanned  = "Planned %d output files\n"
	MsgConvertProgress = "converting"
	MsgScanSummary     = "\n%d images catalogued (%d files examined, %d unknown, %d skipped)\n"
	MsgWatchNotice     = "Watching %s, press ctrl+c to end...\n"
	MsgConfigWritten   = "Written %s\n"
	MsgConfigExists    = "Config file already exists, nothing written."
	MsgVersionFormat   = "difftbx %s (commit %s, built %s)\n"

	// Error messages
	MsgErrInitPaths   = "failed to initialize paths: %w"
	MsgErrLoadConfig  = "failed to load configuration: %w"
	MsgErrReconfigure = "failed to reconfigure: %w"
	MsgErrInspect     = "failed to inspect image: %w"
	MsgErrConvert     = "failed to convert images: %w"
	MsgErrScan        = "failed to scan directory: %w"
	MsgErrInventory   = "failed to open inventory: %w"
	MsgErrGenConfig   = "failed to generate config: %w"

	// Flag descriptions
	MsgFlagVerbose       = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun        = "Preview changes without executing them"
	MsgFlagForce         = "Overwrite metadata files that already exist"
	MsgFlagBuildDir      = "Build directory checked for the install-mode marker"
	MsgFlagSiteDir       = "Directory metadata records are written to"
	MsgFlagOutput        = "Output format (text, xml, toml, yaml)"
	MsgFlagFormatsOutput = "Output format (text, xml)"
	MsgFlagOut           = "Directory converted files are written to"
	MsgFlagPrefix        = "Output file name prefix"
	MsgFlagBlocks        = "Frames per output block"
	MsgFlagWatch         = "Keep watching the directory and re-scan on changes"
	MsgFlagDB            = "Inventory database path"
	MsgFlagConfigFormat  = "Config format (toml, yaml)"
	MsgFlagWrite         = "Write the config file instead of printing it"
	MsgFlagPath          = "Path of the config file to write"

	// Debug messages
	MsgDebugProjectRoot = "Debug: Using project root: %s (fallback=%v)\n"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/reconfigure-long.txt
	msgReconfigureLongRaw string
	MsgReconfigureLong    = strings.TrimSpace(msgReconfigureLongRaw)

	//go:embed msgs/reconfigure-example.txt
	msgReconfigureExampleRaw string
	MsgReconfigureExample    = strings.TrimSpace(msgReconfigureExampleRaw)

	//go:embed msgs/inspect-long.txt
	msgInspectLongRaw string
	MsgInspectLong    = strings.TrimSpace(msgInspectLongRaw)

	//go:embed msgs/inspect-example.txt
	msgInspectExampleRaw string
	MsgInspectExample    = strings.TrimSpace(msgInspectExampleRaw)

	//go:embed msgs/formats-long.txt
	msgFormatsLongRaw string
	MsgFormatsLong    = strings.TrimSpace(msgFormatsLongRaw)

	//go:embed msgs/convert-long.txt
	msgConvertLongRaw string
	MsgConvertLong    = strings.TrimSpace(msgConvertLongRaw)

	//go:embed msgs/convert-example.txt
	msgConvertExampleRaw string
	MsgConvertExample    = strings.TrimSpace(msgConvertExampleRaw)

	//go:embed msgs/scan-long.txt
	msgScanLongRaw string
	MsgScanLong    = strings.TrimSpace(msgScanLongRaw)

	//go:embed msgs/scan-example.txt
	msgScanExampleRaw string
	MsgScanExample    = strings.TrimSpace(msgScanExampleRaw)

	//go:embed msgs/genconfig-long.txt
	msgGenConfigLongRaw string
	MsgGenConfigLong    = strings.TrimSpace(msgGenConfigLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)
