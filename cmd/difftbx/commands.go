// Package difftbx assembles the difftbx command line: one constructor per
// subcommand, with the heavy lifting delegated to pkg/commands and friends.
package difftbx

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/difftbx/internal/version"
	"github.com/arthur-debert/difftbx/pkg/cobrax/topics"
	"github.com/arthur-debert/difftbx/pkg/commands/genconfig"
	"github.com/arthur-debert/difftbx/pkg/commands/inspect"
	"github.com/arthur-debert/difftbx/pkg/commands/reconfigure"
	"github.com/arthur-debert/difftbx/pkg/commands/scan"
	"github.com/arthur-debert/difftbx/pkg/config"
	"github.com/arthur-debert/difftbx/pkg/convert"
	"github.com/arthur-debert/difftbx/pkg/format"
	"github.com/arthur-debert/difftbx/pkg/inventory"
	"github.com/arthur-debert/difftbx/pkg/logging"
	"github.com/arthur-debert/difftbx/pkg/paths"
	"github.com/arthur-debert/difftbx/pkg/style"
	"github.com/arthur-debert/difftbx/pkg/xmlout"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	// The usage template relies on these
	initTemplateFormatting()

	var (
		verbosity int
		dryRun    bool
		force     bool
	)

	rootCmd := &cobra.Command{
		Use:     "difftbx",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand given: show help but fail so scripts notice
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, MsgFlagDryRun)
	rootCmd.PersistentFlags().BoolVar(&force, "force", false, MsgFlagForce)

	// Disable automatic help command (the topics system brings its own)
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "COMMANDS:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "misc",
		Title: "MISC:",
	})

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newReconfigureCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newFormatsCmd())
	rootCmd.AddCommand(newConvertCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newGenConfigCmd())
	rootCmd.AddCommand(newTopicsCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	// Initialize topic-based help from files next to the binary, falling
	// back to the source tree during development
	exe, err := os.Executable()
	if err == nil {
		possiblePaths := []string{
			filepath.Join(filepath.Dir(exe), "topics"),
			filepath.Join(filepath.Dir(exe), "..", "..", "cmd", "difftbx", "topics"),
			"cmd/difftbx/topics",
		}

		for _, helpPath := range possiblePaths {
			if _, err := os.Stat(helpPath); err == nil {
				opts := topics.Options{
					Renderer: topics.NewGlamourRenderer(),
				}
				if err := topics.InitializeWithOptions(rootCmd, helpPath, opts); err == nil {
					break
				}
			}
		}
	}

	return rootCmd
}

// initPaths initializes the paths instance
func initPaths() (paths.Paths, error) {
	p, err := paths.New("")
	if err != nil {
		return nil, fmt.Errorf(MsgErrInitPaths, err)
	}

	if os.Getenv("DIFFTBX_DEBUG") != "" {
		fmt.Fprintf(os.Stderr, MsgDebugProjectRoot, p.ProjectRoot(), p.UsedFallback())
	}

	return p, nil
}

// loadConfig reads the layered configuration for the current project
func loadConfig(p paths.Paths) (*config.Config, error) {
	cfg, err := config.Load(p.ConfigDir(), p.ProjectRoot())
	if err != nil {
		return nil, fmt.Errorf(MsgErrLoadConfig, err)
	}
	return cfg, nil
}

// newRenderer picks rich or plain rendering from the color setting and
// whether stdout is a terminal
func newRenderer(cfg *config.Config) style.Renderer {
	color := "auto"
	if cfg != nil {
		color = cfg.Output.Color
	}
	switch color {
	case "always":
		return style.NewTerminalRenderer()
	case "never":
		return style.NewPlainRenderer()
	}
	// Auto mode honors NO_COLOR and CLICOLOR before checking for a TTY
	if termenv.EnvNoColor() {
		return style.NewPlainRenderer()
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return style.NewTerminalRenderer()
	}
	return style.NewPlainRenderer()
}

func newReconfigureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reconfigure [name@version...]",
		Short:   MsgReconfigureShort,
		Long:    MsgReconfigureLong,
		Example: MsgReconfigureExample,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := initPaths()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(p)
			if err != nil {
				return err
			}

			dryRun, _ := cmd.Root().PersistentFlags().GetBool("dry-run")
			force, _ := cmd.Root().PersistentFlags().GetBool("force")
			buildDir, _ := cmd.Flags().GetString("build-dir")
			siteDir, _ := cmd.Flags().GetString("site-dir")
			if buildDir == "" {
				buildDir = p.BuildDir()
			}

			log.Info().
				Str("build_dir", buildDir).
				Bool("dry_run", dryRun).
				Msg("Reconfiguring package metadata")

			result, err := reconfigure.Reconfigure(cmd.Context(), cfg, reconfigure.Options{
				BuildDir: buildDir,
				SiteDir:  siteDir,
				Specs:    args,
				DryRun:   dryRun,
				Force:    force,
			})

			// Failed executions still carry the planned operations, and
			// showing them beats a bare error
			if result != nil {
				renderer := newRenderer(cfg)
				fmt.Println(renderer.RenderModeBanner(result.Mode, result.Source))
				if dryRun {
					fmt.Println(MsgDryRunNotice)
				}
				fmt.Println(renderer.RenderOperations(result.Ops))
			}
			if err != nil {
				return fmt.Errorf(MsgErrReconfigure, err)
			}
			return nil
		},
	}

	cmd.Flags().String("build-dir", "", MsgFlagBuildDir)
	cmd.Flags().String("site-dir", "", MsgFlagSiteDir)

	return cmd
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inspect <image>",
		Short:   MsgInspectShort,
		Long:    MsgInspectLong,
		Example: MsgInspectExample,
		Args:    cobra.ExactArgs(1),
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")

			result, err := inspect.Inspect(args[0])
			if err != nil {
				return fmt.Errorf(MsgErrInspect, err)
			}

			text, err := result.Marshal(output)
			if err != nil {
				return err
			}
			if output == "" || output == inspect.OutputText {
				text = style.Render(text)
			}
			fmt.Println(text)
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", inspect.OutputText, MsgFlagOutput)

	return cmd
}

func newFormatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "formats",
		Short:   MsgFormatsShort,
		Long:    MsgFormatsLong,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := format.List()
			// Most specific first; List is already name-sorted, which
			// stays as the tie-break
			sort.SliceStable(entries, func(i, j int) bool {
				return entries[i].Level > entries[j].Level
			})

			output, _ := cmd.Flags().GetString("output")
			if output == "xml" {
				text, err := xmlout.Render(xmlout.Formats(entries))
				if err != nil {
					return err
				}
				fmt.Println(text)
				return nil
			}

			p, err := initPaths()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(p)
			if err != nil {
				return err
			}
			fmt.Println(newRenderer(cfg).RenderFormats(entries))
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "text", MsgFlagFormatsOutput)

	return cmd
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "convert <image>...",
		Short:   MsgConvertShort,
		Long:    MsgConvertLong,
		Example: MsgConvertExample,
		Args:    cobra.MinimumNArgs(1),
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := initPaths()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(p)
			if err != nil {
				return err
			}

			dryRun, _ := cmd.Root().PersistentFlags().GetBool("dry-run")
			outDir, _ := cmd.Flags().GetString("out")
			prefix, _ := cmd.Flags().GetString("prefix")
			blocks, _ := cmd.Flags().GetInt("blocks")

			src, err := convert.NewFileSource(args)
			if err != nil {
				return fmt.Errorf(MsgErrConvert, err)
			}

			blockSize := cfg.Convert.BlockSize
			if blocks > 0 {
				blockSize = blocks
			}

			log.Info().
				Int("frames", src.NumFrames()).
				Str("out", outDir).
				Bool("dry_run", dryRun).
				Msg("Converting to miniCBF")

			renderer := newRenderer(cfg)
			progress := func(done, total int) {
				fmt.Printf("\r%s", renderer.RenderProgress(done, total, MsgConvertProgress))
			}

			result, err := convert.Convert(cmd.Context(), src, convert.Options{
				OutDir:           outDir,
				Prefix:           prefix,
				DetectorName:     cfg.Convert.DetectorName,
				SensorThicknessM: cfg.Convert.SensorThicknessM,
				PixelSizeM:       cfg.Convert.PixelSizeM,
				BlockSize:        blockSize,
				DryRun:           dryRun,
				Progress:         progress,
			})
			if err != nil {
				fmt.Println()
				return fmt.Errorf(MsgErrConvert, err)
			}
			fmt.Println()

			if result.DryRun {
				fmt.Println(MsgDryRunNotice)
				fmt.Printf(MsgConvertPlanned, len(result.Files))
			} else {
				fmt.Printf(MsgConvertDone, len(result.Files))
			}
			return nil
		},
	}

	cmd.Flags().String("out", "", MsgFlagOut)
	cmd.Flags().String("prefix", "", MsgFlagPrefix)
	cmd.Flags().Int("blocks", 0, MsgFlagBlocks)

	return cmd
}

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "scan <dir>",
		Short:   MsgScanShort,
		Long:    MsgScanLong,
		Example: MsgScanExample,
		Args:    cobra.ExactArgs(1),
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := initPaths()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(p)
			if err != nil {
				return err
			}

			watch, _ := cmd.Flags().GetBool("watch")
			dbPath, _ := cmd.Flags().GetString("db")
			if dbPath == "" {
				dbPath = p.InventoryDBPath()
			}

			db, err := inventory.Open(dbPath)
			if err != nil {
				return fmt.Errorf(MsgErrInventory, err)
			}
			defer func() { _ = db.Close() }()

			opts := scan.Options{
				Dir:            args[0],
				Ignore:         cfg.Scan.Ignore,
				FollowSymlinks: cfg.Scan.FollowSymlinks,
			}

			renderer := newRenderer(cfg)
			show := func(result *scan.Result) {
				fmt.Println(renderer.RenderInventory(result.Files))
				fmt.Printf(MsgScanSummary,
					result.Matched, result.Scanned, result.Unknown, result.Skipped)
			}

			if watch {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				fmt.Printf(MsgWatchNotice, args[0])
				return scan.Watch(ctx, db, opts, show)
			}

			result, err := scan.Scan(cmd.Context(), db, opts)
			if err != nil {
				return fmt.Errorf(MsgErrScan, err)
			}
			show(result)
			return nil
		},
	}

	cmd.Flags().Bool("watch", false, MsgFlagWatch)
	cmd.Flags().String("db", "", MsgFlagDB)

	return cmd
}

func newGenConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "genconfig",
		Short:   MsgGenConfigShort,
		Long:    MsgGenConfigLong,
		GroupID: "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatName, _ := cmd.Flags().GetString("format")
			write, _ := cmd.Flags().GetBool("write")
			path, _ := cmd.Flags().GetString("path")

			result, err := genconfig.GenConfig(genconfig.Options{
				Format: formatName,
				Write:  write,
				Path:   path,
			})
			if err != nil {
				return fmt.Errorf(MsgErrGenConfig, err)
			}

			if !write {
				fmt.Println(result.ConfigContent)
				return nil
			}
			if len(result.FilesWritten) == 0 {
				fmt.Println(MsgConfigExists)
				return nil
			}
			for _, file := range result.FilesWritten {
				fmt.Printf(MsgConfigWritten, file)
			}
			return nil
		},
	}

	cmd.Flags().String("format", genconfig.FormatTOML, MsgFlagConfigFormat)
	cmd.Flags().Bool("write", false, MsgFlagWrite)
	cmd.Flags().String("path", "", MsgFlagPath)

	return cmd
}

func newTopicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "topics",
		Short:   MsgTopicsShort,
		Long:    MsgTopicsLong,
		GroupID: "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Find the help command and execute it with "topics" argument
			if helpCmd, _, err := cmd.Root().Find([]string{"help"}); err == nil {
				if helpCmd.RunE != nil {
					return helpCmd.RunE(helpCmd, []string{"topics"})
				} else if helpCmd.Run != nil {
					helpCmd.Run(helpCmd, []string{"topics"})
					return nil
				}
			}
			return fmt.Errorf("help command not found")
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf(MsgVersionFormat, version.Version, version.Commit, version.Date)
			return nil
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		GroupID:               "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}
