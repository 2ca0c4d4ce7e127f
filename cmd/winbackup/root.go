package main

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/arthur-debert/winbackup/internal/version"
	"github.com/arthur-debert/winbackup/pkg/config"
	"github.com/arthur-debert/winbackup/pkg/elevation"
	"github.com/arthur-debert/winbackup/pkg/filesystem"
	"github.com/arthur-debert/winbackup/pkg/inventory"
	"github.com/arthur-debert/winbackup/pkg/logging"
	"github.com/arthur-debert/winbackup/pkg/pkgmgr"
	"github.com/arthur-debert/winbackup/pkg/session"
	"github.com/arthur-debert/winbackup/pkg/tree"
	"github.com/arthur-debert/winbackup/pkg/ui/report"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// newRootCmd creates the root command. Running it without a subcommand
// performs a backup.
func newRootCmd(a *app) *cobra.Command {
	var (
		baseDir      string
		profilesRoot string
		noElevate    bool
	)

	rootCmd := &cobra.Command{
		Use:     "winbackup",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.SetupLogger(a.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
			return a.resolveFormat()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("base-dir") {
				cfg.Backup.BaseDir = baseDir
				cfg.Backup.PromptBaseDir = false
			}
			if cmd.Flags().Changed("profiles-root") {
				cfg.Backup.ProfilesRoot = profilesRoot
			}
			a.pauseOnExit = cfg.Backup.Pause

			if !noElevate && runtime.GOOS == "windows" {
				if err := elevation.Require(true); err != nil {
					if elevation.Relaunched(err) {
						a.pauseOnExit = false
						_, _ = fmt.Fprintln(a.out, MsgRelaunched)
						return nil
					}
					return err
				}
			}
			return runBackup(cmd, a, cfg)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.SetIn(a.in)
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errOut)

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().BoolVar(&a.dryRun, "dry-run", false, MsgFlagDryRun)
	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", MsgFlagConfig)
	rootCmd.PersistentFlags().StringVar(&a.format, "format", "auto", MsgFlagFormat)

	// Backup flags
	rootCmd.Flags().StringVar(&baseDir, "base-dir", "", MsgFlagBaseDir)
	rootCmd.Flags().StringVar(&profilesRoot, "profiles-root", "", MsgFlagProfilesRoot)
	rootCmd.Flags().BoolVar(&noElevate, "no-elevate", false, MsgFlagNoElevate)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newPreviewCmd())
	rootCmd.AddCommand(newSoftwareCmd(a))
	rootCmd.AddCommand(newPackagesCmd(a))
	rootCmd.AddCommand(newManifestCmd(a))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func runBackup(cmd *cobra.Command, a *app, cfg *config.Config) error {
	roots, err := cfg.Inventory.CatalogRoots()
	if err != nil {
		return err
	}
	con := a.getConsole()

	deps := session.Deps{
		FS:       filesystem.NewOS(),
		Chooser:  con,
		Decider:  con,
		Software: inventory.NewCollector(inventory.NewRegistryCatalog()),
	}
	if cfg.Backup.PromptBaseDir {
		deps.BaseDir = con
	}
	if cfg.Backup.Pause {
		deps.Pauser = con
	}
	if cfg.Packages.Enabled {
		deps.Packages = newProbe(cfg)
	}

	s := session.New(session.Options{
		BaseDir:         cfg.Backup.BaseDir,
		ProfilesRoot:    cfg.Backup.ProfilesRoot,
		ExcludeProfiles: cfg.Backup.ExcludeProfiles,
		MandatoryDirs:   cfg.Selection.MandatoryDirs,
		PreviewDepth:    cfg.Selection.PreviewDepth,
		CatalogRoots:    roots,
		SoftwareFile:    cfg.Output.SoftwareFile,
		PackagesFile:    cfg.Output.PackagesFile,
		ManifestFile:    cfg.Output.ManifestFile,
		DryRun:          a.dryRun,
	}, deps)

	rep, err := s.Run(cmd.Context())
	if err != nil {
		return err
	}

	_, _ = fmt.Fprint(a.out, report.Render(report.Markdown(rep), a.styled))
	if cfg.Backup.Pause {
		con.Pause(MsgCompletePause + " " + MsgExitPause)
	}
	return nil
}

func newProbe(cfg *config.Config) *pkgmgr.Probe {
	return pkgmgr.NewProbe(pkgmgr.NewExecRunner(cfg.Packages.Timeout), pkgmgr.Options{
		Command:     cfg.Packages.Command,
		VersionArgs: cfg.Packages.VersionArgs,
		ListArgs:    cfg.Packages.ListArgs,
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "winbackup version %s\n", version.Version)
			_, _ = fmt.Fprintf(out, "  commit: %s\n", version.Commit)
			_, _ = fmt.Fprintf(out, "  built:  %s\n", version.Date)
		},
	}
}

func newPreviewCmd() *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "preview <dir>",
		Short: MsgPreviewShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys := filesystem.NewOS()
			if !filesystem.IsDir(fsys, args[0]) {
				return fmt.Errorf("not a directory: %s", args[0])
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), tree.NewRenderer(fsys).Render(args[0], depth))
			return nil
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 1, MsgFlagDepth)
	return cmd
}

func newSoftwareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "software",
		Short: MsgSoftwareShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			roots, err := cfg.Inventory.CatalogRoots()
			if err != nil {
				return err
			}
			result := inventory.NewCollector(inventory.NewRegistryCatalog()).Collect(roots)
			for _, name := range result.Names {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			if result.Unreadable > 0 {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), MsgUnreadableCount+"\n", result.Unreadable)
			}
			return nil
		},
	}
}

func newPackagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "packages",
		Short: MsgPackagesShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			result, err := newProbe(cfg).Probe(cmd.Context())
			if err != nil {
				return err
			}
			if !result.Present {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), MsgNotInstalled+"\n", cfg.Packages.Command)
				return nil
			}
			for _, name := range result.Packages {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newManifestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "manifest <backup-dir>",
		Short: MsgManifestShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			fsys := filesystem.NewOS()
			path := args[0]
			if filesystem.IsDir(fsys, path) {
				path = filepath.Join(path, cfg.Output.ManifestFile)
			}
			m, err := session.ReadManifest(fsys, path)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), report.Render(report.ManifestMarkdown(m), a.styled))
			return nil
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 "Generate shell completion script",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
		},
	}
}
