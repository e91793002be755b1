package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jamesainslie/dupes/pkg/dupes/config"
	"github.com/jamesainslie/dupes/pkg/dupes/logging"
	"github.com/jamesainslie/dupes/pkg/dupes/types"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "dupes [paths...]",
		Short: "Find and remove duplicate files",
		Long: `Dupes finds files with identical content and helps you remove them safely.

Scanning runs three passes (size, quick probe, full fingerprint), so most
files are never read in full. Confirmed groups are reported with a keeper
marked per the configured strategy; the clean subcommand acts on the rest:
recycle, move, delete, or replace with links. Every action is written to an
audit journal before dupes reports success.

Examples:
  dupes ~/Pictures                  # Find duplicates under a directory
  dupes -a sha256 ~/docs ~/mail     # Scan two trees with SHA-256
  dupes -o json . > report.json     # Machine-readable report
  dupes -o null . | xargs -0 ls -l  # Doomed paths for shell pipelines
  dupes clean --mode recycle ~/Downloads
  dupes clean --mode move --dest /spare --yes ~/photos
  dupes history                     # Review past clean batches
  dupes config show                 # Show configuration`,
		Args: cobra.ArbitraryArgs,
		RunE: runScan,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if viper.GetBool("no_color") {
				lipgloss.SetColorProfile(termenv.Ascii)
			}
			if err := initLogging(); err != nil {
				printVerbose("File logging disabled: %v", err)
			}
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/dupes/config.yaml)")
	rootCmd.PersistentFlags().StringP("min-size", "s", "", "minimum file size to consider (e.g., 1K, 100M)")
	rootCmd.PersistentFlags().String("max-size", "", "maximum file size to consider (e.g., 4G)")
	rootCmd.PersistentFlags().StringP("algorithm", "a", "", "full fingerprint algorithm (blake3, sha256, sha1, md5, xxh64)")
	rootCmd.PersistentFlags().IntP("workers", "w", 0, "override hash worker count (0=auto)")
	rootCmd.PersistentFlags().StringSliceP("exclude", "e", nil, "exclude glob patterns (can be specified multiple times)")
	rootCmd.PersistentFlags().StringSlice("include", nil, "include glob patterns (files must match at least one)")
	rootCmd.PersistentFlags().StringSlice("ext", nil, "file extensions to include (e.g., jpg,png)")
	rootCmd.PersistentFlags().String("type", "", "file type groups to include (video, audio, image, document, archive)")
	rootCmd.PersistentFlags().BoolP("follow-symlinks", "L", false, "follow symbolic links to directories")
	rootCmd.PersistentFlags().BoolP("one-filesystem", "x", false, "stay on the filesystem of each scan root")
	rootCmd.PersistentFlags().Bool("verify", false, "byte-compare group members before reporting them")
	rootCmd.PersistentFlags().Bool("no-cache", false, "bypass the hash cache, recompute all fingerprints")
	rootCmd.PersistentFlags().String("strategy", "", "keeper selection strategy (oldest, newest, shortest-path, alphabetical, folder-priority)")
	rootCmd.PersistentFlags().StringSlice("priority-folder", nil, "preferred keeper folders for the folder-priority strategy, in order")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format (pretty, plain, json, jsonl, yaml, paths, null, tsv, csv, markdown, template)")
	rootCmd.PersistentFlags().String("template", "", "Go template for -o template")
	rootCmd.PersistentFlags().Bool("no-progress", false, "disable the progress bar")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().String("log-level", "", "file log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	// Bind flags to viper. Config-backed flags bind to the nested keys
	// the config file uses, so file, environment, and flag values merge.
	_ = viper.BindPFlag("scan.min_size", rootCmd.PersistentFlags().Lookup("min-size"))
	_ = viper.BindPFlag("scan.max_size", rootCmd.PersistentFlags().Lookup("max-size"))
	_ = viper.BindPFlag("hash.algorithm", rootCmd.PersistentFlags().Lookup("algorithm"))
	_ = viper.BindPFlag("hash.workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("scan.exclude", rootCmd.PersistentFlags().Lookup("exclude"))
	_ = viper.BindPFlag("scan.include", rootCmd.PersistentFlags().Lookup("include"))
	_ = viper.BindPFlag("scan.extensions", rootCmd.PersistentFlags().Lookup("ext"))
	_ = viper.BindPFlag("type", rootCmd.PersistentFlags().Lookup("type"))
	_ = viper.BindPFlag("scan.follow_symlinks", rootCmd.PersistentFlags().Lookup("follow-symlinks"))
	_ = viper.BindPFlag("scan.one_filesystem", rootCmd.PersistentFlags().Lookup("one-filesystem"))
	_ = viper.BindPFlag("hash.verify", rootCmd.PersistentFlags().Lookup("verify"))
	_ = viper.BindPFlag("no_cache", rootCmd.PersistentFlags().Lookup("no-cache"))
	_ = viper.BindPFlag("select.strategy", rootCmd.PersistentFlags().Lookup("strategy"))
	_ = viper.BindPFlag("select.priority_folders", rootCmd.PersistentFlags().Lookup("priority-folder"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("template", rootCmd.PersistentFlags().Lookup("template"))
	_ = viper.BindPFlag("no_progress", rootCmd.PersistentFlags().Lookup("no-progress"))
	_ = viper.BindPFlag("no_color", rootCmd.PersistentFlags().Lookup("no-color"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Set config name and type
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		// Add config paths in order of precedence
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "dupes"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "dupes"))
		}
	}

	// Set environment variable prefix and enable auto env binding
	viper.SetEnvPrefix("DUPES")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Set defaults from config package
	viper.SetDefault("scan.min_size", config.DefaultMinSize)
	viper.SetDefault("scan.max_size", "")
	viper.SetDefault("scan.include", []string{})
	viper.SetDefault("scan.exclude", config.DefaultExclusions)
	viper.SetDefault("scan.extensions", []string{})
	viper.SetDefault("scan.follow_symlinks", false)
	viper.SetDefault("scan.one_filesystem", false)
	viper.SetDefault("hash.algorithm", config.DefaultAlgorithm)
	viper.SetDefault("hash.workers", 0)
	viper.SetDefault("hash.verify", false)
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.path", "")
	viper.SetDefault("cache.max_entries", config.DefaultCacheMaxEntries)
	viper.SetDefault("select.strategy", config.DefaultStrategy)
	viper.SetDefault("select.priority_folders", []string{})
	viper.SetDefault("action.mode", config.DefaultActionMode)
	viper.SetDefault("action.dest", "")
	viper.SetDefault("action.dry_run", false)
	viper.SetDefault("audit.path", "")
	viper.SetDefault("audit.retention_days", config.DefaultRetentionDays)
	viper.SetDefault("output", config.DefaultOutputFormat)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.console_level", "warn")
	viper.SetDefault("logging.path", "")
	viper.SetDefault("logging.rotation.max_size", "10MB")
	viper.SetDefault("logging.rotation.max_age", 30)
	viper.SetDefault("logging.rotation.max_backups", 5)
	viper.SetDefault("logging.rotation.daily", true)
	viper.SetDefault("logging.components", map[string]string{
		"scanner": "info",
		"hasher":  "info",
		"cache":   "warn",
		"action":  "info",
		"watch":   "warn",
	})

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()
}

// initLogging configures file logging from the resolved settings.
// On failure the package loggers keep writing to io.Discard, so commands
// run fine without a log file.
func initLogging() error {
	maxSize, err := types.ParseSize(viper.GetString("logging.rotation.max_size"))
	if err != nil {
		maxSize = 0
	}

	consoleLevel := viper.GetString("logging.console_level")
	if getVerbose() {
		consoleLevel = "debug"
	}
	if getQuiet() {
		consoleLevel = ""
	}

	return logging.Init(logging.Config{
		Level: viper.GetString("logging.level"),
		Path:  viper.GetString("logging.path"),
		Rotation: logging.RotationConfig{
			MaxSize:    maxSize,
			MaxAge:     viper.GetInt("logging.rotation.max_age"),
			MaxBackups: viper.GetInt("logging.rotation.max_backups"),
			Daily:      viper.GetBool("logging.rotation.daily"),
		},
		Components:   viper.GetStringMapString("logging.components"),
		ConsoleLevel: consoleLevel,
	})
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logging.Close() }()
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
