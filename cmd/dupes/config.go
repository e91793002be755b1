package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/jamesainslie/dupes/pkg/dupes/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage dupes configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/dupes/config.yaml (if set)
  2. ~/.config/dupes/config.yaml

Environment variables can override config file settings using the DUPES_ prefix:
  DUPES_HASH_ALGORITHM=sha256
  DUPES_SCAN_MIN_SIZE=1M
  DUPES_SELECT_STRATEGY=newest`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		printError("Failed to load configuration: %v", err)
		cfg = &config.Config{}
		cfg.Scan.MinSize = config.DefaultMinSize
		cfg.Scan.Exclude = config.DefaultExclusions
		cfg.Hash.Algorithm = config.DefaultAlgorithm
		cfg.Cache.Enabled = true
		cfg.Cache.MaxEntries = config.DefaultCacheMaxEntries
		cfg.Select.Strategy = config.DefaultStrategy
		cfg.Action.Mode = config.DefaultActionMode
		cfg.Audit.RetentionDays = config.DefaultRetentionDays
		cfg.Output = config.DefaultOutputFormat
	}

	// Show config file being used
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Printf("Config file: %s\n\n", configFile)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	cachePath := cfg.Cache.Path
	if cachePath == "" {
		cachePath = config.DefaultCachePath()
	}
	auditPath := cfg.Audit.Path
	if auditPath == "" {
		auditPath = config.DefaultAuditPath()
	}

	// Display configuration
	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("scan.min_size:           %s\n", cfg.Scan.MinSize)
	fmt.Printf("scan.max_size:           %s\n", orNone(cfg.Scan.MaxSize))
	fmt.Printf("scan.include:            %v\n", cfg.Scan.Include)
	fmt.Printf("scan.exclude:            %v\n", cfg.Scan.Exclude)
	fmt.Printf("scan.extensions:         %v\n", cfg.Scan.Extensions)
	fmt.Printf("scan.follow_symlinks:    %t\n", cfg.Scan.FollowSymlinks)
	fmt.Printf("scan.one_filesystem:     %t\n", cfg.Scan.OneFilesystem)
	fmt.Printf("hash.algorithm:          %s\n", cfg.Hash.Algorithm)
	fmt.Printf("hash.workers:            %d (0=auto)\n", cfg.Hash.Workers)
	fmt.Printf("hash.verify:             %t\n", cfg.Hash.Verify)
	fmt.Printf("cache.enabled:           %t\n", cfg.Cache.Enabled)
	fmt.Printf("cache.path:              %s\n", cachePath)
	fmt.Printf("cache.max_entries:       %d\n", cfg.Cache.MaxEntries)
	fmt.Printf("select.strategy:         %s\n", cfg.Select.Strategy)
	fmt.Printf("select.priority_folders: %v\n", cfg.Select.PriorityFolders)
	fmt.Printf("action.mode:             %s\n", cfg.Action.Mode)
	fmt.Printf("action.dest:             %s\n", orNone(cfg.Action.Dest))
	fmt.Printf("action.dry_run:          %t\n", cfg.Action.DryRun)
	fmt.Printf("audit.path:              %s\n", auditPath)
	fmt.Printf("audit.retention_days:    %d\n", cfg.Audit.RetentionDays)
	fmt.Printf("output:                  %s\n", cfg.Output)

	// Show any environment overrides
	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	envVars := []string{
		"DUPES_SCAN_MIN_SIZE",
		"DUPES_SCAN_MAX_SIZE",
		"DUPES_SCAN_EXCLUDE",
		"DUPES_HASH_ALGORITHM",
		"DUPES_HASH_WORKERS",
		"DUPES_HASH_VERIFY",
		"DUPES_CACHE_ENABLED",
		"DUPES_CACHE_PATH",
		"DUPES_CACHE_MAX_ENTRIES",
		"DUPES_SELECT_STRATEGY",
		"DUPES_ACTION_MODE",
		"DUPES_ACTION_DEST",
		"DUPES_AUDIT_PATH",
		"DUPES_AUDIT_RETENTION_DAYS",
		"DUPES_OUTPUT",
	}

	anyOverrides := false
	for _, name := range envVars {
		if val := os.Getenv(name); val != "" {
			fmt.Printf("%s=%s\n", name, val)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Println("(none)")
	}

	return nil
}

// orNone substitutes a placeholder for empty settings.
func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(_ *cobra.Command, _ []string) error {
	// Ensure config file exists
	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	// Determine editor
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}

	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'dupes config edit' to modify it.")
		return nil
	}

	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	fmt.Println(configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}

	return nil
}
