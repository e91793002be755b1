package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level        string            `mapstructure:"level"`
	ConsoleLevel string            `mapstructure:"console_level"`
	Path         string            `mapstructure:"path"`
	Rotation     RotationConfig    `mapstructure:"rotation"`
	Components   map[string]string `mapstructure:"components"`
}

// ScanConfig configures which files enter duplicate detection.
type ScanConfig struct {
	MinSize        string   `mapstructure:"min_size"`
	MaxSize        string   `mapstructure:"max_size"`
	Include        []string `mapstructure:"include"`
	Exclude        []string `mapstructure:"exclude"`
	Extensions     []string `mapstructure:"extensions"`
	FollowSymlinks bool     `mapstructure:"follow_symlinks"`
	OneFilesystem  bool     `mapstructure:"one_filesystem"`
}

// HashConfig configures fingerprint computation.
type HashConfig struct {
	Algorithm string `mapstructure:"algorithm"`
	Workers   int    `mapstructure:"workers"`
	Verify    bool   `mapstructure:"verify"`
}

// CacheConfig configures the persistent hash cache.
type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxEntries int    `mapstructure:"max_entries"`
}

// SelectConfig configures which group member survives a clean.
type SelectConfig struct {
	Strategy        string   `mapstructure:"strategy"`
	PriorityFolders []string `mapstructure:"priority_folders"`
}

// ActionConfig configures what happens to duplicates.
type ActionConfig struct {
	Mode   string `mapstructure:"mode"`
	Dest   string `mapstructure:"dest"`
	DryRun bool   `mapstructure:"dry_run"`
}

// AuditConfig configures the action audit log.
type AuditConfig struct {
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Config represents the application configuration.
type Config struct {
	Scan    ScanConfig    `mapstructure:"scan"`
	Hash    HashConfig    `mapstructure:"hash"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Select  SelectConfig  `mapstructure:"select"`
	Action  ActionConfig  `mapstructure:"action"`
	Audit   AuditConfig   `mapstructure:"audit"`
	Output  string        `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/dupes/config.yaml
//   - $HOME/.config/dupes/config.yaml
//
// Environment variables are prefixed with DUPES_ (e.g., DUPES_HASH_ALGORITHM).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "dupes"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "dupes"))

	v.SetEnvPrefix("DUPES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Scan defaults
	v.SetDefault("scan.min_size", DefaultMinSize)
	v.SetDefault("scan.max_size", "")
	v.SetDefault("scan.include", []string{})
	v.SetDefault("scan.exclude", DefaultExclusions)
	v.SetDefault("scan.extensions", []string{})
	v.SetDefault("scan.follow_symlinks", false)
	v.SetDefault("scan.one_filesystem", false)

	// Hash defaults
	v.SetDefault("hash.algorithm", DefaultAlgorithm)
	v.SetDefault("hash.workers", 0) // 0 means autodetect
	v.SetDefault("hash.verify", false)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", "") // Empty means use DefaultCachePath
	v.SetDefault("cache.max_entries", DefaultCacheMaxEntries)

	// Selection defaults
	v.SetDefault("select.strategy", DefaultStrategy)
	v.SetDefault("select.priority_folders", []string{})

	// Action defaults
	v.SetDefault("action.mode", DefaultActionMode)
	v.SetDefault("action.dest", "")
	v.SetDefault("action.dry_run", false)

	// Audit defaults
	v.SetDefault("audit.path", "") // Empty means use DefaultAuditPath
	v.SetDefault("audit.retention_days", DefaultRetentionDays)

	// Output default
	v.SetDefault("output", DefaultOutputFormat)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console_level", "warn")
	v.SetDefault("logging.path", "") // Empty means use DefaultLogPath
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{
		"scanner": "info",
		"hasher":  "info",
		"cache":   "warn",
		"action":  "info",
		"watch":   "warn",
	})

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is acceptable; we use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand ~ in user-supplied paths
	for _, p := range []*string{&cfg.Cache.Path, &cfg.Audit.Path, &cfg.Action.Dest, &cfg.Logging.Path} {
		if strings.HasPrefix(*p, "~") {
			*p = filepath.Join(homeDir, (*p)[1:])
		}
	}

	return &cfg, nil
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "dupes"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "dupes"), nil
}

// ConfigPath returns the config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// WriteDefault writes a default config file if none exists.
// Returns nil if a config file already exists.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	// Check if config file already exists
	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# Dupes Duplicate Finder Configuration

# Which files enter duplicate detection
scan:
  # Minimum file size to consider (zero-byte files are skipped by default)
  min_size: %s
  # Maximum file size to consider (empty means no limit)
  max_size: ""
  # Glob patterns a path must match to be considered (empty means all)
  include: []
  # Paths and glob patterns to skip
  exclude:
    - /proc
    - /sys
    - /dev
  # Restrict to these extensions (empty means all), e.g. [".jpg", ".png"]
  extensions: []
  # Follow symbolic links while walking (off by default; link targets
  # reached through multiple paths would otherwise count as duplicates)
  follow_symlinks: false
  # Stay on the filesystem of each scan root
  one_filesystem: false

# Fingerprint computation
hash:
  # Full-content algorithm: blake3, sha256, sha1, md5, xxh64
  algorithm: %s
  # Parallel hash workers (0 means autodetect from CPU and memory)
  workers: 0
  # Byte-compare confirmed groups for certainty beyond hash equality
  verify: false

# Persistent fingerprint cache
cache:
  enabled: true
  # Cache location (empty means $XDG_CACHE_HOME/dupes/hashes)
  path: ""
  # Entries kept before least-recently-used eviction
  max_entries: %d

# Which copy survives a clean
select:
  # Strategy: oldest, newest, shortest-path, alphabetical, folder-priority, custom
  strategy: %s
  # Folders whose copies win under folder-priority, most preferred first
  priority_folders: []

# What happens to the other copies
action:
  # Mode: recycle, move, delete, hardlink, symlink
  mode: %s
  # Destination folder for move mode
  dest: ""
  # Plan and audit without touching files
  dry_run: false

# Action audit trail
audit:
  # Audit log location (empty means $XDG_STATE_HOME/dupes/audit.log)
  path: ""
  # Days of audit batches kept by 'dupes history clean'
  retention_days: %d

# Report format: pretty, plain, json, jsonl, yaml, paths, null, tsv, csv, markdown, template
output: %s

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Console output level (stderr)
  console_level: warn
  # Log file path (empty means use default: $XDG_STATE_HOME/dupes/dupes.log)
  path: ""
  # Log rotation settings
  rotation:
    max_size: 10MB
    max_age: 30       # days
    max_backups: 5
    daily: true
  # Per-component log levels
  components:
    scanner: info
    hasher: info
    cache: warn
    action: info
    watch: warn
`, DefaultMinSize, DefaultAlgorithm, DefaultCacheMaxEntries, DefaultStrategy,
		DefaultActionMode, DefaultRetentionDays, DefaultOutputFormat)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/dupes/.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "dupes")
}

// StateDir returns $XDG_STATE_HOME/dupes/ for log and audit files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "dupes")
}

// CacheDir returns $XDG_CACHE_HOME/dupes/ for the hash cache.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "dupes")
}

// DefaultCachePath returns the default hash cache location.
func DefaultCachePath() string {
	return filepath.Join(CacheDir(), "hashes")
}

// DefaultAuditPath returns the default audit log location.
func DefaultAuditPath() string {
	return filepath.Join(StateDir(), "audit.log")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "dupes.log")
}

// EnsureStateDir creates the state directory if it doesn't exist.
func EnsureStateDir() error {
	if err := os.MkdirAll(StateDir(), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return nil
}

// EnsureCacheDir creates the cache directory if it doesn't exist.
func EnsureCacheDir() error {
	if err := os.MkdirAll(CacheDir(), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	return nil
}
