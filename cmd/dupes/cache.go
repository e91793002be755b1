package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/jamesainslie/dupes/pkg/dupes/cache"
	"github.com/jamesainslie/dupes/pkg/dupes/config"
	"github.com/jamesainslie/dupes/pkg/dupes/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the hash cache",
	Long: `Commands for managing the persistent hash cache.

The cache stores quick and full fingerprints keyed by path, so repeat scans
only rehash files whose size or modification time changed. Cache data is
stored in the XDG cache directory (typically ~/.cache/dupes/hashes).`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Long:  `Displays the cache location, entry count, and size on disk.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		path := cachePath()

		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Println("Cache: empty (no cache store)")
			fmt.Printf("Cache location: %s\n", path)
			return nil
		}

		c, err := cache.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		entries := c.Len()
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close cache: %w", err)
		}

		size, err := dirSize(path)
		if err != nil {
			return fmt.Errorf("failed to calculate cache size: %w", err)
		}

		fmt.Printf("Cache location: %s\n", path)
		fmt.Printf("Cache entries: %d\n", entries)
		fmt.Printf("Cache size: %s\n", types.FormatSize(size))

		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached fingerprints",
	Long:  `Removes every cached fingerprint. The next scan will rehash all candidate files.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		path := cachePath()

		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Println("Cache is already empty.")
			return nil
		}

		c, err := cache.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer func() { _ = c.Close() }()

		if err := c.Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}

		fmt.Println("Cache cleared.")
		return nil
	},
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show cache location",
	Long:  `Prints the path to the cache store.`,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(cachePath())
	},
}

var cacheWatchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Watch a tree and invalidate changed entries",
	Long: `Watch a directory tree and drop cache entries as files change.

Useful alongside an editor or sync tool: fingerprints for files that are
written, removed, or renamed disappear immediately instead of lingering
until the next scan re-checks them. Runs until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCacheWatch,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePathCmd)
	cacheCmd.AddCommand(cacheWatchCmd)
	rootCmd.AddCommand(cacheCmd)
}

// runCacheWatch runs the invalidation watcher until interrupted.
func runCacheWatch(_ *cobra.Command, args []string) error {
	roots, err := resolveRoots(args)
	if err != nil {
		return err
	}
	root := roots[0]

	c, err := cache.Open(cachePath())
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer func() { _ = c.Close() }()

	w, err := cache.NewWatcher(c)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Watch(root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		cancel()
	}()

	printInfo("Watching %s (Ctrl-C to stop)", root)
	w.Run(ctx, func(path string, op fsnotify.Op) {
		printVerbose("%s: %s", op, path)
	})
	printInfo("Watch stopped.")

	return nil
}

// cachePath resolves the cache store location.
func cachePath() string {
	if p := viper.GetString("cache.path"); p != "" {
		return p
	}
	return config.DefaultCachePath()
}

// dirSize sums the size of all regular files under path.
func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
