package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/jamesainslie/dupes/pkg/dupes/cache"
	"github.com/jamesainslie/dupes/pkg/dupes/config"
	"github.com/jamesainslie/dupes/pkg/dupes/groups"
	"github.com/jamesainslie/dupes/pkg/dupes/output"
	"github.com/jamesainslie/dupes/pkg/dupes/scanner"
	"github.com/jamesainslie/dupes/pkg/dupes/tuner"
	"github.com/jamesainslie/dupes/pkg/dupes/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var scanCmd = &cobra.Command{
	Use:   "scan [paths...]",
	Short: "Scan for duplicate files",
	Long: `Scan directories for files with identical content.

This is the default command: 'dupes [paths...]' and 'dupes scan [paths...]'
behave the same. With no paths, the current directory is scanned.`,
	Args: cobra.ArbitraryArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

// runScan is the root and scan command handler.
func runScan(_ *cobra.Command, args []string) error {
	roots, err := resolveRoots(args)
	if err != nil {
		return err
	}

	formatter, err := resolveFormatter()
	if err != nil {
		return err
	}

	res, interrupted, err := scanForDuplicates(roots)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			printInfo("Scan cancelled")
			return nil
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	result := convertToOutputResult(res, roots, interrupted)

	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Print(buf.String())

	return nil
}

// resolveRoots validates the scan roots and absolutizes them.
// No arguments means the current directory.
func resolveRoots(args []string) ([]string, error) {
	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	roots := make([]string, 0, len(paths))
	for _, p := range paths {
		expanded, err := config.ExpandPath(p)
		if err != nil {
			return nil, fmt.Errorf("failed to expand path: %w", err)
		}

		abs, err := filepath.Abs(expanded)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path: %w", err)
		}

		info, err := os.Stat(abs)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("path does not exist: %s", abs)
			}
			return nil, fmt.Errorf("cannot access path: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("path is not a directory: %s", abs)
		}

		roots = append(roots, abs)
	}

	return roots, nil
}

// buildScanner assembles a scanner and its hash cache from the resolved
// configuration. The returned cache is nil when caching is disabled or
// unavailable; otherwise the caller owns closing it.
func buildScanner(roots []string, progress func(types.ScanProgress)) (*scanner.Scanner, *cache.Cache, error) {
	f, err := buildFilter()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build filter: %w", err)
	}

	alg, err := types.ParseAlgorithm(viper.GetString("hash.algorithm"))
	if err != nil {
		return nil, nil, err
	}

	// Detect system resources
	resources, err := tuner.Detect()
	if err != nil {
		printVerbose("Failed to detect system resources, using defaults: %v", err)
		// Use conservative defaults
		resources = tuner.SystemResources{
			CPUCores:     4,
			TotalRAM:     8 * types.GiB,
			AvailableRAM: 4 * types.GiB,
		}
	}
	tuning := tuner.CalculateWithOverrides(resources, viper.GetInt("hash.workers"))

	printVerbose("System: %d CPUs, %s RAM, %s available",
		resources.CPUCores,
		types.FormatSize(resources.TotalRAM),
		types.FormatSize(resources.AvailableRAM))
	printVerbose("Config: %s fingerprints, %d hash workers", alg, tuning.HashWorkers)

	opts := []scanner.Option{
		scanner.WithFilter(f),
		scanner.WithAlgorithm(alg),
		scanner.WithWorkers(tuning.HashWorkers),
		scanner.WithFollowSymlinks(viper.GetBool("scan.follow_symlinks")),
		scanner.WithOneFilesystem(viper.GetBool("scan.one_filesystem")),
		scanner.WithVerify(viper.GetBool("hash.verify")),
	}
	if progress != nil {
		opts = append(opts, scanner.WithProgress(progress))
	}

	var c *cache.Cache
	if viper.GetBool("cache.enabled") && !viper.GetBool("no_cache") {
		path := viper.GetString("cache.path")
		if path == "" {
			path = config.DefaultCachePath()
		}

		// An explicit zero budget means size to the machine.
		maxEntries := viper.GetInt("cache.max_entries")
		if maxEntries <= 0 {
			maxEntries = tuning.CacheEntries
		}

		c, err = cache.Open(path, cache.WithMaxEntries(maxEntries))
		if err != nil {
			printVerbose("Hash cache unavailable, scanning without it: %v", err)
			c = nil
		} else {
			opts = append(opts, scanner.WithCache(c))
		}
	}

	s, err := scanner.New(roots, opts...)
	if err != nil {
		if c != nil {
			_ = c.Close()
		}
		return nil, nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	return s, c, nil
}

// scanForDuplicates runs a full scan of the roots with progress reporting
// and signal handling. The returned groups already have their keeper
// marked per the configured strategy.
func scanForDuplicates(roots []string) (*scanner.Result, bool, error) {
	strat, err := groups.ParseStrategy(viper.GetString("select.strategy"))
	if err != nil {
		return nil, false, err
	}

	var progress func(types.ScanProgress)
	var bar *pb.ProgressBar
	if showProgress() {
		bar = newScanBar()
		progress = barProgress(bar)
	}

	s, c, err := buildScanner(roots, progress)
	if err != nil {
		return nil, false, err
	}
	defer func() {
		if c != nil {
			_ = c.Close()
		}
	}()

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	interrupted := false
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, stopping scan...")
		interrupted = true
		cancel()
	}()

	if bar != nil {
		bar.Start()
	}
	res, err := s.Scan(ctx)
	if bar != nil {
		bar.Finish()
	}

	if err != nil {
		return nil, interrupted, err
	}

	groups.Apply(res.Groups, strat, viper.GetStringSlice("select.priority_folders"))

	if c != nil {
		st := c.Stats()
		printVerbose("Cache: %d entries, %d hits, %d misses, %d evictions",
			st.Entries, st.Hits, st.Misses, st.Evictions)
	}

	return res, interrupted, nil
}

// resolveFormatter picks the output formatter from the configuration.
func resolveFormatter() (output.Formatter, error) {
	outFormat := viper.GetString("output")
	if outFormat == "" {
		outFormat = config.DefaultOutputFormat
	}

	if outFormat == "template" {
		// Handle custom template format
		tmplStr := viper.GetString("template")
		if tmplStr == "" {
			return nil, fmt.Errorf("--template is required when using -o template")
		}
		return output.NewTemplateFormatter(tmplStr), nil
	}

	formatter, err := output.Get(outFormat)
	if err != nil {
		return nil, fmt.Errorf("unknown output format %q: available formats are %v", outFormat, output.Available())
	}
	return formatter, nil
}

// convertToOutputResult converts a scanner result to the formatter input.
func convertToOutputResult(res *scanner.Result, roots []string, interrupted bool) *output.Result {
	alg, _ := types.ParseAlgorithm(viper.GetString("hash.algorithm"))

	outGroups := make([]output.GroupInfo, len(res.Groups))
	now := time.Now()
	for i := range res.Groups {
		g := &res.Groups[i]

		files := make([]output.FileInfo, len(g.Files))
		for j, f := range g.Files {
			files[j] = output.FileInfo{
				Path:      f.Path,
				Size:      f.Size,
				SizeHuman: types.FormatSize(f.Size),
				ModTime:   f.ModTime,
				Age:       now.Sub(f.ModTime),
				Keep:      j == g.Keep,
			}
		}

		outGroups[i] = output.GroupInfo{
			ID:          g.ID,
			Fingerprint: g.Fingerprint.String(),
			Algorithm:   string(g.Algorithm),
			Size:        g.Size,
			SizeHuman:   types.FormatSize(g.Size),
			Wasted:      g.Wasted(),
			WastedHuman: types.FormatSize(g.Wasted()),
			Files:       files,
		}
	}

	// Build warnings from per-file scan errors
	var warnings []string
	for _, e := range res.Errors {
		warnings = append(warnings, fmt.Sprintf("%s: %s", e.Path, e.Error))
	}

	return &output.Result{
		Groups: outGroups,
		Stats: output.ScanStats{
			FilesSeen:   res.Stats.FilesSeen,
			SizeGroups:  res.Stats.SizeGroups,
			Candidates:  res.Stats.Candidates,
			BytesHashed: res.Stats.BytesHashed,
			CacheHits:   res.Stats.CacheHits,
			CacheMisses: res.Stats.CacheMisses,
			Duration:    res.Stats.Elapsed,
		},
		Roots:       roots,
		Algorithm:   string(alg),
		TotalGroups: len(outGroups),
		Warnings:    warnings,
		Interrupted: interrupted,
	}
}
