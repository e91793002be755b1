package main

import (
	"fmt"
	"strings"

	"github.com/jamesainslie/dupes/pkg/dupes/filter"
	"github.com/jamesainslie/dupes/pkg/dupes/types"
	"github.com/spf13/viper"
)

// buildFilter creates a filter.Filter from the resolved configuration.
func buildFilter() (*filter.Filter, error) {
	var opts []filter.Option

	// Min size. Zero admits empty files, which group trivially.
	minSizeStr := viper.GetString("scan.min_size")
	if minSizeStr != "" {
		minSize, err := types.ParseSize(minSizeStr)
		if err != nil {
			return nil, fmt.Errorf("invalid min-size %q: %w", minSizeStr, err)
		}
		opts = append(opts, filter.WithMinSize(minSize))
	}

	// Max size
	maxSizeStr := viper.GetString("scan.max_size")
	if maxSizeStr != "" {
		maxSize, err := types.ParseSize(maxSizeStr)
		if err != nil {
			return nil, fmt.Errorf("invalid max-size %q: %w", maxSizeStr, err)
		}
		opts = append(opts, filter.WithMaxSize(maxSize))
	}

	// File type groups (expand to extensions)
	fileTypesStr := viper.GetString("type")
	if fileTypesStr != "" {
		typeGroups := parseCommaSeparated(fileTypesStr)
		opts = append(opts, filter.WithTypeGroups(typeGroups...))
	}

	// Extensions (override type groups if both specified)
	exts := viper.GetStringSlice("scan.extensions")
	if len(exts) > 0 {
		opts = append(opts, filter.WithExtensions(exts...))
	}

	// Include patterns
	include := viper.GetStringSlice("scan.include")
	if len(include) > 0 {
		opts = append(opts, filter.WithInclude(include...))
	}

	// Exclude patterns
	exclude := viper.GetStringSlice("scan.exclude")
	if len(exclude) > 0 {
		opts = append(opts, filter.WithExclude(exclude...))
	}

	return filter.New(opts...)
}

// parseCommaSeparated splits a comma-separated string and trims whitespace.
func parseCommaSeparated(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
