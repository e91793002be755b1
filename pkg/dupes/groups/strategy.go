package groups

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Strategy selects which member of a duplicate group to keep.
type Strategy int

const (
	// KeepOldest keeps the member with the earliest modification time.
	KeepOldest Strategy = iota
	// KeepNewest keeps the member with the latest modification time.
	KeepNewest
	// KeepShortestPath keeps the member with the shortest path.
	KeepShortestPath
	// KeepFirstAlphabetical keeps the member that sorts first by path.
	KeepFirstAlphabetical
	// FolderPriority keeps the first member found under an ordered list of
	// preferred folders, falling back to alphabetical.
	FolderPriority
	// Custom leaves the selection to the caller (see SetKeep).
	Custom
)

// Strategy string constants.
const (
	strategyOldest         = "oldest"
	strategyNewest         = "newest"
	strategyShortestPath   = "shortest-path"
	strategyAlphabetical   = "alphabetical"
	strategyFolderPriority = "folder-priority"
	strategyCustom         = "custom"
)

// String returns the string representation of the strategy.
func (s Strategy) String() string {
	switch s {
	case KeepOldest:
		return strategyOldest
	case KeepNewest:
		return strategyNewest
	case KeepShortestPath:
		return strategyShortestPath
	case KeepFirstAlphabetical:
		return strategyAlphabetical
	case FolderPriority:
		return strategyFolderPriority
	case Custom:
		return strategyCustom
	default:
		return strategyOldest
	}
}

// ErrInvalidStrategy indicates that the strategy string could not be parsed.
var ErrInvalidStrategy = errors.New("invalid keep strategy")

// ParseStrategy parses a string into a Strategy (case-insensitive).
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case strategyOldest:
		return KeepOldest, nil
	case strategyNewest:
		return KeepNewest, nil
	case strategyShortestPath:
		return KeepShortestPath, nil
	case strategyAlphabetical:
		return KeepFirstAlphabetical, nil
	case strategyFolderPriority:
		return FolderPriority, nil
	case strategyCustom:
		return Custom, nil
	default:
		return KeepOldest, fmt.Errorf("%w: %q (valid: oldest, newest, shortest-path, alphabetical, folder-priority, custom)", ErrInvalidStrategy, s)
	}
}

// Apply sets the kept member of every group according to the strategy.
// The priority list is only consulted by FolderPriority. Custom leaves
// existing selections untouched. Ties always break toward the path that
// sorts first, so the outcome does not depend on member order.
func Apply(gs []Group, strategy Strategy, priority []string) {
	for i := range gs {
		applyOne(&gs[i], strategy, priority)
	}
}

func applyOne(g *Group, strategy Strategy, priority []string) {
	if len(g.Files) == 0 {
		return
	}

	switch strategy {
	case KeepOldest:
		g.Keep = pick(g, func(a, b int) bool {
			if !g.Files[a].ModTime.Equal(g.Files[b].ModTime) {
				return g.Files[a].ModTime.Before(g.Files[b].ModTime)
			}
			return g.Files[a].Path < g.Files[b].Path
		})
	case KeepNewest:
		g.Keep = pick(g, func(a, b int) bool {
			if !g.Files[a].ModTime.Equal(g.Files[b].ModTime) {
				return g.Files[a].ModTime.After(g.Files[b].ModTime)
			}
			return g.Files[a].Path < g.Files[b].Path
		})
	case KeepShortestPath:
		g.Keep = pick(g, func(a, b int) bool {
			if len(g.Files[a].Path) != len(g.Files[b].Path) {
				return len(g.Files[a].Path) < len(g.Files[b].Path)
			}
			return g.Files[a].Path < g.Files[b].Path
		})
	case KeepFirstAlphabetical:
		g.Keep = pickAlphabetical(g)
	case FolderPriority:
		g.Keep = pickByFolder(g, priority)
	case Custom:
		// Caller-managed; leave Keep alone.
	}
}

// pick returns the index of the member that wins every better(a, b)
// comparison.
func pick(g *Group, better func(a, b int) bool) int {
	best := 0
	for i := 1; i < len(g.Files); i++ {
		if better(i, best) {
			best = i
		}
	}
	return best
}

func pickAlphabetical(g *Group) int {
	return pick(g, func(a, b int) bool {
		return g.Files[a].Path < g.Files[b].Path
	})
}

// pickByFolder walks the priority folders in order and keeps the first
// member found under one of them; several members under the same folder
// resolve alphabetically. Nothing under any folder falls back to
// alphabetical.
func pickByFolder(g *Group, priority []string) int {
	for _, folder := range priority {
		folder = filepath.Clean(folder)
		best := -1
		for i, f := range g.Files {
			if !underFolder(f.Path, folder) {
				continue
			}
			if best == -1 || f.Path < g.Files[best].Path {
				best = i
			}
		}
		if best != -1 {
			return best
		}
	}
	return pickAlphabetical(g)
}

// underFolder reports whether path is inside folder (at any depth).
func underFolder(path, folder string) bool {
	return strings.HasPrefix(path, folder+string(filepath.Separator))
}
