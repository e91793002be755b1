// Package groups models confirmed duplicate groups and the selection of
// which member to keep. A group's files share a full-content fingerprint;
// every strategy only decides the keeper, never membership.
package groups

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/jamesainslie/dupes/pkg/dupes/types"
)

// Group is a set of files with identical content.
type Group struct {
	// ID numbers the group within one scan, assigned after sorting so
	// repeated scans of an unchanged tree produce the same IDs.
	ID int `json:"id"`

	// Fingerprint is the full-content digest shared by every member.
	Fingerprint types.Fingerprint `json:"fingerprint"`

	// Algorithm produced the fingerprint.
	Algorithm types.Algorithm `json:"algorithm"`

	// Size is the size in bytes of each member.
	Size int64 `json:"size"`

	// Files are the members. Keep indexes into this slice, so reordering
	// Files invalidates any prior selection.
	Files []types.FileRecord `json:"files"`

	// Keep is the index of the member to preserve.
	Keep int `json:"keep"`
}

// Doomed returns the members that are not kept, in member order.
func (g *Group) Doomed() []types.FileRecord {
	doomed := make([]types.FileRecord, 0, len(g.Files)-1)
	for i, f := range g.Files {
		if i != g.Keep {
			doomed = append(doomed, f)
		}
	}
	return doomed
}

// Kept returns the member selected to survive.
func (g *Group) Kept() types.FileRecord {
	return g.Files[g.Keep]
}

// Wasted returns the bytes reclaimable from this group: every copy beyond
// the first.
func (g *Group) Wasted() int64 {
	if len(g.Files) < 2 {
		return 0
	}
	return int64(len(g.Files)-1) * g.Size
}

// ErrNotInGroup indicates a path that is not a member of the group.
var ErrNotInGroup = errors.New("file is not a member of the group")

// SetKeep overrides the kept member by path.
func SetKeep(g *Group, path string) error {
	for i, f := range g.Files {
		if f.Path == path {
			g.Keep = i
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotInGroup, path)
}

// Sort orders members by path ascending and groups by wasted space
// descending, ties broken by first member path. Run it before Apply:
// sorting afterwards would invalidate Keep indexes.
func Sort(gs []Group) {
	for i := range gs {
		slices.SortFunc(gs[i].Files, func(a, b types.FileRecord) int {
			return cmp.Compare(a.Path, b.Path)
		})
	}
	slices.SortFunc(gs, func(a, b Group) int {
		if c := cmp.Compare(b.Wasted(), a.Wasted()); c != 0 {
			return c
		}
		return cmp.Compare(a.Files[0].Path, b.Files[0].Path)
	})
	for i := range gs {
		gs[i].ID = i + 1
	}
}

// Stats summarizes a set of duplicate groups.
type Stats struct {
	// Groups is the number of duplicate groups.
	Groups int `json:"groups"`

	// Files is the total number of files across all groups.
	Files int `json:"files"`

	// Duplicates is the number of redundant copies (Files - Groups).
	Duplicates int `json:"duplicates"`

	// TotalSize is the combined size of all group members in bytes.
	TotalSize int64 `json:"total_size"`

	// WastedSpace is the total reclaimable bytes: each group's size times
	// its redundant copies.
	WastedSpace int64 `json:"wasted_space"`
}

// Summarize computes aggregate statistics for a set of groups.
func Summarize(gs []Group) Stats {
	var s Stats
	s.Groups = len(gs)
	for i := range gs {
		n := len(gs[i].Files)
		s.Files += n
		s.Duplicates += n - 1
		s.TotalSize += int64(n) * gs[i].Size
		s.WastedSpace += gs[i].Wasted()
	}
	return s
}
