package groups_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jamesainslie/dupes/pkg/dupes/groups"
	"github.com/jamesainslie/dupes/pkg/dupes/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func file(path string, modTime time.Time) types.FileRecord {
	return types.FileRecord{Path: path, Size: 100, ModTime: modTime}
}

func testGroup(paths ...string) groups.Group {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	files := make([]types.FileRecord, len(paths))
	for i, p := range paths {
		files[i] = file(p, base.Add(time.Duration(i)*time.Hour))
	}
	return groups.Group{
		Fingerprint: types.Fingerprint{0xde, 0xad, 0xbe, 0xef},
		Algorithm:   types.AlgoBLAKE3,
		Size:        100,
		Files:       files,
	}
}

func TestGroupDoomed(t *testing.T) {
	t.Run("returns everything except the kept member", func(t *testing.T) {
		g := testGroup("/a", "/b", "/c")
		g.Keep = 1

		doomed := g.Doomed()

		require.Len(t, doomed, 2)
		assert.Equal(t, "/a", doomed[0].Path)
		assert.Equal(t, "/c", doomed[1].Path)
	})

	t.Run("two member group dooms one file", func(t *testing.T) {
		g := testGroup("/a", "/b")
		g.Keep = 0

		doomed := g.Doomed()

		require.Len(t, doomed, 1)
		assert.Equal(t, "/b", doomed[0].Path)
	})
}

func TestGroupKept(t *testing.T) {
	g := testGroup("/a", "/b", "/c")
	g.Keep = 2

	assert.Equal(t, "/c", g.Kept().Path)
}

func TestGroupWasted(t *testing.T) {
	t.Run("counts every copy beyond the first", func(t *testing.T) {
		g := testGroup("/a", "/b", "/c")
		assert.Equal(t, int64(200), g.Wasted())
	})

	t.Run("single member wastes nothing", func(t *testing.T) {
		g := testGroup("/a")
		assert.Equal(t, int64(0), g.Wasted())
	})

	t.Run("empty group wastes nothing", func(t *testing.T) {
		g := groups.Group{Size: 100}
		assert.Equal(t, int64(0), g.Wasted())
	})
}

func TestSetKeep(t *testing.T) {
	t.Run("selects the member with the matching path", func(t *testing.T) {
		g := testGroup("/a", "/b", "/c")

		err := groups.SetKeep(&g, "/b")

		require.NoError(t, err)
		assert.Equal(t, 1, g.Keep)
	})

	t.Run("rejects a path outside the group", func(t *testing.T) {
		g := testGroup("/a", "/b")

		err := groups.SetKeep(&g, "/elsewhere")

		require.Error(t, err)
		assert.ErrorIs(t, err, groups.ErrNotInGroup)
		assert.Equal(t, 0, g.Keep, "failed override must not change the selection")
	})
}

func TestSort(t *testing.T) {
	t.Run("orders groups by wasted space descending", func(t *testing.T) {
		small := testGroup("/s1", "/s2")
		big := testGroup("/b1", "/b2", "/b3", "/b4")
		gs := []groups.Group{small, big}

		groups.Sort(gs)

		assert.Equal(t, "/b1", gs[0].Files[0].Path)
		assert.Equal(t, "/s1", gs[1].Files[0].Path)
	})

	t.Run("breaks wasted space ties by first member path", func(t *testing.T) {
		gs := []groups.Group{
			testGroup("/zebra/a", "/zebra/b"),
			testGroup("/apple/a", "/apple/b"),
		}

		groups.Sort(gs)

		assert.Equal(t, "/apple/a", gs[0].Files[0].Path)
		assert.Equal(t, "/zebra/a", gs[1].Files[0].Path)
	})

	t.Run("sorts members by path within each group", func(t *testing.T) {
		gs := []groups.Group{testGroup("/c", "/a", "/b")}

		groups.Sort(gs)

		require.Len(t, gs[0].Files, 3)
		assert.Equal(t, "/a", gs[0].Files[0].Path)
		assert.Equal(t, "/b", gs[0].Files[1].Path)
		assert.Equal(t, "/c", gs[0].Files[2].Path)
	})

	t.Run("assigns sequential ids", func(t *testing.T) {
		gs := []groups.Group{
			testGroup("/a", "/b"),
			testGroup("/c", "/d", "/e"),
			testGroup("/f", "/g"),
		}

		groups.Sort(gs)

		for i := range gs {
			assert.Equal(t, i+1, gs[i].ID)
		}
	})

	t.Run("repeated sorts are stable", func(t *testing.T) {
		gs := []groups.Group{
			testGroup("/x", "/y"),
			testGroup("/m", "/n", "/o"),
		}

		groups.Sort(gs)
		first := make([]string, len(gs))
		for i := range gs {
			first[i] = gs[i].Files[0].Path
		}

		groups.Sort(gs)
		for i := range gs {
			assert.Equal(t, first[i], gs[i].Files[0].Path)
			assert.Equal(t, i+1, gs[i].ID)
		}
	})
}

func TestApplyKeepOldest(t *testing.T) {
	t.Run("keeps the earliest modification time", func(t *testing.T) {
		g := testGroup("/a", "/b", "/c")
		g.Files[2].ModTime = g.Files[0].ModTime.Add(-time.Hour)
		gs := []groups.Group{g}

		groups.Apply(gs, groups.KeepOldest, nil)

		assert.Equal(t, 2, gs[0].Keep)
	})

	t.Run("breaks timestamp ties by path", func(t *testing.T) {
		when := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		g := groups.Group{
			Size: 100,
			Files: []types.FileRecord{
				file("/b", when),
				file("/a", when),
			},
		}
		gs := []groups.Group{g}

		groups.Apply(gs, groups.KeepOldest, nil)

		assert.Equal(t, "/a", gs[0].Kept().Path)
	})
}

func TestApplyKeepNewest(t *testing.T) {
	g := testGroup("/a", "/b", "/c")
	gs := []groups.Group{g}

	groups.Apply(gs, groups.KeepNewest, nil)

	// testGroup spaces modification times an hour apart in member order.
	assert.Equal(t, 2, gs[0].Keep)
}

func TestApplyKeepShortestPath(t *testing.T) {
	t.Run("keeps the shortest path", func(t *testing.T) {
		g := testGroup("/deep/nested/copy", "/top", "/deeper/still/another")
		gs := []groups.Group{g}

		groups.Apply(gs, groups.KeepShortestPath, nil)

		assert.Equal(t, "/top", gs[0].Kept().Path)
	})

	t.Run("breaks length ties by path", func(t *testing.T) {
		g := testGroup("/bb", "/aa")
		gs := []groups.Group{g}

		groups.Apply(gs, groups.KeepShortestPath, nil)

		assert.Equal(t, "/aa", gs[0].Kept().Path)
	})
}

func TestApplyKeepFirstAlphabetical(t *testing.T) {
	g := testGroup("/c", "/a", "/b")
	gs := []groups.Group{g}

	groups.Apply(gs, groups.KeepFirstAlphabetical, nil)

	assert.Equal(t, "/a", gs[0].Kept().Path)
}

func TestApplyFolderPriority(t *testing.T) {
	t.Run("keeps the member under the first priority folder", func(t *testing.T) {
		g := testGroup("/downloads/song.mp3", "/music/song.mp3", "/backup/song.mp3")
		gs := []groups.Group{g}

		groups.Apply(gs, groups.FolderPriority, []string{"/music", "/backup"})

		assert.Equal(t, "/music/song.mp3", gs[0].Kept().Path)
	})

	t.Run("later folders only apply when earlier ones have no member", func(t *testing.T) {
		g := testGroup("/downloads/song.mp3", "/backup/song.mp3")
		gs := []groups.Group{g}

		groups.Apply(gs, groups.FolderPriority, []string{"/music", "/backup"})

		assert.Equal(t, "/backup/song.mp3", gs[0].Kept().Path)
	})

	t.Run("several members under one folder resolve alphabetically", func(t *testing.T) {
		g := testGroup("/music/z/song.mp3", "/music/a/song.mp3")
		gs := []groups.Group{g}

		groups.Apply(gs, groups.FolderPriority, []string{"/music"})

		assert.Equal(t, "/music/a/song.mp3", gs[0].Kept().Path)
	})

	t.Run("matches folders at any depth", func(t *testing.T) {
		g := testGroup("/tmp/copy.dat", "/music/albums/2024/track.dat")
		gs := []groups.Group{g}

		groups.Apply(gs, groups.FolderPriority, []string{"/music"})

		assert.Equal(t, "/music/albums/2024/track.dat", gs[0].Kept().Path)
	})

	t.Run("does not match sibling folders sharing a prefix", func(t *testing.T) {
		g := testGroup("/musicals/show.mp3", "/other/show.mp3")
		gs := []groups.Group{g}

		groups.Apply(gs, groups.FolderPriority, []string{"/music"})

		// Neither member is under /music, so fall back to alphabetical.
		assert.Equal(t, "/musicals/show.mp3", gs[0].Kept().Path)
	})

	t.Run("falls back to alphabetical with no priority folders", func(t *testing.T) {
		g := testGroup("/c", "/a")
		gs := []groups.Group{g}

		groups.Apply(gs, groups.FolderPriority, nil)

		assert.Equal(t, "/a", gs[0].Kept().Path)
	})
}

func TestApplyCustom(t *testing.T) {
	g := testGroup("/a", "/b", "/c")
	g.Keep = 2
	gs := []groups.Group{g}

	groups.Apply(gs, groups.Custom, nil)

	assert.Equal(t, 2, gs[0].Keep, "custom strategy must not touch the selection")
}

func TestApplyEmptyGroup(t *testing.T) {
	gs := []groups.Group{{Size: 100}}

	// Must not panic on a group with no members.
	groups.Apply(gs, groups.KeepOldest, nil)

	assert.Equal(t, 0, gs[0].Keep)
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input string
		want  groups.Strategy
	}{
		{input: "oldest", want: groups.KeepOldest},
		{input: "newest", want: groups.KeepNewest},
		{input: "shortest-path", want: groups.KeepShortestPath},
		{input: "alphabetical", want: groups.KeepFirstAlphabetical},
		{input: "folder-priority", want: groups.FolderPriority},
		{input: "custom", want: groups.Custom},
		{input: "OLDEST", want: groups.KeepOldest},
		{input: "  newest  ", want: groups.KeepNewest},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := groups.ParseStrategy(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("rejects unknown strategies", func(t *testing.T) {
		_, err := groups.ParseStrategy("biggest")
		require.Error(t, err)
		assert.ErrorIs(t, err, groups.ErrInvalidStrategy)
	})
}

func TestStrategyString(t *testing.T) {
	for _, s := range []groups.Strategy{
		groups.KeepOldest,
		groups.KeepNewest,
		groups.KeepShortestPath,
		groups.KeepFirstAlphabetical,
		groups.FolderPriority,
		groups.Custom,
	} {
		parsed, err := groups.ParseStrategy(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
}

func TestSummarize(t *testing.T) {
	t.Run("aggregates across groups", func(t *testing.T) {
		gs := []groups.Group{
			testGroup("/a", "/b", "/c"),
			testGroup("/d", "/e"),
		}

		stats := groups.Summarize(gs)

		assert.Equal(t, 2, stats.Groups)
		assert.Equal(t, 5, stats.Files)
		assert.Equal(t, 3, stats.Duplicates)
		assert.Equal(t, int64(500), stats.TotalSize)
		assert.Equal(t, int64(300), stats.WastedSpace)
	})

	t.Run("empty input yields zero stats", func(t *testing.T) {
		stats := groups.Summarize(nil)

		assert.Equal(t, 0, stats.Groups)
		assert.Equal(t, 0, stats.Files)
		assert.Equal(t, int64(0), stats.WastedSpace)
	})
}
