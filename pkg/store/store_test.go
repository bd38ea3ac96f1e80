package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRankTable_Absent(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.csv"), writeFile(t, "empty.csv", "\n")} {
		table := NewRankTable(path, nil)
		assert.False(t, table.Available(), path)
		_, ok := table.RankOf("google.com")
		assert.False(t, ok)
		assert.Zero(t, table.Len())
	}
}

func TestRankTable_Lookup(t *testing.T) {
	path := writeFile(t, "top.csv", "1,google.com\n2,Facebook.com\nbad line\nx,skip.com\n3,google.com\n150000,tail.org\n")
	table := NewRankTable(path, nil)

	require.True(t, table.Available())
	assert.Equal(t, 3, table.Len())

	rank, ok := table.RankOf("google.com")
	assert.True(t, ok)
	assert.Equal(t, 1, rank)

	rank, ok = table.RankOf("facebook.com")
	assert.True(t, ok)
	assert.Equal(t, 2, rank)

	rank, ok = table.RankOf("tail.org")
	assert.True(t, ok)
	assert.Equal(t, 150000, rank)

	_, ok = table.RankOf("unknown.net")
	assert.False(t, ok)
}

func TestRankTable_ConcurrentFirstAccessLoadsOnce(t *testing.T) {
	path := writeFile(t, "top.csv", "1,google.com\n")
	table := NewRankTable(path, nil)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = table.RankOf("google.com")
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), table.loads.Load())

	table.Invalidate()
	assert.True(t, table.Available())
	assert.Equal(t, int64(2), table.loads.Load())
}

func TestBlacklist_ReadsFile(t *testing.T) {
	path := writeFile(t, "blacklist.txt", "# known bad\nEvil.com\n\nhttps://phish.example.net/login\n")
	bl := NewBlacklist(path, nil)

	assert.True(t, bl.Loaded())
	assert.Equal(t, []string{"evil.com", "phish.example.net"}, bl.List())
	assert.True(t, bl.Contains("evil.com"))
	assert.True(t, bl.Contains("EVIL.COM."))
	assert.True(t, bl.Contains("http://phish.example.net/x"))
	assert.False(t, bl.Contains("sub.evil.com"))
	assert.False(t, bl.Contains(""))
}

func TestBlacklist_MissingFileIsEmpty(t *testing.T) {
	bl := NewBlacklist(filepath.Join(t.TempDir(), "none.txt"), nil)
	assert.False(t, bl.Loaded())
	assert.Empty(t, bl.List())
	assert.False(t, bl.Contains("evil.com"))
}

func TestBlacklist_ReloadSeesExternalEdits(t *testing.T) {
	path := writeFile(t, "blacklist.txt", "evil.com\n")
	bl := NewBlacklist(path, nil)
	require.True(t, bl.Contains("evil.com"))

	require.NoError(t, os.WriteFile(path, []byte("other.com\n"), 0o644))
	assert.True(t, bl.Contains("evil.com"), "cached snapshot is served until reload")

	require.NoError(t, bl.Reload())
	assert.False(t, bl.Contains("evil.com"))
	assert.True(t, bl.Contains("other.com"))
}

func TestBlacklist_WriteMergesOtherProcessEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.txt")
	server := NewBlacklist(path, nil)
	cli := NewBlacklist(path, nil)
	require.Zero(t, server.Len())

	require.NoError(t, cli.Add("evil.example"))
	require.NoError(t, server.Add("bad.example"))

	assert.Equal(t, []string{"bad.example", "evil.example"}, server.List())
	removed, err := server.Remove("evil.example")
	require.NoError(t, err)
	assert.True(t, removed)
	require.NoError(t, cli.Reload())
	assert.Equal(t, []string{"bad.example"}, cli.List())
}

func TestBlacklist_ConcurrentReloadNeverPublishesStaleData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.txt")
	bl := NewBlacklist(path, nil)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				_ = bl.Reload()
			}
		}
	}()
	for i := 0; i < 50; i++ {
		require.NoError(t, bl.Add("d"+string(rune('a'+i%26))+string(rune('a'+i/26))+".example"))
	}
	close(stop)
	wg.Wait()
	assert.Equal(t, 50, bl.Len())
}

func TestBlacklist_WatchPicksUpExternalWrites(t *testing.T) {
	path := writeFile(t, "blacklist.txt", "old.example\n")
	bl := NewBlacklist(path, nil)
	require.Equal(t, 1, bl.Len())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var reported atomic.Int64
	go func() {
		done <- bl.Watch(ctx, func(n int) { reported.Store(int64(n)) })
	}()

	assert.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("old.example\nevil.example\n"), 0o644)
		return bl.Contains("evil.example")
	}, 5*time.Second, 50*time.Millisecond)
	assert.Eventually(t, func() bool { return reported.Load() == 2 }, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestBlacklist_Mutations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "blacklist.txt")
	bl := NewBlacklist(path, nil)

	require.NoError(t, bl.Replace([]string{"b.com", "A.com", "b.com", " "}))
	assert.Equal(t, []string{"a.com", "b.com"}, bl.List())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a.com\nb.com\n", string(data))

	require.NoError(t, bl.Add("https://c.com/path"))
	require.NoError(t, bl.Add("a.com"))
	assert.Equal(t, []string{"a.com", "b.com", "c.com"}, bl.List())
	assert.Error(t, bl.Add("   "))

	removed, err := bl.Remove("b.com")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = bl.Remove("nope.com")
	require.NoError(t, err)
	assert.False(t, removed)

	fresh := NewBlacklist(path, nil)
	assert.Equal(t, []string{"a.com", "c.com"}, fresh.List())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestBlacklist_NoBackingFile(t *testing.T) {
	bl := NewBlacklist("", nil)
	assert.False(t, bl.Loaded())
	assert.Error(t, bl.Replace([]string{"a.com"}))
}
