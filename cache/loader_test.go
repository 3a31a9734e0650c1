package cache

import (
	"context"
	"sync/atomic"
	"testing"

	"takematch/fingerprint"
)

func savedSet(t *testing.T, c *Cache, folder string, files ...string) {
	t.Helper()
	set := NewFolderSet(folder)
	for _, file := range files {
		set.Entries[file] = Entry{
			File:   file,
			Vector: fingerprint.Vector{Algorithm: fingerprint.AlgorithmSpectral, Values: []float64{1, 0}},
		}
	}
	if err := c.Save(folder, set); err != nil {
		t.Fatalf("Save(%s) returned error: %v", folder, err)
	}
}

func TestLoaderReusesUnchangedSets(t *testing.T) {
	t.Parallel()

	folder := t.TempDir()
	c := NewWithFileName(countingDecoder(&atomic.Int64{}), testCacheFile)
	savedSet(t, c, folder, "a.wav")

	loader, err := NewLoader(c, 8)
	if err != nil {
		t.Fatalf("NewLoader returned error: %v", err)
	}

	first := loader.Load(folder)
	second := loader.Load(folder)
	if first != second {
		t.Fatal("unchanged cache file should reuse the loaded set")
	}
	if len(first.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(first.Entries))
	}
}

func TestLoaderReloadsAfterCacheUpdate(t *testing.T) {
	t.Parallel()

	folder := t.TempDir()
	c := NewWithFileName(countingDecoder(&atomic.Int64{}), testCacheFile)
	savedSet(t, c, folder, "a.wav")

	loader, err := NewLoader(c, 8)
	if err != nil {
		t.Fatalf("NewLoader returned error: %v", err)
	}

	stale := loader.Load(folder)

	// A second entry changes the cache file size, so its signature changes.
	savedSet(t, c, folder, "a.wav", "b.wav")

	fresh := loader.Load(folder)
	if fresh == stale {
		t.Fatal("updated cache file should be re-read")
	}
	if len(fresh.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(fresh.Entries))
	}
}

func TestLoaderMissingCacheNotMemoized(t *testing.T) {
	t.Parallel()

	folder := t.TempDir()
	c := NewWithFileName(countingDecoder(&atomic.Int64{}), testCacheFile)

	loader, err := NewLoader(c, 8)
	if err != nil {
		t.Fatalf("NewLoader returned error: %v", err)
	}

	empty := loader.Load(folder)
	if len(empty.Entries) != 0 {
		t.Fatalf("unfingerprinted folder returned %d entries", len(empty.Entries))
	}

	// Once the folder is fingerprinted the loader must see it.
	savedSet(t, c, folder, "a.wav")
	loaded := loader.Load(folder)
	if len(loaded.Entries) != 1 {
		t.Fatalf("entries after fingerprinting = %d, want 1", len(loaded.Entries))
	}
}

func TestLoaderLoadAllKeepsInputOrder(t *testing.T) {
	t.Parallel()

	c := NewWithFileName(countingDecoder(&atomic.Int64{}), testCacheFile)
	folders := []string{t.TempDir(), t.TempDir(), t.TempDir()}
	savedSet(t, c, folders[0], "a.wav")
	savedSet(t, c, folders[2], "b.wav", "c.wav")
	// folders[1] has no cache file; it still loads as an empty set.

	loader, err := NewLoader(c, 8)
	if err != nil {
		t.Fatalf("NewLoader returned error: %v", err)
	}

	sets := loader.LoadAll(context.Background(), folders, 2)
	if len(sets) != 3 {
		t.Fatalf("loaded %d sets, want 3", len(sets))
	}
	for i, set := range sets {
		if set.Folder != folders[i] {
			t.Fatalf("set %d is %q, want %q", i, set.Folder, folders[i])
		}
	}
	if len(sets[2].Entries) != 2 {
		t.Fatalf("third folder entries = %d, want 2", len(sets[2].Entries))
	}
}

func TestLoaderLoadAllAsync(t *testing.T) {
	t.Parallel()

	c := NewWithFileName(countingDecoder(&atomic.Int64{}), testCacheFile)
	folders := []string{t.TempDir(), t.TempDir()}
	savedSet(t, c, folders[0], "a.wav")
	savedSet(t, c, folders[1], "b.wav")

	loader, err := NewLoader(c, 8)
	if err != nil {
		t.Fatalf("NewLoader returned error: %v", err)
	}

	seen := make(map[string]int)
	for result := range loader.LoadAllAsync(context.Background(), folders, 2) {
		seen[result.Folder] = len(result.Set.Entries)
	}
	if len(seen) != 2 || seen[folders[0]] != 1 || seen[folders[1]] != 1 {
		t.Fatalf("async results = %v", seen)
	}
}
