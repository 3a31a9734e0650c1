package cache

import (
	"context"
	"fmt"
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Loader reads many folders' fingerprint sets from disk for matching.
// Loading a large library is the slow part of a match query, so Loader runs
// folder reads across a small pool and keeps recently loaded sets in an LRU,
// keyed by the cache file's own signature so an updated cache is re-read.
type Loader struct {
	cache *Cache

	mu  sync.Mutex
	lru *lru.Cache[string, loadedSet]
}

type loadedSet struct {
	sig Signature
	set *FolderSet
}

// LoadResult delivers one folder's set from an asynchronous load.
type LoadResult struct {
	Folder string
	Set    *FolderSet
}

// NewLoader wraps a Cache with an LRU of up to capacity loaded folder sets.
func NewLoader(c *Cache, capacity int) (*Loader, error) {
	if capacity < 1 {
		capacity = 1
	}
	l, err := lru.New[string, loadedSet](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create folder set cache: %w", err)
	}
	return &Loader{cache: c, lru: l}, nil
}

// Load returns the folder's set, reusing the in-memory copy while the cache
// file on disk is unchanged.
func (ld *Loader) Load(folder string) *FolderSet {
	path := ld.cache.CachePath(folder)

	sig, err := FileSignature(path)
	if err != nil {
		// No cache file: behave like Cache.LoadAll (empty set) and don't
		// memoize, so the set appears once the folder is fingerprinted.
		if os.IsNotExist(err) {
			return NewFolderSet(folder)
		}
		return ld.cache.LoadAll(folder)
	}

	ld.mu.Lock()
	if cached, ok := ld.lru.Get(folder); ok && cached.sig.Matches(sig) {
		ld.mu.Unlock()
		return cached.set
	}
	ld.mu.Unlock()

	set := ld.cache.LoadAll(folder)

	ld.mu.Lock()
	ld.lru.Add(folder, loadedSet{sig: sig, set: set})
	ld.mu.Unlock()
	return set
}

// LoadAll reads every folder's set, a few folders at a time. Order of the
// result matches the input. Cancellation returns the sets loaded so far.
func (ld *Loader) LoadAll(ctx context.Context, folders []string, workers int) []*FolderSet {
	if workers <= 0 {
		workers = 4
	}
	if workers > len(folders) {
		workers = len(folders)
	}

	sets := make([]*FolderSet, len(folders))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				sets[idx] = ld.Load(folders[idx])
			}
		}()
	}

	for idx := range folders {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return compactSets(sets)
		}
	}
	close(jobs)
	wg.Wait()
	return compactSets(sets)
}

// LoadAllAsync streams folder sets as they become available, so a UI can
// stay responsive while a large library loads. The channel closes when every
// folder is delivered or ctx is cancelled.
func (ld *Loader) LoadAllAsync(ctx context.Context, folders []string, workers int) <-chan LoadResult {
	out := make(chan LoadResult)
	go func() {
		defer close(out)
		for _, set := range ld.LoadAll(ctx, folders, workers) {
			select {
			case out <- LoadResult{Folder: set.Folder, Set: set}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func compactSets(sets []*FolderSet) []*FolderSet {
	loaded := make([]*FolderSet, 0, len(sets))
	for _, set := range sets {
		if set != nil {
			loaded = append(loaded, set)
		}
	}
	return loaded
}
