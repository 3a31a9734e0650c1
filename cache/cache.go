package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"takematch/fingerprint"
	"takematch/utils"
)

// DefaultCacheFileName is the per-folder cache file.
const DefaultCacheFileName = ".takematch-cache.json"

// DecodeFunc turns an audio file into mono PCM samples and a sample rate.
// Decoding belongs to a collaborator (see the audio package); the cache only
// needs the samples.
type DecodeFunc func(path string) (samples []float64, sampleRate int, err error)

// Cache manages per-folder fingerprint persistence. Entries are invalidated
// by content signature only, never by time, so repeated generation passes
// over unmodified files are idempotent and never touch the decoder.
type Cache struct {
	fileName string
	decode   DecodeFunc
	logger   *slog.Logger

	mu          sync.Mutex
	folderLocks map[string]*sync.Mutex
}

// New returns a Cache that decodes audio through decode and persists each
// folder's set under DefaultCacheFileName.
func New(decode DecodeFunc) *Cache {
	return NewWithFileName(decode, DefaultCacheFileName)
}

// NewWithFileName overrides the cache file name, mainly for tests.
func NewWithFileName(decode DecodeFunc, fileName string) *Cache {
	return &Cache{
		fileName:    fileName,
		decode:      decode,
		logger:      utils.GetLogger(),
		folderLocks: make(map[string]*sync.Mutex),
	}
}

// CachePath returns the cache file location for a folder.
func (c *Cache) CachePath(folder string) string {
	return filepath.Join(folder, c.fileName)
}

// folderLock returns the write lock for a folder, creating it on first use.
// Saves for a single folder are serialized through it.
func (c *Cache) folderLock(folder string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.folderLocks[folder]
	if !ok {
		lock = &sync.Mutex{}
		c.folderLocks[folder] = lock
	}
	return lock
}

// LoadAll reads the persisted set for a folder. A missing or corrupt cache
// file is an empty set, never a failure; the entries regenerate lazily.
func (c *Cache) LoadAll(folder string) *FolderSet {
	path := c.CachePath(folder)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("unreadable fingerprint cache, starting empty",
				slog.String("path", path), slog.Any("error", err))
		}
		return NewFolderSet(folder)
	}

	var set FolderSet
	if err := json.Unmarshal(data, &set); err != nil {
		c.logger.Warn("corrupt fingerprint cache, starting empty",
			slog.String("path", path), slog.Any("error", err))
		return NewFolderSet(folder)
	}

	set.Folder = folder
	if set.Entries == nil {
		set.Entries = make(map[string]Entry)
	}
	return &set
}

// Save persists the full set atomically: write to a temp file in the same
// directory, then rename over the old cache. An interrupted save leaves the
// previous cache intact.
func (c *Cache) Save(folder string, set *FolderSet) error {
	lock := c.folderLock(folder)
	lock.Lock()
	defer lock.Unlock()

	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal fingerprint cache: %w", err)
	}

	path := c.CachePath(folder)
	tempPath := fmt.Sprintf("%s.%08x.tmp", path, utils.GenerateUniqueID())
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write fingerprint cache: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace fingerprint cache: %w", err)
	}
	return nil
}

// GetOrGenerate returns the cached vector for file when its signature still
// matches, otherwise decodes, fingerprints, and overwrites the stale entry
// in the in-memory set. The caller persists via Save.
func (c *Cache) GetOrGenerate(set *FolderSet, file string, alg fingerprint.Algorithm) (fingerprint.Vector, error) {
	path := filepath.Join(set.Folder, file)

	sig, err := FileSignature(path)
	if err != nil {
		return fingerprint.Vector{}, err
	}

	if entry, ok := set.Entries[file]; ok &&
		entry.Vector.Algorithm == alg && entry.Signature.Matches(sig) {
		return entry.Vector, nil
	}

	samples, sampleRate, err := c.decode(path)
	if err != nil {
		return fingerprint.Vector{}, err
	}

	vector, err := fingerprint.Generate(samples, sampleRate, alg)
	if err != nil {
		return fingerprint.Vector{}, err
	}

	prev := set.Entries[file]
	set.Entries[file] = Entry{
		File:            file,
		Signature:       sig,
		Vector:          vector,
		IsReferenceSong: prev.IsReferenceSong,
	}
	return vector, nil
}

// RemoveStale is the explicit cleanup pass: it drops entries whose source
// file no longer exists and returns the removed filenames. Stale entries are
// never removed automatically.
func (c *Cache) RemoveStale(set *FolderSet) []string {
	var removed []string
	for file := range set.Entries {
		if _, err := os.Stat(filepath.Join(set.Folder, file)); os.IsNotExist(err) {
			delete(set.Entries, file)
			removed = append(removed, file)
		}
	}
	return removed
}
