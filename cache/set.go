package cache

import (
	"sort"

	"takematch/fingerprint"
)

// Entry is one cached fingerprint, keyed by filename within its folder.
type Entry struct {
	File            string             `json:"file"`
	Signature       Signature          `json:"signature"`
	Vector          fingerprint.Vector `json:"vector"`
	IsReferenceSong bool               `json:"isReferenceSong,omitempty"`
}

// FolderSet owns every cached fingerprint for one practice folder. Folders
// have independent lifecycles; nothing couples them except at match time.
//
// A FolderSet is not internally locked: mutation happens through the single
// writer that owns the folder (see Cache.GenerateFolder), reads of a loaded
// set need no locking.
type FolderSet struct {
	Folder      string           `json:"folder"`
	IsReference bool             `json:"isReference,omitempty"`
	Entries     map[string]Entry `json:"entries"`
}

// NewFolderSet returns an empty set for a folder.
func NewFolderSet(folder string) *FolderSet {
	return &FolderSet{Folder: folder, Entries: make(map[string]Entry)}
}

// Files returns the cached filenames in sorted order.
func (s *FolderSet) Files() []string {
	files := make([]string, 0, len(s.Entries))
	for file := range s.Entries {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

// MarkReferenceSong flags or unflags a single cached file as a trusted
// recording. Returns false if the file has no cache entry.
func (s *FolderSet) MarkReferenceSong(file string, flagged bool) bool {
	entry, ok := s.Entries[file]
	if !ok {
		return false
	}
	entry.IsReferenceSong = flagged
	s.Entries[file] = entry
	return true
}
