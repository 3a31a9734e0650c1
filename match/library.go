package match

import (
	"sort"
	"sync"

	"takematch/cache"
	"takematch/fingerprint"
)

// Library is the explicit, injected collection of folder fingerprint sets a
// match query runs against. Folder discovery belongs to the caller; the
// library holds exactly what it was given and performs no hidden lookups.
type Library struct {
	mu              sync.RWMutex
	sets            map[string]*cache.FolderSet
	referenceFolder string
}

func NewLibrary() *Library {
	return &Library{sets: make(map[string]*cache.FolderSet)}
}

// SetReferenceFolder designates the library's single global reference
// folder. Candidates from it receive the BoostReferenceFolder trust boost.
func (l *Library) SetReferenceFolder(folder string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.referenceFolder = folder
}

// Add registers (or replaces) one folder's set.
func (l *Library) Add(set *cache.FolderSet) {
	if set == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sets[set.Folder] = set
}

// AddAll registers many sets at once, typically straight from a Loader.
func (l *Library) AddAll(sets []*cache.FolderSet) {
	for _, set := range sets {
		l.Add(set)
	}
}

// Folders returns the registered folder paths, sorted.
func (l *Library) Folders() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	folders := make([]string, 0, len(l.sets))
	for folder := range l.sets {
		folders = append(folders, folder)
	}
	sort.Strings(folders)
	return folders
}

// Candidates assembles every cached fingerprint of the given algorithm into
// matcher candidates, with trust flags resolved and per-identity folder
// counts filled in. exclude, when non-nil, drops individual files; the
// usual case is the target file itself.
func (l *Library) Candidates(alg fingerprint.Algorithm, exclude func(folder, file string) bool) []Candidate {
	l.mu.RLock()
	defer l.mu.RUnlock()

	// Folder count per file identity, over all folders holding a same-
	// algorithm fingerprint for it.
	folderCount := make(map[string]int)
	for _, set := range l.sets {
		for file, entry := range set.Entries {
			if entry.Vector.Algorithm == alg {
				folderCount[file]++
			}
		}
	}

	var candidates []Candidate
	for _, set := range l.sets {
		for file, entry := range set.Entries {
			if exclude != nil && exclude(set.Folder, file) {
				continue
			}
			candidates = append(candidates, Candidate{
				File:              file,
				Folder:            set.Folder,
				Vector:            entry.Vector,
				InReferenceFolder: set.Folder == l.referenceFolder && l.referenceFolder != "",
				FolderReference:   set.IsReference && set.Folder != l.referenceFolder,
				ReferenceSong:     entry.IsReferenceSong,
				FolderCount:       folderCount[file],
			})
		}
	}

	// Deterministic candidate order keeps diagnostics stable run to run.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Folder != candidates[j].Folder {
			return candidates[i].Folder < candidates[j].Folder
		}
		return candidates[i].File < candidates[j].File
	})
	return candidates
}
