package cache

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"takematch/fingerprint"
)

// FileError is one per-file generation failure. Failures surface per file;
// the rest of the batch continues.
type FileError struct {
	File string
	Err  error
}

// BatchReport summarises one generation pass over a folder.
type BatchReport struct {
	Folder    string
	Generated int
	Cached    int
	Failed    []FileError
	Cancelled bool
}

var audioExtensions = map[string]bool{
	".wav": true,
	".mp3": true,
}

// ListAudioFiles returns the audio filenames in a folder, sorted, skipping
// hidden files (including the cache file itself).
func ListAudioFiles(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if audioExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}

// GenerateFolder fingerprints every audio file in a folder through a bounded
// worker pool. Files whose cached signature still matches are untouched.
// Generation is cancellable: on ctx cancellation the completed entries are
// still persisted, nothing is rolled back, and the not-yet-computed files
// are simply retried on the next pass.
//
// workers <= 0 means one worker per CPU core.
func (c *Cache) GenerateFolder(ctx context.Context, folder string, alg fingerprint.Algorithm, workers int) (*FolderSet, *BatchReport, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	set := c.LoadAll(folder)
	report := &BatchReport{Folder: folder}

	files, err := ListAudioFiles(folder)
	if err != nil {
		return set, report, err
	}

	// Split cached from pending up front; only pending files hit the pool.
	// Reference flags are snapshotted here so workers never touch the set
	// while the collector below is writing it.
	var pending []string
	wasReference := make(map[string]bool)
	for _, file := range files {
		sig, err := FileSignature(filepath.Join(folder, file))
		if err != nil {
			report.Failed = append(report.Failed, FileError{File: file, Err: err})
			continue
		}
		if entry, ok := set.Entries[file]; ok &&
			entry.Vector.Algorithm == alg && entry.Signature.Matches(sig) {
			report.Cached++
			continue
		}
		pending = append(pending, file)
		wasReference[file] = set.Entries[file].IsReferenceSong
	}

	type outcome struct {
		file  string
		entry Entry
		err   error
	}

	jobs := make(chan string)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range jobs {
				entry, err := c.generateOne(set.Folder, file, alg, wasReference[file])
				results <- outcome{file: file, entry: entry, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, file := range pending {
			select {
			case jobs <- file:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Single collector applies results; the set has exactly one writer.
	for res := range results {
		if res.err != nil {
			report.Failed = append(report.Failed, FileError{File: res.file, Err: res.err})
			c.logger.Warn("could not fingerprint file",
				slog.String("folder", folder),
				slog.String("file", res.file),
				slog.Any("error", res.err))
			continue
		}
		set.Entries[res.file] = res.entry
		report.Generated++
	}

	if ctx.Err() != nil {
		report.Cancelled = true
	}

	// Persist whatever completed, cancelled or not.
	if err := c.Save(folder, set); err != nil {
		return set, report, err
	}
	return set, report, ctx.Err()
}

func (c *Cache) generateOne(folder, file string, alg fingerprint.Algorithm, wasReference bool) (Entry, error) {
	path := filepath.Join(folder, file)

	sig, err := FileSignature(path)
	if err != nil {
		return Entry{}, err
	}
	samples, sampleRate, err := c.decode(path)
	if err != nil {
		return Entry{}, err
	}
	vector, err := fingerprint.Generate(samples, sampleRate, alg)
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		File:            file,
		Signature:       sig,
		Vector:          vector,
		IsReferenceSong: wasReference,
	}, nil
}
