// Command inspect_cache dumps a folder's fingerprint cache and reports
// entries whose source file no longer exists. Stale entries are only removed
// when -cleanup is given; nothing is deleted automatically.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"takematch/audio"
	"takematch/cache"
	"takematch/config"
)

func main() {
	folder := flag.String("folder", "", "Practice folder to inspect")
	cleanup := flag.Bool("cleanup", false, "Remove entries for deleted files and save")
	flag.Parse()

	if *folder == "" {
		log.Fatal("Usage: inspect_cache -folder <directory> [-cleanup]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	fpCache := cache.NewWithFileName(audio.DecodeFile, cfg.CacheFileName)
	set := fpCache.LoadAll(*folder)

	if set.IsReference {
		log.Printf("%s (reference folder): %d entries", *folder, len(set.Entries))
	} else {
		log.Printf("%s: %d entries", *folder, len(set.Entries))
	}

	var stale []string
	for _, file := range set.Files() {
		entry := set.Entries[file]
		marker := ""
		if entry.IsReferenceSong {
			marker = " [reference song]"
		}
		if _, err := os.Stat(filepath.Join(*folder, file)); os.IsNotExist(err) {
			marker += " [stale]"
			stale = append(stale, file)
		}
		log.Printf("  %s: %s, %d values, %d bytes%s",
			file, entry.Vector.Algorithm, entry.Vector.Len(), entry.Signature.Size, marker)
	}

	if len(stale) == 0 {
		log.Printf("no stale entries")
		return
	}

	if !*cleanup {
		log.Printf("%d stale entries; rerun with -cleanup to remove them", len(stale))
		return
	}

	removed := fpCache.RemoveStale(set)
	if err := fpCache.Save(*folder, set); err != nil {
		log.Fatalf("failed to save cache: %v", err)
	}
	log.Printf("removed %d stale entries", len(removed))
}
