// Command automatch suggests names for unlabeled recordings in a target
// folder by matching their fingerprints against every session folder under a
// library root. It prints suggestions only; nothing is renamed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/mdobak/go-xerrors"

	"takematch/audio"
	"takematch/cache"
	"takematch/config"
	"takematch/fingerprint"
	"takematch/match"
	"takematch/utils"
)

func main() {
	targetDir := flag.String("target", "", "Folder containing the unlabeled recordings")
	rootDir := flag.String("root", "", "Library root containing all session folders")
	thresholdArg := flag.String("threshold", "", "Match threshold, 0-1 or 0-100 (default from env, 0.80)")
	algorithmName := flag.String("algorithm", "", "Fingerprint algorithm")
	referenceDir := flag.String("reference", "", "Global reference folder (its matches get a trust boost)")
	showDiagnostics := flag.Bool("diagnostics", false, "Print the full match diagnostics as JSON")
	flag.Parse()

	if *targetDir == "" || *rootDir == "" {
		log.Fatal("Usage: automatch -target <folder> -root <library> [-threshold 0.8] [-algorithm spectral] [-reference <folder>] [-diagnostics]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	alg := cfg.Algorithm
	if *algorithmName != "" {
		alg, err = fingerprint.ParseAlgorithm(*algorithmName)
		if err != nil {
			log.Fatalf("invalid algorithm: %v", err)
		}
	}
	threshold := cfg.Threshold
	if *thresholdArg != "" {
		threshold, err = config.ParseThreshold(*thresholdArg)
		if err != nil {
			log.Fatalf("invalid threshold: %v", err)
		}
	}
	reference := cfg.ReferenceFolder
	if *referenceDir != "" {
		reference = *referenceDir
	}

	logger := utils.GetLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	folders, err := discoverFolders(*rootDir)
	if err != nil {
		log.Fatalf("failed to read library root: %v", err)
	}
	if !containsFolder(folders, *targetDir) {
		folders = append(folders, *targetDir)
	}

	fpCache := cache.NewWithFileName(audio.DecodeFile, cfg.CacheFileName)
	loader, err := cache.NewLoader(fpCache, len(folders))
	if err != nil {
		log.Fatalf("failed to create loader: %v", err)
	}

	library := match.NewLibrary()
	library.AddAll(loader.LoadAll(ctx, folders, 0))
	library.SetReferenceFolder(reference)

	targetSet := fpCache.LoadAll(*targetDir)
	files, err := cache.ListAudioFiles(*targetDir)
	if err != nil {
		log.Fatalf("failed to read target folder: %v", err)
	}

	matcher := match.NewMatcher()
	suggested, unmatched := 0, 0

	for _, file := range files {
		if ctx.Err() != nil {
			break
		}

		vector, err := fpCache.GetOrGenerate(targetSet, file, alg)
		if err != nil {
			log.Printf("could not fingerprint %s: %v", file, err)
			continue
		}

		// The target's own cache entry is also in the library; don't let a
		// file match itself.
		candidates := library.Candidates(alg, func(folder, candidate string) bool {
			return folder == *targetDir && candidate == file
		})

		result, diag, err := matcher.FindBestMatch(file, vector, candidates, threshold)
		if err != nil {
			logger.ErrorContext(ctx, "match query failed",
				slog.String("file", file),
				slog.Any("error", xerrors.New(err)))
			continue
		}

		if *showDiagnostics {
			if data, err := json.MarshalIndent(diag, "", "  "); err == nil {
				log.Printf("diagnostics for %s:\n%s", file, data)
			}
		}

		if result == nil {
			unmatched++
			log.Printf("%s: no match above %.0f%% (%d candidates)", file, threshold*100, diag.CandidateCount)
			continue
		}

		suggested++
		marker := ""
		if result.IsReference {
			marker = " [reference]"
		}
		log.Printf("%s -> %s (%.1f%% similar, from %s)%s",
			file, result.MatchedFile, result.RawScore*100,
			filepath.Base(result.MatchedFolder), marker)
	}

	// Persist fingerprints generated for the target folder along the way.
	if err := fpCache.Save(*targetDir, targetSet); err != nil {
		logger.ErrorContext(ctx, "failed to save target cache", slog.Any("error", xerrors.New(err)))
	}

	log.Printf("done: %d suggested, %d unmatched", suggested, unmatched)
}

func discoverFolders(rootDir string) ([]string, error) {
	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return nil, err
	}

	var folders []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		folders = append(folders, filepath.Join(rootDir, entry.Name()))
	}
	return folders, nil
}

func containsFolder(folders []string, folder string) bool {
	for _, f := range folders {
		if f == folder {
			return true
		}
	}
	return false
}
