// Command fingerprint_folders walks a root directory of practice-session
// folders and builds or refreshes each folder's fingerprint cache. Already
// fingerprinted, unmodified files are skipped; interrupting the run keeps
// everything completed so far.
package main

import (
	"context"
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
	"takematch/db"
	"takematch/fingerprint"
	"takematch/utils"
)

func main() {
	rootDir := flag.String("dir", "", "Root directory containing practice-session folders")
	algorithmName := flag.String("algorithm", "", "Fingerprint algorithm (spectral, lightweight, chroma, constellation)")
	workers := flag.Int("workers", 0, "Worker count (0 = one per CPU core)")
	dbPath := flag.String("db", "", "Optional SQLite library index to populate")
	flag.Parse()

	if *rootDir == "" {
		log.Fatal("Usage: fingerprint_folders -dir <directory> [-algorithm spectral] [-workers N] [-db index.db]\n\n" +
			"Example structure:\n" +
			"  sessions/\n" +
			"    2026-01-10/\n" +
			"      Track 01.wav\n" +
			"      Track 02.wav\n" +
			"    2026-01-17/\n" +
			"      Track 01.wav\n")
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
	if *dbPath == "" {
		*dbPath = cfg.DBPath
	}
	if *workers == 0 {
		*workers = cfg.Workers
	}

	folders, err := discoverFolders(*rootDir)
	if err != nil {
		log.Fatalf("failed to read directory: %v", err)
	}
	if len(folders) == 0 {
		log.Fatalf("no session folders found in %s", *rootDir)
	}

	logger := utils.GetLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var index *db.Client
	if *dbPath != "" {
		index, err = db.NewClient(*dbPath)
		if err != nil {
			logger.ErrorContext(ctx, "failed to open library index", slog.Any("error", xerrors.New(err)))
			os.Exit(1)
		}
		defer index.Close()
	}

	fpCache := cache.NewWithFileName(audio.DecodeFile, cfg.CacheFileName)

	totalGenerated, totalCached, totalFailed := 0, 0, 0
	for _, folder := range folders {
		set, report, err := fpCache.GenerateFolder(ctx, folder, alg, *workers)
		if err != nil && !report.Cancelled {
			logger.ErrorContext(ctx, "folder generation failed",
				slog.String("folder", folder),
				slog.Any("error", xerrors.New(err)))
			continue
		}

		for _, failure := range report.Failed {
			log.Printf("  could not fingerprint %s: %v", failure.File, failure.Err)
		}
		log.Printf("%s: %d generated, %d cached, %d failed",
			filepath.Base(folder), report.Generated, report.Cached, len(report.Failed))

		totalGenerated += report.Generated
		totalCached += report.Cached
		totalFailed += len(report.Failed)

		if index != nil {
			if err := index.UpsertFolder(set); err != nil {
				logger.ErrorContext(ctx, "failed to index folder",
					slog.String("folder", folder),
					slog.Any("error", xerrors.New(err)))
			}
		}

		if report.Cancelled {
			log.Printf("interrupted; completed fingerprints were saved")
			break
		}
	}

	log.Printf("done: %d generated, %d cached, %d failed across %d folders",
		totalGenerated, totalCached, totalFailed, len(folders))
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
