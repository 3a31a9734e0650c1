// Package db persists a library-wide index of folder fingerprint sets in
// SQLite. The per-folder JSON caches remain the source of truth; the index
// exists so large libraries can assemble match candidates without walking
// every folder on disk.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration

	"takematch/cache"
	"takematch/fingerprint"
	"takematch/utils"
)

type Client struct {
	db *sql.DB
}

func NewClient(dataSourceName string) (*Client, error) {
	// Extract the file path before query parameters
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}

	dbDir := filepath.Dir(dbPath)
	if dbDir != "." && dbDir != "" {
		if err := utils.CreateFolder(dbDir); err != nil {
			return nil, fmt.Errorf("error creating database directory: %s", err)
		}
	}

	// Add busy timeout param to DSN (milliseconds)
	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000"
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %s", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("error creating tables: %s", err)
	}

	return &Client{db: db}, nil
}

func createTables(db *sql.DB) error {
	createFoldersTable := `
    CREATE TABLE IF NOT EXISTS folders (
        path TEXT PRIMARY KEY,
        is_reference INTEGER NOT NULL DEFAULT 0
    );
    `

	createEntriesTable := `
    CREATE TABLE IF NOT EXISTS entries (
        folder TEXT NOT NULL,
        file TEXT NOT NULL,
        algorithm TEXT NOT NULL,
        sig_size INTEGER NOT NULL,
        sig_mod_time_ns INTEGER NOT NULL,
        sig_sha256 TEXT,
        vector TEXT NOT NULL,
        is_reference_song INTEGER NOT NULL DEFAULT 0,
        PRIMARY KEY (folder, file, algorithm)
    );
    CREATE INDEX IF NOT EXISTS idx_entries_file ON entries(file);
    `

	if _, err := db.Exec(createFoldersTable); err != nil {
		return fmt.Errorf("error creating folders table: %s", err)
	}
	if _, err := db.Exec(createEntriesTable); err != nil {
		return fmt.Errorf("error creating entries table: %s", err)
	}

	return nil
}

func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// UpsertFolder replaces the indexed copy of one folder's set in a single
// transaction, so readers never observe a half-written folder.
func (c *Client) UpsertFolder(set *cache.FolderSet) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %s", err)
	}

	isReference := 0
	if set.IsReference {
		isReference = 1
	}
	if _, err := tx.Exec("INSERT OR REPLACE INTO folders (path, is_reference) VALUES (?, ?)",
		set.Folder, isReference); err != nil {
		tx.Rollback()
		return fmt.Errorf("error upserting folder: %s", err)
	}

	if _, err := tx.Exec("DELETE FROM entries WHERE folder = ?", set.Folder); err != nil {
		tx.Rollback()
		return fmt.Errorf("error clearing folder entries: %s", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO entries
        (folder, file, algorithm, sig_size, sig_mod_time_ns, sig_sha256, vector, is_reference_song)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("error preparing statement: %s", err)
	}
	defer stmt.Close()

	for _, entry := range set.Entries {
		vectorJSON, err := json.Marshal(entry.Vector.Values)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("error marshaling vector: %s", err)
		}
		isRefSong := 0
		if entry.IsReferenceSong {
			isRefSong = 1
		}
		if _, err := stmt.Exec(
			set.Folder,
			entry.File,
			entry.Vector.Algorithm.String(),
			entry.Signature.Size,
			entry.Signature.ModTimeNs,
			entry.Signature.SHA256,
			string(vectorJSON),
			isRefSong,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("error inserting entry: %s", err)
		}
	}

	return tx.Commit()
}

// LoadLibrary reads every indexed folder set back out.
func (c *Client) LoadLibrary() ([]*cache.FolderSet, error) {
	folderRows, err := c.db.Query("SELECT path, is_reference FROM folders ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("error querying folders: %s", err)
	}

	sets := make(map[string]*cache.FolderSet)
	var order []string
	for folderRows.Next() {
		var path string
		var isReference int
		if err := folderRows.Scan(&path, &isReference); err != nil {
			folderRows.Close()
			return nil, fmt.Errorf("error scanning folder row: %s", err)
		}
		set := cache.NewFolderSet(path)
		set.IsReference = isReference == 1
		sets[path] = set
		order = append(order, path)
	}
	folderRows.Close()

	rows, err := c.db.Query(`SELECT folder, file, algorithm, sig_size, sig_mod_time_ns,
        sig_sha256, vector, is_reference_song FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("error querying entries: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var folder, file, algorithm, sha, vectorJSON string
		var sigSize, sigModTimeNs int64
		var isRefSong int
		if err := rows.Scan(&folder, &file, &algorithm, &sigSize, &sigModTimeNs,
			&sha, &vectorJSON, &isRefSong); err != nil {
			return nil, fmt.Errorf("error scanning entry row: %s", err)
		}

		alg, err := fingerprint.ParseAlgorithm(algorithm)
		if err != nil {
			return nil, fmt.Errorf("error reading entry algorithm: %s", err)
		}
		var values []float64
		if err := json.Unmarshal([]byte(vectorJSON), &values); err != nil {
			return nil, fmt.Errorf("error unmarshaling vector: %s", err)
		}

		set, ok := sets[folder]
		if !ok {
			set = cache.NewFolderSet(folder)
			sets[folder] = set
			order = append(order, folder)
		}
		set.Entries[file] = cache.Entry{
			File: file,
			Signature: cache.Signature{
				Size:      sigSize,
				ModTimeNs: sigModTimeNs,
				SHA256:    sha,
			},
			Vector:          fingerprint.Vector{Algorithm: alg, Values: values},
			IsReferenceSong: isRefSong == 1,
		}
	}

	result := make([]*cache.FolderSet, 0, len(order))
	for _, path := range order {
		result = append(result, sets[path])
	}
	return result, nil
}

// TotalEntries counts indexed fingerprints across all folders.
func (c *Client) TotalEntries() (int, error) {
	var count int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting entries: %s", err)
	}
	return count, nil
}
