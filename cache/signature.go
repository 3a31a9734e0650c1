package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Signature is a lightweight content marker of the source audio file, used
// only to detect whether the file changed since it was last fingerprinted.
// It is never the audio fingerprint itself, and invalidation is purely
// signature-based: an unmodified file is never regenerated.
type Signature struct {
	Size      int64  `json:"size"`
	ModTimeNs int64  `json:"modTimeNs"`
	SHA256    string `json:"sha256,omitempty"`
}

// FileSignature computes the stat-based signature (size + mtime). A stat is
// cheap enough to run on every cache lookup.
func FileSignature(path string) (Signature, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Signature{}, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	return Signature{
		Size:      info.Size(),
		ModTimeNs: info.ModTime().UnixNano(),
	}, nil
}

// ContentSignature additionally hashes the file contents, for callers that
// need invalidation robust to tools rewriting files with preserved mtimes.
func ContentSignature(path string) (Signature, error) {
	sig, err := FileSignature(path)
	if err != nil {
		return Signature{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return Signature{}, fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return Signature{}, fmt.Errorf("failed to hash %q: %w", path, err)
	}
	sig.SHA256 = hex.EncodeToString(h.Sum(nil))
	return sig, nil
}

// Matches reports whether two signatures identify the same file content.
// When both carry a content hash the hash decides; otherwise size + mtime.
func (s Signature) Matches(other Signature) bool {
	if s.SHA256 != "" && other.SHA256 != "" {
		return s.SHA256 == other.SHA256
	}
	return s.Size == other.Size && s.ModTimeNs == other.ModTimeNs
}
