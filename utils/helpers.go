package utils

import (
	"fmt"
	"math/rand"
	"os"
)

// CreateFolder creates a directory (and parents) if it does not already exist.
func CreateFolder(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create folder %q: %w", path, err)
	}
	return nil
}

// GenerateUniqueID returns a random 32-bit identifier for transient objects
// such as batch runs and temp files.
func GenerateUniqueID() uint32 {
	return rand.Uint32()
}
