// =============================================================================
// Nota Fiscal Generator - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for generated documents:
//   - Directory management
//   - Output file naming
//   - Retention sweeps for old generated files
//
// OUTPUT NAMING:
//   Files are named "<prefix>_<suffix>.xml" where the suffix is a random
//   unsigned 64-bit number drawn from its own UUID, independent of the
//   document identifier written inside the file.
//
// =============================================================================

package utils

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all given directories if they don't exist.
func EnsureDirectories(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// NewFileSuffix returns the high 64 bits of a fresh random UUID.
func NewFileSuffix() (uint64, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return 0, fmt.Errorf("failed to generate file suffix: %w", err)
	}
	return SuffixFromUUID(u), nil
}

// SuffixFromUUID takes the high 64 bits of u.
func SuffixFromUUID(u uuid.UUID) uint64 {
	return binary.BigEndian.Uint64(u[:8])
}

// OutputFileName builds "<prefix>_<suffix>.xml".
//
// EXAMPLE:
//   OutputFileName("generated_nota_fiscal", 42)
//   output: "generated_nota_fiscal_42.xml"
func OutputFileName(prefix string, suffix uint64) string {
	return fmt.Sprintf("%s_%d.xml", prefix, suffix)
}

// IsOutputFile reports whether name looks like a file produced with prefix.
func IsOutputFile(prefix, name string) bool {
	digits, ok := strings.CutPrefix(name, prefix+"_")
	if !ok {
		return false
	}
	digits, ok = strings.CutSuffix(digits, ".xml")
	if !ok || digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// =============================================================================
// RETENTION
// =============================================================================

// CleanOldOutputs removes generated files older than maxAge from dir. Only
// files whose names match the output pattern for prefix are touched, and
// subdirectories are not visited.
//
// RETURNS:
//   - The number of files removed.
//   - An error if the directory cannot be read or a file cannot be removed.
func CleanOldOutputs(dir, prefix string, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to clean outputs: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !IsOutputFile(prefix, entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return removed, fmt.Errorf("failed to clean outputs: %w", err)
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return removed, fmt.Errorf("failed to clean outputs: %w", err)
		}
		removed++
	}

	return removed, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
