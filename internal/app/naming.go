package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// FallbackName is used when a directory name sanitizes to nothing.
	FallbackName = "PixTrail"
	gpxExt       = ".gpx"
)

// SanitizeName keeps letters, digits, spaces, underscores and hyphens and trims
// surrounding spaces. It never returns an empty string.
func SanitizeName(name string) string {
	name = norm.NFC.String(name)

	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == ' ' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return FallbackName
	}
	return out
}

// OutputName returns the GPX file name derived from a directory's base name.
func OutputName(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return SanitizeName(filepath.Base(filepath.Clean(dir))) + gpxExt
}

// DefaultOutputPath places the auto-named GPX file inside the input directory.
func DefaultOutputPath(inputDir string) string {
	return filepath.Join(inputDir, OutputName(inputDir))
}

// EnsureDirectory creates dir when missing and verifies it accepts new files.
func EnsureDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	check, err := os.CreateTemp(dir, ".pixtrail-check-*")
	if err != nil {
		return fmt.Errorf("directory %s is not writable: %w", dir, err)
	}
	name := check.Name()
	_ = check.Close()
	_ = os.Remove(name)
	return nil
}

// uniquePaths resolves collisions so no two entries share a destination.
// Comparison is case-insensitive; later duplicates get a "-2", "-3" suffix.
func uniquePaths(paths []string) []string {
	out := make([]string, len(paths))
	taken := make(map[string]struct{}, len(paths))
	key := func(p string) string {
		return strings.ToLower(filepath.Clean(p))
	}
	for _, p := range paths {
		taken[key(p)] = struct{}{}
	}

	seen := make(map[string]struct{}, len(paths))
	for i, p := range paths {
		k := key(p)
		if _, dup := seen[k]; !dup {
			seen[k] = struct{}{}
			out[i] = p
			continue
		}
		base := strings.TrimSuffix(p, filepath.Ext(p))
		ext := filepath.Ext(p)
		for n := 2; ; n++ {
			candidate := fmt.Sprintf("%s-%d%s", base, n, ext)
			ck := key(candidate)
			if _, used := taken[ck]; used {
				continue
			}
			taken[ck] = struct{}{}
			seen[ck] = struct{}{}
			out[i] = candidate
			break
		}
	}
	return out
}
