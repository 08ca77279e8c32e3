package buildkit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// locateBundle finds the binary the packager actually produced. Packagers
// are not always faithful to the requested output name, so the search order
// is:
//
//  1. the requested name exactly
//  2. the requested name with an ".exe" suffix added or removed
//  3. the newest regular file in the output directory whose name starts
//     with the requested name's stem
func locateBundle(outputDir, requested string) (string, error) {
	exact := filepath.Join(outputDir, requested)
	if isRegularFile(exact) {
		return exact, nil
	}

	var variant string
	if strings.EqualFold(filepath.Ext(requested), ".exe") {
		variant = stripExeSuffix(requested)
	} else {
		variant = requested + ".exe"
	}
	if path := filepath.Join(outputDir, variant); isRegularFile(path) {
		return path, nil
	}

	stem := stripExeSuffix(requested)
	newest, err := newestWithPrefix(outputDir, stem)
	if err != nil {
		return "", fmt.Errorf("inspect packager outputs: %w", err)
	}
	if newest != "" {
		return newest, nil
	}

	return "", fmt.Errorf("bundle not found after build: %s", exact)
}

// stripExeSuffix removes a trailing ".exe" only. Version strings contain
// dots, so generic extension stripping would truncate the name.
func stripExeSuffix(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".exe") {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func newestWithPrefix(dir, prefix string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}

	var (
		best     string
		bestTime time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestTime) {
			best = filepath.Join(dir, entry.Name())
			bestTime = info.ModTime()
		}
	}
	return best, nil
}
