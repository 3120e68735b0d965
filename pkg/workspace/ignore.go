package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFile is the project-local ignore file, read in addition to .gitignore.
const IgnoreFile = ".stackpilot/ignore"

// skippedDirs are never scanned, whatever the ignore files say.
var skippedDirs = []string{
	"node_modules",
	".git",
	"__pycache__",
	"venv",
	"env",
	".stackpilot",
}

// GetIgnoreRules combines the essential patterns, .gitignore, .stackpilot/ignore and a
// list of common build and cache outputs.
func GetIgnoreRules(rootDir string) *ignore.GitIgnore {
	var allLines []string

	for _, dir := range skippedDirs {
		allLines = append(allLines, dir+"/")
	}

	if content, err := os.ReadFile(filepath.Join(rootDir, ".gitignore")); err == nil {
		allLines = append(allLines, strings.Split(string(content), "\n")...)
	}
	if content, err := os.ReadFile(filepath.Join(rootDir, filepath.FromSlash(IgnoreFile))); err == nil {
		allLines = append(allLines, strings.Split(string(content), "\n")...)
	}

	allLines = append(allLines, getFallbackIgnorePatterns()...)

	var filteredLines []string
	for _, line := range allLines {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			filteredLines = append(filteredLines, line)
		}
	}

	return ignore.CompileIgnoreLines(filteredLines...)
}

// AddToIgnore appends pattern to the project's ignore file, creating it if needed.
// Patterns already present are not added twice.
func AddToIgnore(rootDir, pattern string) (string, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return "", fmt.Errorf("empty ignore pattern")
	}

	path := filepath.Join(rootDir, filepath.FromSlash(IgnoreFile))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if content, err := os.ReadFile(path); err == nil {
		for _, line := range strings.Split(string(content), "\n") {
			if strings.TrimSpace(line) == pattern {
				return path, nil
			}
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.WriteString(pattern + "\n"); err != nil {
		return "", err
	}
	return path, nil
}

// isSkippedDir reports whether a directory name is one of the always-skipped ones.
func isSkippedDir(name string) bool {
	for _, dir := range skippedDirs {
		if name == dir {
			return true
		}
	}
	return false
}

// getFallbackIgnorePatterns lists generated files that never help describe a stack.
func getFallbackIgnorePatterns() []string {
	return []string{
		// Editors and OS
		".DS_Store",
		".idea/",
		".vscode/",
		"*.swp",

		// Build output
		"build/",
		"dist/",
		"out/",
		"target/",
		"coverage/",
		".next/",
		".nuxt/",
		".parcel-cache/",
		".cache/",

		// Minified and generated sources
		"*.min.js",
		"*.min.css",
		"*.map",
		"*.bundle.js",

		// Python
		".venv/",
		"*.egg-info/",
		".pytest_cache/",
		".mypy_cache/",

		// Go
		"vendor/",
	}
}
