package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

const (
	minSamples       = 5
	fallbackMaxFiles = 10
	fallbackMaxChars = 2000
	defaultMaxFiles  = 20
	defaultMaxSizeKB = 150
)

// priorityFiles are read from the project root before the tree is walked.
var priorityFiles = []string{
	"package.json",
	"requirements.txt",
	"setup.py",
	"pyproject.toml",
	"go.mod",
	"index.js",
	"main.py",
	"main.go",
}

var sourceExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".html": true, ".css": true,
	".jsx": true, ".tsx": true, ".go": true,
}

var fallbackExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".jsx": true, ".tsx": true, ".go": true,
}

// Options bounds how much of the project is sampled.
type Options struct {
	MaxFiles  int
	MaxSizeKB int
}

// FileSample is a file read during indexing. Path is relative to the project root
// and uses forward slashes.
type FileSample struct {
	Path      string `json:"path"`
	Content   string `json:"-"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Project is an opened, indexed project directory.
type Project struct {
	Root         string       `json:"root"`
	Dependencies []string     `json:"dependencies"`
	Samples      []FileSample `json:"samples"`
}

// Open indexes root. It fails when root is not a directory.
func Open(root string, opts Options) (*Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid project path %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("invalid project path %q: not a directory", root)
	}

	if opts.MaxFiles <= 0 {
		opts.MaxFiles = defaultMaxFiles
	}
	if opts.MaxSizeKB <= 0 {
		opts.MaxSizeKB = defaultMaxSizeKB
	}

	p := &Project{Root: abs}
	p.Dependencies = ExtractDependencies(abs)
	if err := p.index(opts); err != nil {
		return nil, err
	}
	return p, nil
}

type sampler struct {
	root    string
	rules   *ignore.GitIgnore
	seen    map[string]bool
	samples []FileSample
}

func (p *Project) index(opts Options) error {
	s := &sampler{root: p.Root, rules: GetIgnoreRules(p.Root), seen: make(map[string]bool)}

	for _, name := range priorityFiles {
		path := filepath.Join(p.Root, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			s.add(path, 0)
		}
	}

	maxBytes := int64(opts.MaxSizeKB) * 1024
	err := s.walk(func(path string, info fs.FileInfo) bool {
		if len(s.samples) >= opts.MaxFiles {
			return false
		}
		if sourceExtensions[strings.ToLower(filepath.Ext(path))] && info.Size() < maxBytes {
			s.add(path, 0)
		}
		return true
	})
	if err != nil {
		return err
	}

	if len(s.samples) < minSamples {
		err = s.walk(func(path string, info fs.FileInfo) bool {
			if len(s.samples) >= fallbackMaxFiles {
				return false
			}
			if fallbackExtensions[strings.ToLower(filepath.Ext(path))] {
				s.add(path, fallbackMaxChars)
			}
			return true
		})
		if err != nil {
			return err
		}
	}

	p.Samples = s.samples
	return nil
}

var errStopWalk = errors.New("stop walking")

// walk visits regular files outside ignored paths in lexical order until visit
// returns false.
func (s *sampler) walk(visit func(path string, info fs.FileInfo) bool) error {
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped
			if d != nil && d.IsDir() && path != s.root {
				return filepath.SkipDir
			}
			return nil
		}
		if path == s.root {
			return nil
		}

		rel := s.rel(path)
		if d.IsDir() {
			if isSkippedDir(d.Name()) || s.rules.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || s.rules.MatchesPath(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if !visit(path, info) {
			return errStopWalk
		}
		return nil
	})
	if errors.Is(err, errStopWalk) {
		return nil
	}
	return err
}

func (s *sampler) rel(path string) string {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// add reads path once. limit > 0 truncates the content to that many bytes.
func (s *sampler) add(path string, limit int) {
	rel := s.rel(path)
	if s.seen[rel] {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	s.seen[rel] = true

	content := strings.ToValidUTF8(string(data), "\uFFFD")
	sample := FileSample{Path: rel, Content: content}
	if limit > 0 && len(content) > limit {
		sample.Content = truncate(content, limit)
		sample.Truncated = true
	}
	s.samples = append(s.samples, sample)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// Summary describes the project for planning prompts: dependencies and sampled files.
func (p *Project) Summary() string {
	var sb strings.Builder
	if len(p.Dependencies) > 0 {
		sb.WriteString("Dependencies: ")
		sb.WriteString(strings.Join(p.Dependencies, ", "))
		sb.WriteString("\n")
	}
	if len(p.Samples) > 0 {
		sb.WriteString("Files:\n")
		for _, sample := range p.Samples {
			sb.WriteString("- ")
			sb.WriteString(sample.Path)
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
