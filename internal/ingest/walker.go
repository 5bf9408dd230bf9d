package ingest

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/contextdeck/contextdeck/internal/media"
)

// DefaultMaxFileSize is the maximum file size to ingest (32 MB).
const DefaultMaxFileSize int64 = 32 << 20

// File holds metadata about a single file discovered during traversal.
type File struct {
	Path    string     // Absolute path on disk.
	RelPath string     // Path relative to the root directory.
	Name    string     // Base name.
	Size    int64      // File size in bytes.
	Kind    media.Kind // Detected media kind.
}

// WalkConfig controls the behaviour of the Walk function.
type WalkConfig struct {
	RootDir     string   // Root directory to walk.
	Include     []string // Glob patterns, only matching files are included.
	Exclude     []string // Glob patterns, matching files are excluded.
	MaxFileSize int64    // Files larger than this are skipped (0 = use default).
}

// Walk traverses the directory tree rooted at config.RootDir and returns
// metadata for every file that passes filtering. It respects include/exclude
// patterns and honours a root .gitignore.
func Walk(config WalkConfig) ([]File, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("ingest: resolve root: %w", err)
	}

	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	gitignorePatterns := loadGitignore(filepath.Join(root, ".gitignore"))

	var files []File

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}

		name := d.Name()

		if d.IsDir() {
			if shouldExcludeDir(name) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if matchesGitignore(relPath, gitignorePatterns) {
			return nil
		}
		if !MatchesInclude(relPath, config.Include) {
			return nil
		}
		if MatchesExclude(relPath, config.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > maxSize {
			return nil
		}

		mimeType := mime.TypeByExtension(filepath.Ext(name))
		kind := media.DetectKind(mimeType, name)

		// An extensionless or mislabeled text file still annotates fine;
		// a binary one does not. Demote text files with binary content.
		if kind == media.KindText && isBinary(path) {
			kind = media.KindDocument
		}

		files = append(files, File{
			Path:    path,
			RelPath: filepath.ToSlash(relPath),
			Name:    name,
			Size:    info.Size(),
			Kind:    kind,
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("ingest: traversal: %w", err)
	}

	return files, nil
}

// isBinary reads the first 512 bytes of a file and checks for NUL bytes,
// which is a simple but effective heuristic for binary content.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return true
	}

	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			return true
		}
	}
	return false
}

// loadGitignore reads a .gitignore file and returns its non-empty,
// non-comment lines as patterns.
func loadGitignore(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// matchesGitignore checks a relative path against simple .gitignore
// patterns. Negation and anchoring are not supported.
func matchesGitignore(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	normalized := filepath.ToSlash(relPath)

	for _, pattern := range patterns {
		pattern = strings.TrimSuffix(strings.TrimPrefix(pattern, "/"), "/")
		if pattern == "" || strings.HasPrefix(pattern, "!") {
			continue
		}

		for _, segment := range strings.Split(normalized, "/") {
			if ok, err := filepath.Match(pattern, segment); err == nil && ok {
				return true
			}
		}
		if ok, err := filepath.Match(pattern, normalized); err == nil && ok {
			return true
		}
	}
	return false
}
