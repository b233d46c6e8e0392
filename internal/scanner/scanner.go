// Package scanner finds the Java files to analyze under a directory.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/panbanda/oometrics/pkg/config"
	"github.com/panbanda/oometrics/pkg/parser"
)

// Scanner finds source files in a directory.
type Scanner struct {
	config *config.Config

	// gitignore rules, matched against paths relative to gitRoot
	gitRoot   string
	gitignore gitignore.Matcher
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot finds the root of the git repository by looking for .git.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadGitignore reads every .gitignore of the repository containing root.
func (s *Scanner) loadGitignore(root string) {
	s.gitRoot, s.gitignore = "", nil
	if !s.config.Exclude.Gitignore {
		return
	}
	gitRoot := findGitRoot(root)
	if gitRoot == "" {
		return
	}
	patterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil)
	if err != nil || len(patterns) == 0 {
		return
	}
	s.gitRoot = gitRoot
	s.gitignore = gitignore.NewMatcher(patterns)
}

// isExcluded checks a path against gitignore rules and configured
// exclusions. rel is relative to the scan root.
func (s *Scanner) isExcluded(abs, rel string, isDir bool) bool {
	if rel != "." {
		check := rel
		if isDir {
			check += "/"
		}
		if s.config.ShouldExclude(check) || (!isDir && s.config.ShouldExclude(rel)) {
			return true
		}
	}

	if s.gitignore != nil {
		fromGit, err := filepath.Rel(s.gitRoot, abs)
		if err == nil && fromGit != "." && !strings.HasPrefix(fromGit, "..") {
			if s.gitignore.Match(strings.Split(filepath.ToSlash(fromGit), "/"), isDir) {
				return true
			}
		}
	}
	return false
}

// ScanDir recursively scans a directory for Java files.
// Symlinks that resolve outside the root are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 256)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadGitignore(absRoot)

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		rel, _ := filepath.Rel(absRoot, path)
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if s.isExcluded(path, rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isExcluded(path, rel, false) || !s.config.ShouldInclude(rel) {
			return nil
		}
		if parser.DetectLanguage(path) == parser.LangJava {
			files = append(files, path)
		}
		return nil
	})

	return files, walkErr
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// ScanFile checks if a single file should be analyzed. Explicitly named
// files bypass include globs but not exclusions.
func (s *Scanner) ScanFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	s.loadGitignore(filepath.Dir(abs))
	if s.isExcluded(abs, filepath.Base(abs), false) {
		return false, nil
	}

	return parser.DetectLanguage(path) == parser.LangJava, nil
}

// FilterTree selects Java files from a list of repository-relative paths,
// applying configured exclusions and include globs relative to dir.
func (s *Scanner) FilterTree(paths []string, dir string) []string {
	prefix := strings.Trim(filepath.ToSlash(dir), "/")
	if prefix == "." {
		prefix = ""
	}

	var out []string
	for _, p := range paths {
		rel := p
		if prefix != "" {
			rel = strings.TrimPrefix(p, prefix+"/")
		}
		if parser.DetectLanguage(p) != parser.LangJava {
			continue
		}
		if s.config.ShouldExclude(rel) || !s.config.ShouldInclude(rel) {
			continue
		}
		out = append(out, p)
	}
	return out
}
