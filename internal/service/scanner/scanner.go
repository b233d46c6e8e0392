// Package scanner resolves command line paths into the Java files to
// analyze, from the working tree or from a git revision.
package scanner

import (
	"os"
	"path/filepath"

	"github.com/panbanda/oometrics/internal/scanner"
	"github.com/panbanda/oometrics/internal/vcs"
	"github.com/panbanda/oometrics/pkg/analyzer"
	"github.com/panbanda/oometrics/pkg/config"
	"github.com/panbanda/oometrics/pkg/source"
)

// ScanResult contains the result of a file scan.
type ScanResult struct {
	Files []string
	// Source reads the listed files.
	Source analyzer.ContentSource
	// RepoRoot is the enclosing git work tree, empty outside a repository.
	RepoRoot string
	// Revision is the resolved commit when scanning a git revision.
	Revision string
}

// Service provides file scanning functionality.
type Service struct {
	config *config.Config
	opener vcs.Opener
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithOpener sets the VCS opener (for testing).
func WithOpener(opener vcs.Opener) Option {
	return func(s *Service) {
		s.opener = opener
	}
}

// New creates a new scanner service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.DefaultConfig(),
		opener: vcs.DefaultOpener(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanPaths scans files and directories in the working tree.
func (s *Service) ScanPaths(paths []string) (*ScanResult, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	scan := scanner.NewScanner(s.config)
	var files []string
	seen := make(map[string]bool)

	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, &PathError{Path: path, Err: err}
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, &PathError{Path: path, Err: err}
		}

		var found []string
		if info.IsDir() {
			found, err = scan.ScanDir(absPath)
			if err != nil {
				return nil, &ScanError{Path: path, Err: err}
			}
		} else {
			ok, err := scan.ScanFile(absPath)
			if err != nil {
				return nil, &ScanError{Path: path, Err: err}
			}
			if ok {
				found = []string{absPath}
			}
		}

		for _, f := range found {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}

	result := &ScanResult{
		Files:  files,
		Source: source.NewFilesystem(),
	}
	if root, err := s.findGitRoot(paths[0]); err == nil {
		result.RepoRoot = root
	}
	return result, nil
}

// ScanRevision lists the Java files under path as they were at rev.
// Returned paths are relative to the repository root.
func (s *Service) ScanRevision(path, rev string) (*ScanResult, error) {
	if path == "" {
		path = "."
	}
	if _, err := s.findGitRoot(path); err != nil {
		return nil, &GitError{Err: err}
	}

	revision, err := source.OpenRevision(path, rev)
	if err != nil {
		return nil, &ScanError{Path: path, Err: err}
	}
	entries, err := revision.Files(revision.Dir)
	if err != nil {
		return nil, &ScanError{Path: path, Err: err}
	}

	return &ScanResult{
		Files:    scanner.NewScanner(s.config).FilterTree(entries, revision.Dir),
		Source:   revision,
		RepoRoot: revision.Root,
		Revision: revision.Hash,
	}, nil
}

// findGitRoot finds the git repository root containing the given path.
func (s *Service) findGitRoot(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	repo, err := s.opener.PlainOpenWithDetect(absPath)
	if err != nil {
		return "", err
	}
	return repo.RepoPath(), nil
}

// PathError indicates an invalid path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return "invalid path " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ScanError indicates a scanning failure.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return "failed to scan " + e.Path + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// GitError indicates the path is not a git repository.
type GitError struct {
	Err error
}

func (e *GitError) Error() string {
	return "not a git repository (or any parent): " + e.Err.Error()
}

func (e *GitError) Unwrap() error {
	return e.Err
}
