// Package source provides file content from the working tree or from a git
// revision.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/panbanda/oometrics/internal/vcs"
)

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct{}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// TreeSource reads files from a git tree. Paths are relative to the
// repository root, slash separated.
// It is safe for concurrent use by multiple goroutines.
type TreeSource struct {
	tree vcs.Tree
	mu   sync.Mutex
}

// NewTree creates a source that reads from a git tree.
func NewTree(tree vcs.Tree) *TreeSource {
	return &TreeSource{tree: tree}
}

// Read implements ContentSource.
func (t *TreeSource) Read(path string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.File(filepath.ToSlash(path))
}

// Files lists the files of the tree under dir ("" or "." for all).
func (t *TreeSource) Files(dir string) ([]string, error) {
	t.mu.Lock()
	entries, err := t.tree.Entries()
	t.mu.Unlock()
	if err != nil {
		return nil, err
	}

	prefix := strings.Trim(filepath.ToSlash(dir), "/")
	if prefix == "." {
		prefix = ""
	}
	var files []string
	for _, e := range entries {
		if prefix == "" || e.Path == prefix || strings.HasPrefix(e.Path, prefix+"/") {
			files = append(files, e.Path)
		}
	}
	return files, nil
}

// Revision is a git revision opened for reading.
type Revision struct {
	*TreeSource
	// Root is the repository work tree root.
	Root string
	// Dir is the requested path relative to Root.
	Dir string
	// Hash is the resolved commit.
	Hash string
}

// OpenRevision opens the repository containing path and resolves rev.
func OpenRevision(path, rev string) (*Revision, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	repo, err := vcs.DefaultOpener().PlainOpenWithDetect(abs)
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", path, err)
	}
	commit, err := repo.Resolve(rev)
	if err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree of %s: %w", rev, err)
	}

	root, err := filepath.EvalSymlinks(repo.RepoPath())
	if err != nil {
		root = repo.RepoPath()
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	dir, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(dir, "..") {
		return nil, fmt.Errorf("%s is outside repository %s", path, root)
	}

	return &Revision{
		TreeSource: NewTree(tree),
		Root:       root,
		Dir:        filepath.ToSlash(dir),
		Hash:       commit.Hash().String(),
	}, nil
}
