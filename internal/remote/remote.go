// Package remote resolves repository references like owner/repo@ref and
// clones them into a temporary directory for analysis.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Source represents a remote repository to analyze.
type Source struct {
	URL      string // normalized git URL
	Ref      string // branch, tag, or SHA (empty = default branch)
	CloneDir string // temp directory after clone
}

// Parse detects if a path is a remote reference.
// Returns nil if path exists on filesystem (local path takes precedence).
func Parse(path string) (*Source, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, nil
	}

	url, ref := splitRef(path)

	switch {
	case strings.HasPrefix(url, "https://"), strings.HasPrefix(url, "http://"),
		strings.HasPrefix(url, "ssh://"), strings.HasPrefix(url, "file://"),
		strings.HasPrefix(url, "git@"):
		return &Source{URL: url, Ref: ref}, nil
	case strings.HasPrefix(url, "github.com/"), strings.HasPrefix(url, "gitlab.com/"),
		strings.HasPrefix(url, "bitbucket.org/"):
		return &Source{URL: "https://" + url, Ref: ref}, nil
	case isGitHubShorthand(url):
		return &Source{URL: "https://github.com/" + url, Ref: ref}, nil
	}
	return nil, nil
}

// splitRef separates a trailing @ref. The user part of an SSH address
// (git@host:...) is not a ref.
func splitRef(path string) (string, string) {
	offset := 0
	if strings.HasPrefix(path, "git@") {
		offset = strings.Index(path, ":") + 1
	}
	if idx := strings.LastIndex(path[offset:], "@"); idx != -1 {
		idx += offset
		return path[:idx], path[idx+1:]
	}
	return path, ""
}

// isGitHubShorthand returns true if path matches owner/repo pattern.
func isGitHubShorthand(path string) bool {
	slashIdx := strings.Index(path, "/")
	if slashIdx == -1 {
		return false
	}
	// Must have exactly one slash
	if strings.Count(path, "/") != 1 {
		return false
	}
	// No dots before the slash (would indicate a domain)
	if strings.Contains(path[:slashIdx], ".") {
		return false
	}
	return slashIdx > 0 && slashIdx < len(path)-1
}

// Clone fetches the repository into a new temporary directory and checks
// out Ref. Branches and tags are tried first; anything else is treated as
// a commit, which needs full history, so shallow is ignored for it.
func (s *Source) Clone(ctx context.Context, progress io.Writer, shallow bool) error {
	dir, err := os.MkdirTemp("", "oometrics-clone-*")
	if err != nil {
		return fmt.Errorf("create clone dir: %w", err)
	}
	s.CloneDir = dir

	opts := &git.CloneOptions{
		URL:      s.URL,
		Progress: progress,
	}
	if shallow {
		opts.Depth = 1
		opts.SingleBranch = true
	}

	if s.Ref == "" {
		if _, err := git.PlainCloneContext(ctx, dir, false, opts); err != nil {
			return s.fail(err)
		}
		return nil
	}

	for _, name := range []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(s.Ref),
		plumbing.NewTagReferenceName(s.Ref),
	} {
		opts.ReferenceName = name
		_, err := git.PlainCloneContext(ctx, dir, false, opts)
		if err == nil {
			return nil
		}
		if !isMissingRef(err) {
			return s.fail(err)
		}
		if err := s.reset(); err != nil {
			return err
		}
	}

	return s.checkoutCommit(ctx, progress)
}

func (s *Source) checkoutCommit(ctx context.Context, progress io.Writer) error {
	repo, err := git.PlainCloneContext(ctx, s.CloneDir, false, &git.CloneOptions{
		URL:      s.URL,
		Progress: progress,
	})
	if err != nil {
		return s.fail(err)
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(s.Ref))
	if err != nil {
		return s.fail(fmt.Errorf("resolve %s: %w", s.Ref, err))
	}
	wt, err := repo.Worktree()
	if err != nil {
		return s.fail(err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: *hash}); err != nil {
		return s.fail(fmt.Errorf("checkout %s: %w", s.Ref, err))
	}
	return nil
}

func isMissingRef(err error) bool {
	var noMatch git.NoMatchingRefSpecError
	return errors.As(err, &noMatch) || errors.Is(err, plumbing.ErrReferenceNotFound)
}

// reset empties CloneDir after a failed attempt so the next clone starts clean.
func (s *Source) reset() error {
	if err := os.RemoveAll(s.CloneDir); err != nil {
		return err
	}
	return os.MkdirAll(s.CloneDir, 0o755)
}

func (s *Source) fail(err error) error {
	s.Cleanup()
	return fmt.Errorf("clone %s: %w", s.URL, err)
}

// Cleanup removes the clone directory.
func (s *Source) Cleanup() {
	if s.CloneDir != "" {
		_ = os.RemoveAll(s.CloneDir)
		s.CloneDir = ""
	}
}
