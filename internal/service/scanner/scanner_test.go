package scanner

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/oometrics/internal/testutil"
	"github.com/panbanda/oometrics/internal/vcs"
	"github.com/panbanda/oometrics/pkg/config"
)

type failingOpener struct{}

func (failingOpener) PlainOpenWithDetect(string) (vcs.Repository, error) {
	return nil, errors.New("no repository")
}

func TestNew(t *testing.T) {
	svc := New()
	require.NotNil(t, svc)
	assert.NotNil(t, svc.config)
	assert.NotNil(t, svc.opener)
}

func TestNewWithOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	opener := failingOpener{}
	svc := New(WithConfig(cfg), WithOpener(opener))
	assert.Same(t, cfg, svc.config)
	assert.Equal(t, opener, svc.opener)

	svc = New(WithConfig(nil))
	assert.NotNil(t, svc.config, "nil config keeps the default")
}

func TestScanPaths_InvalidPath(t *testing.T) {
	_, err := New().ScanPaths([]string{"/nonexistent/path/that/does/not/exist"})
	require.Error(t, err)

	var pathErr *PathError
	assert.ErrorAs(t, err, &pathErr)
}

func TestScanPaths_DirAndFile(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateFileTree(t, dir, map[string]string{
		"src/A.java":   "class A {}",
		"src/B.java":   "class B {}",
		"README.md":    "# readme",
		"build/C.java": "class C {}",
	})

	svc := New(WithOpener(failingOpener{}))
	result, err := svc.ScanPaths([]string{dir, filepath.Join(dir, "src", "A.java")})
	require.NoError(t, err)

	names := make([]string, 0, len(result.Files))
	for _, f := range result.Files {
		names = append(names, filepath.Base(f))
	}
	assert.ElementsMatch(t, []string{"A.java", "B.java"}, names, "duplicates and excluded dirs are dropped")
	assert.NotNil(t, result.Source)
	assert.Empty(t, result.RepoRoot)
}

func TestScanPaths_NonJavaFile(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "notes.txt"), "hello")

	result, err := New(WithOpener(failingOpener{})).ScanPaths([]string{filepath.Join(dir, "notes.txt")})
	require.NoError(t, err)
	assert.Empty(t, result.Files)
}

func TestScanRevision(t *testing.T) {
	dir, repo := testutil.InitRepo(t)
	hash := testutil.Commit(t, repo, map[string]string{
		"src/A.java": "class A {}",
		"src/b.txt":  "text",
	}, "initial")
	testutil.WriteFile(t, filepath.Join(dir, "src", "Uncommitted.java"), "class U {}")

	result, err := New().ScanRevision(dir, "HEAD")
	require.NoError(t, err)
	assert.Equal(t, []string{"src/A.java"}, result.Files)
	assert.Equal(t, hash.String(), result.Revision)

	content, err := result.Source.Read("src/A.java")
	require.NoError(t, err)
	assert.Equal(t, "class A {}", string(content))
}

func TestScanRevision_NotARepo(t *testing.T) {
	_, err := New(WithOpener(failingOpener{})).ScanRevision(t.TempDir(), "HEAD")
	var gitErr *GitError
	assert.ErrorAs(t, err, &gitErr)
}

func TestErrorMessages(t *testing.T) {
	inner := errors.New("boom")

	pathErr := &PathError{Path: "x", Err: inner}
	assert.Equal(t, "invalid path x: boom", pathErr.Error())
	assert.ErrorIs(t, pathErr, inner)

	scanErr := &ScanError{Path: "y", Err: inner}
	assert.Equal(t, "failed to scan y: boom", scanErr.Error())
	assert.ErrorIs(t, scanErr, inner)

	gitErr := &GitError{Err: inner}
	assert.Contains(t, gitErr.Error(), "not a git repository")
	assert.ErrorIs(t, gitErr, inner)
}
