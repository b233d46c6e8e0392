package remote

import (
	"context"
	"io"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/oometrics/internal/testutil"
)

func TestParse_LocalPath(t *testing.T) {
	src, err := Parse(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, src)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantURL string
		wantRef string
	}{
		{"shorthand", "apache/commons-lang", "https://github.com/apache/commons-lang", ""},
		{"shorthand with tag", "apache/commons-lang@rel/commons-lang-3.14.0", "https://github.com/apache/commons-lang", "rel/commons-lang-3.14.0"},
		{"shorthand with branch", "owner/repo@feature-branch", "https://github.com/owner/repo", "feature-branch"},
		{"github.com without scheme", "github.com/google/guava", "https://github.com/google/guava", ""},
		{"https URL", "https://github.com/spring-projects/spring-boot", "https://github.com/spring-projects/spring-boot", ""},
		{"gitlab URL", "https://gitlab.com/group/project", "https://gitlab.com/group/project", ""},
		{"SSH URL", "git@github.com:owner/repo.git", "git@github.com:owner/repo.git", ""},
		{"SSH URL with ref", "git@github.com:owner/repo.git@v1.2", "git@github.com:owner/repo.git", "v1.2"},
		{"URL with ref", "github.com/google/guava@v33.0.0", "https://github.com/google/guava", "v33.0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Parse(tt.input)
			require.NoError(t, err)
			require.NotNil(t, src)
			assert.Equal(t, tt.wantURL, src.URL)
			assert.Equal(t, tt.wantRef, src.Ref)
		})
	}
}

func TestParse_NotRemote(t *testing.T) {
	for _, input := range []string{"missing-dir", "a/b/c", "example.com/repo", "/owner"} {
		src, err := Parse(input)
		require.NoError(t, err)
		assert.Nil(t, src, input)
	}
}

const orderJava = "public class Order {}\n"

func localRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available for file transport")
	}
	dir, repo := testutil.InitRepo(t)
	testutil.Commit(t, repo, map[string]string{"Order.java": orderJava}, "initial")
	return dir, repo
}

func TestSource_Clone(t *testing.T) {
	dir, _ := localRepo(t)

	src := &Source{URL: dir}
	require.NoError(t, src.Clone(context.Background(), io.Discard, true))
	defer src.Cleanup()

	assert.DirExists(t, filepath.Join(src.CloneDir, ".git"))
	assert.FileExists(t, filepath.Join(src.CloneDir, "Order.java"))
}

func TestSource_Clone_Commit(t *testing.T) {
	dir, repo := localRepo(t)
	first, err := repo.Head()
	require.NoError(t, err)
	testutil.Commit(t, repo, map[string]string{"Line.java": "public class Line {}\n"}, "second")

	src := &Source{URL: dir, Ref: first.Hash().String()}
	require.NoError(t, src.Clone(context.Background(), io.Discard, true))
	defer src.Cleanup()

	cloned, err := git.PlainOpen(src.CloneDir)
	require.NoError(t, err)
	head, err := cloned.Head()
	require.NoError(t, err)
	assert.Equal(t, first.Hash(), head.Hash())
	assert.NoFileExists(t, filepath.Join(src.CloneDir, "Line.java"))
}

func TestSource_Clone_Tag(t *testing.T) {
	dir, repo := localRepo(t)
	head, err := repo.Head()
	require.NoError(t, err)
	_, err = repo.CreateTag("v1.0", head.Hash(), nil)
	require.NoError(t, err)

	src := &Source{URL: dir, Ref: "v1.0"}
	require.NoError(t, src.Clone(context.Background(), io.Discard, true))
	defer src.Cleanup()

	cloned, err := git.PlainOpen(src.CloneDir)
	require.NoError(t, err)
	got, err := cloned.Head()
	require.NoError(t, err)
	assert.Equal(t, head.Hash(), got.Hash())
}

func TestSource_Clone_BadRef(t *testing.T) {
	dir, _ := localRepo(t)

	src := &Source{URL: dir, Ref: "no-such-ref"}
	err := src.Clone(context.Background(), io.Discard, true)
	require.Error(t, err)
	assert.Empty(t, src.CloneDir)
}

func TestCleanup(t *testing.T) {
	src := &Source{CloneDir: t.TempDir()}
	dir := src.CloneDir
	src.Cleanup()
	assert.NoDirExists(t, dir)
	assert.Empty(t, src.CloneDir)
}

