package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/panbanda/oometrics/internal/testutil"
	"github.com/panbanda/oometrics/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func relAll(t *testing.T, root string, files []string) []string {
	t.Helper()
	realRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	out := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(realRoot, f)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out
}

func TestScanDir_FindsJavaFiles(t *testing.T) {
	root := t.TempDir()
	testutil.CreateFileTree(t, root, map[string]string{
		"src/main/java/A.java":  "class A {}",
		"src/main/java/B.java":  "class B {}",
		"src/main/resources/x":  "data",
		"README.md":             "# hi",
		"target/classes/C.java": "class C {}",
		".git/HEAD":             "ref: refs/heads/main",
	})

	files, err := NewScanner(nil).ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main/java/A.java", "src/main/java/B.java"}, relAll(t, root, files))
}

func TestScanDir_Gitignore(t *testing.T) {
	root, _ := testutil.InitRepo(t)
	testutil.CreateFileTree(t, root, map[string]string{
		".gitignore":           "generated/\n*Stub.java\n",
		"app/A.java":           "class A {}",
		"app/AStub.java":       "class AStub {}",
		"app/generated/G.java": "class G {}",
	})

	// Scanning a subdirectory still honours the repository .gitignore.
	files, err := NewScanner(nil).ScanDir(filepath.Join(root, "app"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A.java"}, relAll(t, filepath.Join(root, "app"), files))

	cfg := config.DefaultConfig()
	cfg.Exclude.Gitignore = false
	files, err = NewScanner(cfg).ScanDir(filepath.Join(root, "app"))
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestScanDir_IncludeAndExcludePatterns(t *testing.T) {
	root := t.TempDir()
	testutil.CreateFileTree(t, root, map[string]string{
		"src/main/java/A.java":          "class A {}",
		"src/main/java/AGenerated.java": "class AGenerated {}",
		"src/test/java/ATest.java":      "class ATest {}",
	})

	cfg := config.DefaultConfig()
	cfg.Include.Patterns = []string{"src/main/**/*.java"}
	cfg.Exclude.Patterns = []string{"*Generated.java"}

	files, err := NewScanner(cfg).ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main/java/A.java"}, relAll(t, root, files))
}

func TestScanDir_SymlinkOutsideRoot(t *testing.T) {
	outside := t.TempDir()
	testutil.WriteFile(t, filepath.Join(outside, "Secret.java"), "class Secret {}")

	root := t.TempDir()
	testutil.WriteFile(t, filepath.Join(root, "A.java"), "class A {}")
	if err := os.Symlink(filepath.Join(outside, "Secret.java"), filepath.Join(root, "Link.java")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	files, err := NewScanner(nil).ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"A.java"}, relAll(t, root, files))
}

func TestScanDir_MissingRoot(t *testing.T) {
	_, err := NewScanner(nil).ScanDir(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestScanFile(t *testing.T) {
	root := t.TempDir()
	java := filepath.Join(root, "A.java")
	txt := filepath.Join(root, "notes.txt")
	testutil.WriteFile(t, java, "class A {}")
	testutil.WriteFile(t, txt, "notes")

	s := NewScanner(nil)

	ok, err := s.ScanFile(java)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ScanFile(txt)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.ScanFile(root)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.ScanFile(filepath.Join(root, "missing.java"))
	assert.Error(t, err)
}

func TestFilterTree(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Include.Patterns = []string{"src/**"}

	paths := []string{
		"app/src/A.java",
		"app/src/readme.md",
		"app/build/B.java",
		"app/other/C.java",
		"lib/src/D.java",
	}
	got := NewScanner(cfg).FilterTree(paths, "app")
	assert.Equal(t, []string{"app/src/A.java"}, got)
}
