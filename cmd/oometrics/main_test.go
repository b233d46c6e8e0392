package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/oometrics/internal/testutil"
	"github.com/panbanda/oometrics/pkg/analyzer/cohesion"
	"github.com/panbanda/oometrics/pkg/config"
)

const baseJava = `package shop;

public class Base {
    protected int id;

    public int getId() {
        return id;
    }
}
`

const orderJava = `package shop;

public class Order extends Base {
    private int total;
    private String note;

    public int total() {
        return total;
    }

    public String note() {
        return note;
    }
}
`

func javaTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.CreateFileTree(t, dir, map[string]string{
		"src/shop/Base.java":  baseJava,
		"src/shop/Order.java": orderJava,
		"README.md":           "# shop\n",
	})
	return dir
}

func cliContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	require.NoError(t, set.Parse(append([]string{"--"}, args...)))
	return cli.NewContext(newApp(), set, nil)
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"oometrics"}, args...))
	return out.String(), err
}

func TestGetPaths(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"empty defaults to cwd", nil, []string{"."}},
		{"single path", []string{"src"}, []string{"src"}},
		{"multiple paths", []string{"a", "b"}, []string{"a", "b"}},
		{"trailing value flag", []string{"src", "--top", "5"}, []string{"src"}},
		{"trailing bool flag", []string{"src", "--include-tests"}, []string{"src"}},
		{"trailing assigned flag", []string{"src", "--sort=wmc", "lib"}, []string{"src", "lib"}},
		{"only flags", []string{"-f", "json"}, []string{"."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cliContext(t, tt.args...)
			assert.Equal(t, tt.want, getPaths(c))
		})
	}
}

func TestGetTrailingFlag(t *testing.T) {
	c := cliContext(t, "src", "--sort", "wmc", "-f=json")

	v, ok := getTrailingFlag(c, "--sort", "")
	assert.True(t, ok)
	assert.Equal(t, "wmc", v)

	v, ok = getTrailingFlag(c, "--format", "-f")
	assert.True(t, ok)
	assert.Equal(t, "json", v)

	_, ok = getTrailingFlag(c, "--top", "")
	assert.False(t, ok)
}

func TestGetTrailingFlag_MissingValue(t *testing.T) {
	c := cliContext(t, "src", "--sort")
	_, ok := getTrailingFlag(c, "--sort", "")
	assert.False(t, ok)
}

func TestAnalyze_JSON(t *testing.T) {
	dir := javaTree(t)
	out := filepath.Join(t.TempDir(), "ck.json")

	_, err := runApp(t, "--no-cache", "-f", "json", "-o", out, "analyze", "--sort", "name", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var result cohesion.Analysis
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Classes, 2)
	assert.Equal(t, cohesion.ScopeFile, result.Scope)
	assert.Equal(t, 2, result.Summary.TotalFiles)

	byName := map[string]cohesion.ClassMetrics{}
	for _, cls := range result.Classes {
		byName[cls.ClassName] = cls
	}
	require.Contains(t, byName, "Order")
	assert.Equal(t, 2, byName["Order"].WMC)
	assert.Equal(t, 2, byName["Order"].NOF)
}

func TestAnalyze_ProjectScopeResolvesParent(t *testing.T) {
	dir := javaTree(t)
	out := filepath.Join(t.TempDir(), "ck.json")

	_, err := runApp(t, "--no-cache", "-f", "json", "-o", out, "ck", "--scope", "project", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var result cohesion.Analysis
	require.NoError(t, json.Unmarshal(data, &result))
	for _, cls := range result.Classes {
		switch cls.ClassName {
		case "Order":
			assert.Equal(t, 1, cls.DIT)
		case "Base":
			assert.Equal(t, 1, cls.NOC)
		}
	}
}

func TestAnalyze_CSV(t *testing.T) {
	dir := javaTree(t)
	out := filepath.Join(t.TempDir(), "ck.csv")

	_, err := runApp(t, "--no-cache", "-f", "csv", "-o", out, "analyze", dir)
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Class", records[0][0])
	assert.Equal(t, "LCOM", records[0][len(records[0])-1])
}

func TestAnalyze_Top(t *testing.T) {
	dir := javaTree(t)
	out := filepath.Join(t.TempDir(), "ck.json")

	_, err := runApp(t, "--no-cache", "-f", "json", "-o", out, "analyze", "--top", "1", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var result cohesion.Analysis
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Len(t, result.Classes, 1)
}

func TestAnalyze_NoJavaFiles(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "main.go"), "package main\n")
	out := filepath.Join(t.TempDir(), "ck.json")

	_, err := runApp(t, "--no-cache", "-f", "json", "-o", out, "analyze", dir)
	require.NoError(t, err)
	assert.NoFileExists(t, out)
}

func TestAnalyze_InvalidSort(t *testing.T) {
	dir := javaTree(t)
	_, err := runApp(t, "--no-cache", "analyze", "--sort", "bogus", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestAnalyze_InvalidScope(t *testing.T) {
	dir := javaTree(t)
	_, err := runApp(t, "--no-cache", "analyze", "--scope", "galaxy", dir)
	require.Error(t, err)
}

func TestAnalyze_Ref(t *testing.T) {
	dir, repo := testutil.InitRepo(t)
	testutil.Commit(t, repo, map[string]string{"Order.java": orderJava}, "add order")
	// Working copy diverges from HEAD.
	testutil.WriteFile(t, filepath.Join(dir, "Base.java"), baseJava)

	out := filepath.Join(t.TempDir(), "ck.json")
	_, err := runApp(t, "--no-cache", "-f", "json", "-o", out, "analyze", "--ref", "HEAD", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var result cohesion.Analysis
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Classes, 1)
	assert.Equal(t, "Order", result.Classes[0].ClassName)
}

func TestAnalyze_RefOutsideRepo(t *testing.T) {
	dir := javaTree(t)
	_, err := runApp(t, "--no-cache", "analyze", "--ref", "HEAD", dir)
	require.Error(t, err)
}

func TestConfigInitShowValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oometrics.toml")

	_, err := runApp(t, "config", "init", path)
	require.NoError(t, err)
	require.FileExists(t, path)

	var written config.Config
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, toml.Unmarshal(data, &written))
	assert.Equal(t, config.DefaultConfig().Thresholds, written.Thresholds)

	_, err = runApp(t, "config", "init", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	_, err = runApp(t, "config", "init", "--force", path)
	require.NoError(t, err)

	out, err := runApp(t, "-c", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# Configuration from: "+path)
	assert.Contains(t, out, "[thresholds]")

	_, err = runApp(t, "-c", path, "config", "validate")
	require.NoError(t, err)
}

func TestConfigValidate_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oometrics.toml")
	testutil.WriteFile(t, path, "[analysis]\nscope = \"galaxy\"\n")

	_, err := runApp(t, "-c", path, "config", "validate")
	require.Error(t, err)
}

func TestAnalyze_ConfigFormat(t *testing.T) {
	dir := javaTree(t)
	cfgPath := filepath.Join(t.TempDir(), "oometrics.toml")
	testutil.WriteFile(t, cfgPath, "[output]\nformat = \"markdown\"\ncolor = false\n")
	out := filepath.Join(t.TempDir(), "ck.md")

	_, err := runApp(t, "--no-cache", "-c", cfgPath, "-o", out, "analyze", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "| Class"), "expected a markdown table, got:\n%s", data)
}

func TestMCPManifest(t *testing.T) {
	out, err := runApp(t, "mcp", "--manifest")
	require.NoError(t, err)

	var manifest map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &manifest))
	assert.Contains(t, manifest, "name")
}
