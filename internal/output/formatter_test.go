package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"TEXT", FormatText},
		{"json", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"yaml", FormatYAML},
		{"yml", FormatYAML},
		{"toon", FormatTOON},
		{"CSV", FormatCSV},
		{"", FormatText},
		{"unknown", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFormat(tt.input))
		})
	}
}

func TestNewFormatterWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	f, err := NewFormatter(FormatJSON, path, true)
	require.NoError(t, err)
	assert.False(t, f.Colored(), "files are never colored")

	require.NoError(t, f.Output(map[string]int{"a": 1}))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))
}

func TestNewFormatterInvalidPath(t *testing.T) {
	_, err := NewFormatter(FormatText, filepath.Join(t.TempDir(), "missing", "dir", "out.txt"), false)
	assert.Error(t, err)
}

func TestFormatterGetters(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatMarkdown, &buf, true)
	assert.Equal(t, FormatMarkdown, f.Format())
	assert.Same(t, &buf, f.Writer())
	assert.True(t, f.Colored())
	assert.NoError(t, f.Close())
}

func TestOutputRawFormats(t *testing.T) {
	data := map[string]any{"name": "Order", "wmc": 3}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewWriterFormatter(FormatJSON, &buf, false).Output(data))
		assert.JSONEq(t, `{"name":"Order","wmc":3}`, buf.String())
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewWriterFormatter(FormatYAML, &buf, false).Output(data))
		var got map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "Order", got["name"])
		assert.Equal(t, 3, got["wmc"])
	})

	t.Run("toon", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewWriterFormatter(FormatTOON, &buf, false).Output(data))
		assert.Contains(t, buf.String(), "Order")
	})

	t.Run("markdown wraps json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewWriterFormatter(FormatMarkdown, &buf, false).Output(data))
		assert.Contains(t, buf.String(), "```json")
	})

	t.Run("csv unsupported", func(t *testing.T) {
		var buf bytes.Buffer
		err := NewWriterFormatter(FormatCSV, &buf, false).Output(data)
		assert.ErrorIs(t, err, ErrCSVUnsupported)
	})
}

func TestTableRender(t *testing.T) {
	table := NewTable("Classes", []string{"Class", "WMC"}, [][]string{{"Order", "3"}, {"A|B", "1"}}, []string{"2", "4"}, nil)

	var text bytes.Buffer
	require.NoError(t, table.RenderText(&text, false))
	assert.Contains(t, text.String(), "Classes\n=======")
	assert.Contains(t, text.String(), "Order")

	var md bytes.Buffer
	require.NoError(t, table.RenderMarkdown(&md))
	assert.Contains(t, md.String(), "## Classes")
	assert.Contains(t, md.String(), "| Class | WMC |")
	assert.Contains(t, md.String(), "| --- | --- |")
	assert.Contains(t, md.String(), `| A\|B | 1 |`)

	data, ok := table.RenderData().([]map[string]string)
	require.True(t, ok)
	assert.Equal(t, "Order", data[0]["Class"])

	wrapped := NewTable("", nil, nil, nil, []int{1})
	assert.Equal(t, []int{1}, wrapped.RenderData())
}

func TestTableCSVUnsupported(t *testing.T) {
	var buf bytes.Buffer
	err := NewWriterFormatter(FormatCSV, &buf, false).Output(NewTable("", nil, nil, nil, nil))
	assert.ErrorIs(t, err, ErrCSVUnsupported)
}

func TestSectionRender(t *testing.T) {
	s := &Section{
		Title:   "Summary",
		Content: "body",
		Sections: []Section{
			{Title: "Diagnostics", Content: "- cycle"},
		},
	}

	var text bytes.Buffer
	require.NoError(t, s.RenderText(&text, false))
	assert.Contains(t, text.String(), "Summary\n=======\nbody")
	assert.Contains(t, text.String(), "Diagnostics\n-----------")

	var md bytes.Buffer
	require.NoError(t, s.RenderMarkdown(&md))
	assert.Contains(t, md.String(), "## Summary")
	assert.Contains(t, md.String(), "### Diagnostics")

	out, err := json.Marshal(s.RenderData())
	require.NoError(t, err)
	assert.Contains(t, string(out), `"title":"Summary"`)
}

func TestMessageHelpers(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatText, &buf, false)
	f.Success("done %d", 1)
	f.Warning("careful")
	f.Error("broken")
	f.Info("note")

	assert.Equal(t, "done 1\nWARNING: careful\nERROR: broken\nnote\n", buf.String())
}

func TestThresholdColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })

	assert.Equal(t, "5", ThresholdColor(5, 0, "5"), "disabled threshold")
	assert.Equal(t, "5", ThresholdColor(5, 10, "5"))
	assert.Equal(t, color.YellowString("10"), ThresholdColor(10, 10, "10"))
	assert.Equal(t, color.RedString("11"), ThresholdColor(11, 10, "11"))
}
