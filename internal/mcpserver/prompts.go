package mcpserver

import (
	"bytes"
	"context"
	"embed"
	"path"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.md
var promptFiles embed.FS

// promptFrontmatter is parsed from YAML frontmatter in prompt files.
type promptFrontmatter struct {
	Description string `yaml:"description"`
}

// prompt is one embedded prompt file, named after the file.
type prompt struct {
	Name        string
	Description string
	Body        string
}

func loadPrompts() ([]prompt, error) {
	entries, err := promptFiles.ReadDir("prompts")
	if err != nil {
		return nil, err
	}

	var prompts []prompt
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		content, err := promptFiles.ReadFile(path.Join("prompts", entry.Name()))
		if err != nil {
			return nil, err
		}
		description, body := parseFrontmatter(content)
		prompts = append(prompts, prompt{
			Name:        strings.TrimSuffix(entry.Name(), ".md"),
			Description: description,
			Body:        body,
		})
	}
	return prompts, nil
}

func (s *Server) registerPrompts() {
	prompts, err := loadPrompts()
	if err != nil {
		s.logger.Warn("failed to load prompts", zap.Error(err))
		return
	}
	for _, p := range prompts {
		s.server.AddPrompt(&mcp.Prompt{
			Name:        p.Name,
			Description: p.Description,
		}, makePromptHandler(p))
	}
}

// parseFrontmatter splits a "---" delimited YAML header from the body.
// Content without a valid header is returned whole as the body.
func parseFrontmatter(content []byte) (description string, body string) {
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return "", string(content)
	}

	rest := content[4:]
	end := bytes.Index(rest, []byte("\n---\n"))
	if end == -1 {
		return "", string(content)
	}

	var fm promptFrontmatter
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return "", string(content)
	}

	body = strings.TrimPrefix(string(rest[end+5:]), "\n")
	return fm.Description, body
}

func makePromptHandler(p prompt) mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return &mcp.GetPromptResult{
			Description: p.Description,
			Messages: []*mcp.PromptMessage{
				{
					Role:    "user",
					Content: &mcp.TextContent{Text: p.Body},
				},
			},
		}, nil
	}
}
