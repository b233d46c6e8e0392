package mcpserver

import (
	"context"
	"io"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/panbanda/oometrics/internal/output"
	"github.com/panbanda/oometrics/internal/service/analysis"
	outputSvc "github.com/panbanda/oometrics/internal/service/output"
	scannerSvc "github.com/panbanda/oometrics/internal/service/scanner"
	"github.com/panbanda/oometrics/pkg/analyzer/cohesion"
)

const defaultTop = 20

// CKInput holds the analyze_ck arguments.
type CKInput struct {
	Paths        []string `json:"paths,omitempty" jsonschema:"Java files or directories to analyze. Defaults to current directory if empty."`
	Code         string   `json:"code,omitempty" jsonschema:"Inline Java source to analyze instead of paths."`
	Filename     string   `json:"filename,omitempty" jsonschema:"Name reported for inline code. Default Input.java."`
	Format       string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, yaml, markdown, or csv."`
	Scope        string   `json:"scope,omitempty" jsonschema:"Name resolution scope: file or project. Default file."`
	RFC          string   `json:"rfc,omitempty" jsonschema:"RFC formula: canonical or additive. Default canonical."`
	LCOM         string   `json:"lcom,omitempty" jsonschema:"LCOM formula: canonical or pairs. Default canonical."`
	IncludeTests bool     `json:"include_tests,omitempty" jsonschema:"Include test files in analysis."`
	Sort         string   `json:"sort,omitempty" jsonschema:"Sort by metric: lcom, wmc, cbo, acbo, rfc, dit, noc, or name. Default lcom."`
	Top          int      `json:"top,omitempty" jsonschema:"Show top N classes. Default 20."`
}

func getPaths(input CKInput) []string {
	if len(input.Paths) == 0 {
		return []string{"."}
	}
	return input.Paths
}

func getFormat(input CKInput) output.Format {
	if input.Format == "" {
		return output.FormatTOON
	}
	return output.ParseFormat(input.Format)
}

func (s *Server) handleAnalyzeCK(ctx context.Context, req *mcp.CallToolRequest, input CKInput) (*mcp.CallToolResult, any, error) {
	sortKey, err := cohesion.ParseSortKey(input.Sort)
	if err != nil {
		return toolError(err.Error())
	}
	top := input.Top
	if top <= 0 {
		top = defaultTop
	}

	opts := analysis.CKOptions{
		Scope:        input.Scope,
		RFCFormula:   input.RFC,
		LCOMFormula:  input.LCOM,
		IncludeTests: input.IncludeTests,
	}
	svc := analysis.New(analysis.WithConfig(s.config), analysis.WithLogger(s.logger))

	var result *cohesion.Analysis
	if input.Code != "" {
		result, err = svc.AnalyzeSource(input.Filename, []byte(input.Code), opts)
	} else {
		scanner := scannerSvc.New(scannerSvc.WithConfig(s.config))
		scanResult, scanErr := scanner.ScanPaths(getPaths(input))
		if scanErr != nil {
			return toolError(scanErr.Error())
		}
		if len(scanResult.Files) == 0 {
			return toolError("no Java files found")
		}
		result, err = svc.AnalyzeCK(ctx, scanResult.Files, scanResult.Source, opts)
	}
	if err != nil {
		s.logger.Warn("analyze_ck failed", zap.Error(err))
		return toolError(err.Error())
	}

	result.Sort(sortKey)
	result.Top(top)

	report := output.NewCKReport(result, s.config.Thresholds)
	return toolResult(report, getFormat(input))
}

func formatOutput(data any, format output.Format) (string, error) {
	svc, err := outputSvc.New(
		outputSvc.WithFormat(format),
		outputSvc.WithWriter(io.Discard),
		outputSvc.WithColor(false),
	)
	if err != nil {
		return "", err
	}
	return svc.FormatData(data)
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return toolError(err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}
