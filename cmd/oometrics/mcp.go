package main

import (
	"github.com/urfave/cli/v2"

	"github.com/panbanda/oometrics/internal/logging"
	"github.com/panbanda/oometrics/internal/mcpserver"
	"github.com/panbanda/oometrics/pkg/config"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes CK metrics
analysis as a tool that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "oometrics": {
        "command": "oometrics",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_ck    CK metrics (WMC, DIT, NOC, CBO, Advanced CBO, RFC, LCOM)`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "manifest",
				Usage: "Print the server.json manifest and exit",
			},
		},
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	if c.Bool("manifest") {
		data, err := mcpserver.GenerateManifest(version)
		if err != nil {
			return err
		}
		_, err = c.App.Writer.Write(append(data, '\n'))
		return err
	}

	result, err := config.LoadConfig(loadOptions(c)...)
	if err != nil {
		return err
	}
	// Stdout carries the protocol; the logger writes to stderr.
	logger := logging.Must(c.Bool("verbose"))
	defer func() { _ = logger.Sync() }()

	server := mcpserver.NewServer(version,
		mcpserver.WithConfig(result.Config),
		mcpserver.WithLogger(logger),
	)
	return server.Run(c.Context)
}
