package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/panbanda/oometrics/internal/logging"
	"github.com/panbanda/oometrics/internal/output"
	"github.com/panbanda/oometrics/pkg/config"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// valueFlags take a separate value argument when they trail positional args.
var valueFlags = map[string]bool{
	"-c": true, "--config": true,
	"-f": true, "--format": true,
	"-o": true, "--output": true,
	"--top": true, "--sort": true, "--scope": true,
	"--rfc": true, "--lcom": true, "--ref": true,
	"--debounce": true,
}

// getPaths returns positional args, defaulting to ["."]. Flags placed
// after the paths are not parsed by cli and are filtered out here.
func getPaths(c *cli.Context) []string {
	args := c.Args().Slice()
	var paths []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") && arg != "-" {
			if !strings.Contains(arg, "=") && valueFlags[arg] {
				i++
			}
			continue
		}
		paths = append(paths, arg)
	}
	if len(paths) == 0 {
		return []string{"."}
	}
	return paths
}

// getTrailingFlag finds a flag value that cli left among positional args.
func getTrailingFlag(c *cli.Context, long, short string) (string, bool) {
	args := c.Args().Slice()
	for i, arg := range args {
		for _, name := range []string{long, short} {
			if name == "" {
				continue
			}
			if arg == name && i+1 < len(args) {
				return args[i+1], true
			}
			if v, ok := strings.CutPrefix(arg, name+"="); ok {
				return v, true
			}
		}
	}
	return "", false
}

// stringFlag reads a flag, preferring a trailing occurrence.
func stringFlag(c *cli.Context, long, short string) string {
	if v, ok := getTrailingFlag(c, "--"+long, short); ok {
		return v
	}
	return c.String(long)
}

// env is the per-invocation state shared by commands.
type env struct {
	cfg    *config.Config
	source string
	logger *zap.Logger
}

func setup(c *cli.Context) (*env, error) {
	result, err := config.LoadConfig(loadOptions(c)...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(c.Bool("verbose"))
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	if result.Source != "" {
		logger.Debug("loaded config", zap.String("path", result.Source))
	}
	return &env{cfg: result.Config, source: result.Source, logger: logger}, nil
}

// format resolves the output format from the flag, then the config.
func (e *env) format(c *cli.Context) output.Format {
	if f := stringFlag(c, "format", "-f"); f != "" {
		return output.ParseFormat(f)
	}
	return output.ParseFormat(e.cfg.Output.Format)
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "oometrics",
		Usage:    "Chidamber-Kemerer metrics for Java classes",
		Version:  version,
		Metadata: make(map[string]interface{}),
		Description: `oometrics parses Java sources and reports the CK object-oriented metrics
per class: WMC, DIT, NOC, CBO, Advanced CBO, RFC and LCOM.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"OOMETRICS_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, markdown, json, yaml, toon, csv (default from config)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable caching",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
			&cli.StringFlag{
				Name:  "pprof",
				Usage: "Write CPU and heap profiles to <prefix>.cpu.pprof and <prefix>.mem.pprof",
			},
		},
		Before: startProfile,
		After:  stopProfile,
		Commands: []*cli.Command{
			analyzeCmd(),
			configCmd(),
			watchCmd(),
			mcpCmd(),
		},
	}
}

func startProfile(c *cli.Context) error {
	prefix := c.String("pprof")
	if prefix == "" {
		return nil
	}
	cpuFile, err := os.Create(prefix + ".cpu.pprof")
	if err != nil {
		return fmt.Errorf("failed to create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		cpuFile.Close()
		return fmt.Errorf("failed to start CPU profile: %w", err)
	}
	c.App.Metadata["pprofCPU"] = cpuFile
	return nil
}

func stopProfile(c *cli.Context) error {
	prefix := c.String("pprof")
	if prefix == "" {
		return nil
	}
	pprof.StopCPUProfile()
	if cpuFile, ok := c.App.Metadata["pprofCPU"].(*os.File); ok {
		cpuFile.Close()
		color.Green("CPU profile written to %s.cpu.pprof", prefix)
	}

	memFile, err := os.Create(prefix + ".mem.pprof")
	if err != nil {
		return fmt.Errorf("failed to create memory profile: %w", err)
	}
	defer memFile.Close()

	runtime.GC()
	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("failed to write memory profile: %w", err)
	}
	color.Green("Memory profile written to %s.mem.pprof", prefix)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}
