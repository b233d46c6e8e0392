package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/panbanda/oometrics/internal/cache"
	"github.com/panbanda/oometrics/internal/output"
	"github.com/panbanda/oometrics/internal/progress"
	"github.com/panbanda/oometrics/internal/remote"
	"github.com/panbanda/oometrics/internal/service/analysis"
	outputSvc "github.com/panbanda/oometrics/internal/service/output"
	scannerSvc "github.com/panbanda/oometrics/internal/service/scanner"
	"github.com/panbanda/oometrics/pkg/analyzer/cohesion"
)

var errNoFiles = errors.New("no Java files found")

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"ck"},
		Usage:     "Compute CK metrics for Java classes",
		ArgsUsage: "[path...|owner/repo[@ref]]",
		Flags: append(ckFlags(),
			&cli.StringFlag{
				Name:  "ref",
				Usage: "Analyze the tree at this git revision instead of the working copy",
			},
		),
		Action: runAnalyzeCmd,
	}
}

// ckFlags are shared by analyze and watch.
func ckFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "top",
			Value: 20,
			Usage: "Show only the top N classes (0 = all)",
		},
		&cli.StringFlag{
			Name:  "sort",
			Value: string(cohesion.SortByLCOM),
			Usage: "Sort by: lcom, wmc, cbo, acbo, rfc, dit, noc, name",
		},
		&cli.StringFlag{
			Name:  "scope",
			Usage: "Name resolution scope: file or project (default from config)",
		},
		&cli.StringFlag{
			Name:  "rfc",
			Usage: "RFC formula: canonical or additive (default from config)",
		},
		&cli.StringFlag{
			Name:  "lcom",
			Usage: "LCOM formula: canonical or pairs (default from config)",
		},
		&cli.BoolFlag{
			Name:  "include-tests",
			Usage: "Include test files in analysis",
		},
	}
}

func ckOptions(c *cli.Context) analysis.CKOptions {
	return analysis.CKOptions{
		Scope:        stringFlag(c, "scope", ""),
		RFCFormula:   stringFlag(c, "rfc", ""),
		LCOMFormula:  stringFlag(c, "lcom", ""),
		IncludeTests: c.Bool("include-tests"),
	}
}

func runAnalyzeCmd(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	sortKey, err := cohesion.ParseSortKey(stringFlag(c, "sort", ""))
	if err != nil {
		return err
	}

	result, err := e.analyze(c.Context, getPaths(c), stringFlag(c, "ref", ""), ckOptions(c), !c.Bool("no-cache"))
	if errors.Is(err, errNoFiles) {
		color.Yellow("No Java files found")
		return nil
	}
	if err != nil {
		return err
	}

	result.Sort(sortKey)
	result.Top(topFlag(c))
	return e.write(c, result)
}

func topFlag(c *cli.Context) int {
	if v, ok := getTrailingFlag(c, "--top", ""); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return c.Int("top")
}

// analyze scans paths (or the tree at ref) and computes CK metrics.
func (e *env) analyze(ctx context.Context, paths []string, ref string, opts analysis.CKOptions, useCache bool) (*cohesion.Analysis, error) {
	scanner := scannerSvc.New(scannerSvc.WithConfig(e.cfg))

	if len(paths) == 1 {
		src, err := remote.Parse(paths[0])
		if err != nil {
			return nil, err
		}
		if src != nil {
			if ref != "" {
				src.Ref = ref
			}
			spinner := progress.NewSpinner("Cloning " + src.URL)
			if err := src.Clone(ctx, io.Discard, true); err != nil {
				spinner.FinishError(err)
				return nil, err
			}
			spinner.FinishSuccess()
			defer src.Cleanup()
			e.logger.Debug("cloned", zap.String("url", src.URL), zap.String("dir", src.CloneDir))
			paths, ref = []string{src.CloneDir}, "HEAD"
		}
	}

	var scan *scannerSvc.ScanResult
	var err error
	if ref != "" {
		if len(paths) > 1 {
			return nil, fmt.Errorf("--ref accepts a single path, got %d", len(paths))
		}
		scan, err = scanner.ScanRevision(paths[0], ref)
	} else {
		scan, err = scanner.ScanPaths(paths)
	}
	if err != nil {
		return nil, err
	}
	if len(scan.Files) == 0 {
		return nil, errNoFiles
	}
	e.logger.Debug("scanned", zap.Int("files", len(scan.Files)), zap.String("revision", scan.Revision))

	svcOpts := []analysis.Option{
		analysis.WithConfig(e.cfg),
		analysis.WithLogger(e.logger),
	}
	if useCache && e.cfg.Cache.Enabled {
		c, err := cache.New(e.cfg.Cache.Dir, e.cfg.Cache.TTL, true)
		if err != nil {
			e.logger.Warn("cache disabled", zap.String("dir", e.cfg.Cache.Dir), zap.Error(err))
		} else {
			svcOpts = append(svcOpts, analysis.WithCache(c))
		}
	}

	tracker := progress.NewTracker("Analyzing CK metrics", len(scan.Files))
	result, err := analysis.New(svcOpts...).AnalyzeCK(tracker.Attach(ctx), scan.Files, scan.Source, opts)
	if err != nil {
		tracker.FinishError(err)
		return nil, err
	}
	tracker.FinishSuccess()
	return result, nil
}

// write renders result in the selected format to stdout or --output.
func (e *env) write(c *cli.Context, result *cohesion.Analysis) error {
	out, err := outputSvc.New(
		outputSvc.WithFormat(e.format(c)),
		outputSvc.WithFile(stringFlag(c, "output", "-o")),
		outputSvc.WithColor(e.cfg.Output.Color),
	)
	if err != nil {
		return err
	}
	defer out.Close()

	return out.Output(output.NewCKReport(result, e.cfg.Thresholds))
}
