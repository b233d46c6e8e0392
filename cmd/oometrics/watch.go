package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/panbanda/oometrics/pkg/analyzer/cohesion"
	"github.com/panbanda/oometrics/pkg/watch"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Watch Java files and re-analyze on change",
		ArgsUsage: "[path]",
		Flags: append(ckFlags(),
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "Quiet period before re-analyzing",
			},
		),
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	sortKey, err := cohesion.ParseSortKey(stringFlag(c, "sort", ""))
	if err != nil {
		return err
	}
	root, err := filepath.Abs(getPaths(c)[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	opts := ckOptions(c)
	top := topFlag(c)
	useCache := !c.Bool("no-cache")
	ctx := c.Context

	rerun := func() {
		result, err := e.analyze(ctx, []string{root}, "", opts, useCache)
		if errors.Is(err, errNoFiles) {
			color.Yellow("No Java files found")
			return
		}
		if err != nil {
			color.Red("Analysis failed: %v", err)
			return
		}
		result.Sort(sortKey)
		result.Top(top)
		if err := e.write(c, result); err != nil {
			color.Red("Output failed: %v", err)
		}
	}

	rerun()

	watcher, err := watch.NewWatcher(root, e.cfg,
		func(paths []string) {
			e.logger.Debug("change detected", zap.Strings("paths", paths))
			rerun()
		},
		watch.WithDebounce(c.Duration("debounce")),
		watch.WithLogger(e.logger),
	)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	err = watcher.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
