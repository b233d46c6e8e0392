// Package analyzer holds the plumbing shared by analyzers: the content
// source abstraction, progress tracking and parallel file mapping.
package analyzer

import "context"

// ContentSource provides file content for analysis. Implementations read
// from the working tree or from a git revision.
type ContentSource interface {
	Read(path string) ([]byte, error)
}

// SourceFileAnalyzer analyzes a set of files read through a ContentSource.
type SourceFileAnalyzer[T any] interface {
	// Analyze processes the files and returns the analysis result.
	// The context carries cancellation and an optional progress Tracker.
	Analyze(ctx context.Context, files []string, src ContentSource) (T, error)

	// Close releases any resources held by the analyzer.
	Close()
}
