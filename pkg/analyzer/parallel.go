package analyzer

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/panbanda/oometrics/pkg/parser"
	"github.com/sourcegraph/conc/pool"
)

// DefaultWorkerMultiplier is applied to NumCPU when no worker count is given.
// Parsing mixes I/O with CGO calls, so 2x keeps the cores busy.
const DefaultWorkerMultiplier = 2

// ProcessingError is a failure to process one file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects per-file errors. It is safe for concurrent use.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection.
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors reports whether any error was collected.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
	}
}

// SourceFunc processes one file's content with a parser owned by the
// calling worker.
type SourceFunc[T any] func(psr *parser.Parser, path string, content []byte) (T, error)

// MapSources reads each file from src and applies fn in parallel. Results
// keep the order of files; files that fail are left out and reported in the
// returned ProcessingErrors. A Tracker in ctx is ticked once per file.
// Files not yet started when ctx is cancelled are skipped.
func MapSources[T any](ctx context.Context, files []string, src ContentSource, workers int, fn SourceFunc[T]) ([]T, *ProcessingErrors) {
	errs := &ProcessingErrors{}
	if len(files) == 0 {
		return nil, errs
	}
	if workers <= 0 {
		workers = runtime.NumCPU() * DefaultWorkerMultiplier
	}

	tracker := TrackerFromContext(ctx)
	results := make([]T, len(files))
	ok := make([]bool, len(files))

	// One parser per worker, handed out through a channel.
	parsers := make(chan *parser.Parser, workers)
	for range workers {
		parsers <- parser.New()
	}
	defer func() {
		close(parsers)
		for psr := range parsers {
			psr.Close()
		}
	}()

	p := pool.New().WithMaxGoroutines(workers)
	for i, path := range files {
		p.Go(func() {
			if tracker != nil {
				defer tracker.Tick(path)
			}
			if ctx.Err() != nil {
				return
			}

			content, err := src.Read(path)
			if err != nil {
				errs.Add(path, fmt.Errorf("read: %w", err))
				return
			}

			psr := <-parsers
			result, err := fn(psr, path, content)
			parsers <- psr
			if err != nil {
				errs.Add(path, err)
				return
			}
			results[i] = result
			ok[i] = true
		})
	}
	p.Wait()

	out := make([]T, 0, len(files))
	for i := range results {
		if ok[i] {
			out = append(out, results[i])
		}
	}
	return out, errs
}
