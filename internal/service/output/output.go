// Package output selects the destination and format for command results.
package output

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/panbanda/oometrics/internal/output"
)

// Format represents output format.
type Format = output.Format

// Supported formats (re-exported for convenience).
const (
	FormatText     = output.FormatText
	FormatJSON     = output.FormatJSON
	FormatMarkdown = output.FormatMarkdown
	FormatYAML     = output.FormatYAML
	FormatTOON     = output.FormatTOON
	FormatCSV      = output.FormatCSV
)

// Service handles output formatting.
type Service struct {
	format   Format
	writer   io.Writer
	colored  bool
	filePath string
	file     *os.File
}

// Option configures a Service.
type Option func(*Service)

// WithFormat sets the output format.
func WithFormat(f Format) Option {
	return func(s *Service) {
		s.format = f
	}
}

// WithWriter sets the output writer.
func WithWriter(w io.Writer) Option {
	return func(s *Service) {
		s.writer = w
	}
}

// WithColor enables or disables colored output.
func WithColor(enabled bool) Option {
	return func(s *Service) {
		s.colored = enabled
	}
}

// WithFile sets output to a file.
func WithFile(path string) Option {
	return func(s *Service) {
		s.filePath = path
	}
}

// New creates a new output service.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		format:  FormatText,
		writer:  os.Stdout,
		colored: true,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.filePath != "" {
		f, err := os.Create(s.filePath)
		if err != nil {
			return nil, fmt.Errorf("create output file: %w", err)
		}
		s.file = f
		s.writer = f
		s.colored = false
	}

	return s, nil
}

// Close closes the output service and any open files.
func (s *Service) Close() error {
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// Format returns the current format.
func (s *Service) Format() Format {
	return s.format
}

// Writer returns the current writer.
func (s *Service) Writer() io.Writer {
	return s.writer
}

// Colored returns whether output should be colored.
func (s *Service) Colored() bool {
	return s.colored
}

// FormatData renders data in the service's format without writing it.
func (s *Service) FormatData(data any) (string, error) {
	var buf bytes.Buffer
	if err := output.NewWriterFormatter(s.format, &buf, s.colored).Output(data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Output writes formatted data to the writer.
func (s *Service) Output(data any) error {
	return output.NewWriterFormatter(s.format, s.writer, s.colored).Output(data)
}

// ParseFormat parses a format string into a Format.
func ParseFormat(s string) Format {
	return output.ParseFormat(s)
}
