package ast

import (
	"errors"
)

// ErrUnsupportedLanguage is returned when parsing a file with an unsupported language.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Language represents a programming language.
type Language string

const (
	LangJava    Language = "java"
	LangUnknown Language = "unknown"
)

// File is a parsed source file.
type File struct {
	Path     string
	Language Language
	Root     *Node
}

// Provider turns source files into syntax trees.
type Provider interface {
	// Parse reads and parses a file from disk.
	Parse(path string) (*File, error)

	// ParseSource parses already loaded content. The path is used for
	// language detection and reporting only.
	ParseSource(source []byte, path string) (*File, error)

	// Language returns the detected language for a file path.
	Language(path string) Language

	// Close releases provider resources.
	Close()
}
