// Package extract turns uploaded document bytes into plain text.
// Extractors are registered per file extension; the analysis pipeline
// only ever sees the extracted string.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for extensions with no registered extractor.
var ErrUnsupported = errors.New("extract: unsupported format")

// ErrMalformed is returned when a file of a supported format cannot be
// decoded.
var ErrMalformed = errors.New("extract: malformed content")

// Extractor converts one document format to plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
	SupportedFormats() []string
}

// Registry routes extraction by file extension.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry creates a registry with the built-in extractors (txt, pdf,
// docx, xlsx).
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}
	for _, e := range []Extractor{&TextExtractor{}, &PDFExtractor{}, &DOCXExtractor{}, &XLSXExtractor{}} {
		for _, f := range e.SupportedFormats() {
			r.extractors[f] = e
		}
	}
	return r
}

// Register adds or replaces the extractor for the given formats.
func (r *Registry) Register(e Extractor) {
	for _, f := range e.SupportedFormats() {
		r.extractors[f] = e
	}
}

// Formats returns the registered extensions.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.extractors))
	for f := range r.extractors {
		out = append(out, f)
	}
	return out
}

// Format normalizes a filename to its registry extension.
func Format(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

// Extract converts raw document bytes to plain text based on the
// filename's extension. ErrUnsupported for unrecognized extensions,
// ErrMalformed (wrapped) when decoding fails.
func (r *Registry) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	format := Format(filename)
	e, ok := r.extractors[format]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, format)
	}
	text, err := e.Extract(ctx, data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrMalformed, filename, err)
	}
	return text, nil
}

// TextExtractor handles plain text (.txt) files.
type TextExtractor struct{}

func (e *TextExtractor) SupportedFormats() []string { return []string{"txt", "md"} }

func (e *TextExtractor) Extract(_ context.Context, data []byte) (string, error) {
	return string(data), nil
}
