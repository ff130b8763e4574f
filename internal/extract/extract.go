// Package extract turns uploaded document bytes into plain text. Binary
// formats are handled by per-format parsers keyed by file extension
// behind eino's ExtParser; plain-text files pass through the fallback
// parser unchanged.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino/components/document/parser"
)

// ErrUnsupportedType reports a file extension no parser handles.
var ErrUnsupportedType = errors.New("unsupported file type")

var supportedExts = map[string]bool{
	".pdf":  true,
	".docx": true,
	".xlsx": true,
	".txt":  true,
	".md":   true,
}

// Extractor parses uploaded files into best-effort plain text.
type Extractor struct {
	parser *parser.ExtParser
}

// New builds the extension-keyed parser set.
func New(ctx context.Context) (*Extractor, error) {
	p, err := parser.NewExtParser(ctx, &parser.ExtParserConfig{
		Parsers: map[string]parser.Parser{
			".pdf":  pdfParser{},
			".docx": docxParser{},
			".xlsx": xlsxParser{},
		},
		FallbackParser: parser.TextParser{},
	})
	if err != nil {
		return nil, fmt.Errorf("init document parser: %w", err)
	}
	return &Extractor{parser: p}, nil
}

// Supported reports whether the file's extension has a parser.
func Supported(fileName string) bool {
	return supportedExts[strings.ToLower(filepath.Ext(fileName))]
}

// Extract returns the plain text of data. The result may be empty for
// image-only or content-free documents; callers decide whether that is
// an error.
func (e *Extractor) Extract(ctx context.Context, data []byte, fileName string) (string, error) {
	if !Supported(fileName) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, filepath.Ext(fileName))
	}
	// Extension routing inside ExtParser is case-sensitive.
	docs, err := e.parser.Parse(ctx, bytes.NewReader(data), parser.WithURI(strings.ToLower(fileName)))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", fileName, err)
	}

	var b strings.Builder
	for _, doc := range docs {
		content := strings.TrimSpace(doc.Content)
		if content == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(content)
	}
	return b.String(), nil
}
