package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := New(context.Background())
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}
	return e
}

func TestSupportedExtensions(t *testing.T) {
	for _, name := range []string{"a.pdf", "b.docx", "c.xlsx", "d.txt", "e.md", "UPPER.PDF"} {
		if !Supported(name) {
			t.Fatalf("%s should be supported", name)
		}
	}
	for _, name := range []string{"a.exe", "b.png", "noext", "c.doc", "d.xls"} {
		if Supported(name) {
			t.Fatalf("%s should not be supported", name)
		}
	}
}

func TestExtractRejectsUnsupportedType(t *testing.T) {
	e := newTestExtractor(t)
	_, err := e.Extract(context.Background(), []byte("payload"), "virus.exe")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}
}

func TestExtractPlainTextPassesThrough(t *testing.T) {
	e := newTestExtractor(t)
	text := "first line\nsecond line"
	got, err := e.Extract(context.Background(), []byte(text), "notes.txt")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != text {
		t.Fatalf("got %q, want %q", got, text)
	}
}

func TestExtractMarkdownUsesFallback(t *testing.T) {
	e := newTestExtractor(t)
	text := "# Title\n\nBody paragraph."
	got, err := e.Extract(context.Background(), []byte(text), "README.md")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != text {
		t.Fatalf("got %q, want %q", got, text)
	}
}

func TestExtractXLSX(t *testing.T) {
	f := excelize.NewFile()
	cells := map[string]string{"A1": "Name", "B1": "Role", "A2": "Ada", "B2": "Engineer"}
	for cell, value := range cells {
		if err := f.SetCellValue("Sheet1", cell, value); err != nil {
			t.Fatalf("set cell %s: %v", cell, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	e := newTestExtractor(t)
	got, err := e.Extract(context.Background(), buf.Bytes(), "team.xlsx")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(got, "Sheet: Sheet1") {
		t.Fatalf("missing sheet header:\n%s", got)
	}
	if !strings.Contains(got, "Name\tRole") || !strings.Contains(got, "Ada\tEngineer") {
		t.Fatalf("missing row content:\n%s", got)
	}
}

func TestExtractCorruptPDFFails(t *testing.T) {
	e := newTestExtractor(t)
	if _, err := e.Extract(context.Background(), []byte("not a pdf"), "broken.pdf"); err == nil {
		t.Fatalf("expected error for corrupt pdf input")
	}
}

func TestExtractCorruptDocxFails(t *testing.T) {
	e := newTestExtractor(t)
	if _, err := e.Extract(context.Background(), []byte("not a docx"), "broken.docx"); err == nil {
		t.Fatalf("expected error for corrupt docx input")
	}
}
