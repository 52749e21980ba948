package ingest

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestExtractTextPlain(t *testing.T) {
	path := writeFixture(t, "note.txt", "plain text content")

	got, err := ExtractText(path, "txt")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if got != "plain text content" {
		t.Errorf("ExtractText = %q", got)
	}
}

func TestExtractTextMarkdown(t *testing.T) {
	path := writeFixture(t, "doc.md", "# Title\n\nsome *markdown*")

	got, err := ExtractText(path, "md")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	// Markdown is indexed raw, formatting included.
	if !strings.Contains(got, "# Title") {
		t.Errorf("ExtractText = %q, want raw markdown", got)
	}
}

func TestExtractTextHTML(t *testing.T) {
	page := `<html><head><style>body{color:red}</style>
<script>alert("x")</script></head>
<body><h1>Heading</h1><p>First paragraph.</p></body></html>`
	path := writeFixture(t, "page.html", page)

	got, err := ExtractText(path, "html")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if !strings.Contains(got, "Heading") || !strings.Contains(got, "First paragraph.") {
		t.Errorf("ExtractText = %q, want body text", got)
	}
	if strings.Contains(got, "alert") || strings.Contains(got, "color:red") {
		t.Errorf("ExtractText = %q, script/style content leaked", got)
	}
}

func TestExtractTextDocx(t *testing.T) {
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
<w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
</w:body>
</w:document>`
	path := filepath.Join(t.TempDir(), "report.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create fixture: %v", err)
	}
	zw := zip.NewWriter(f)
	entry, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("failed to add document.xml: %v", err)
	}
	if _, err := entry.Write([]byte(document)); err != nil {
		t.Fatalf("failed to write document.xml: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close archive: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close fixture: %v", err)
	}

	got, err := ExtractText(path, "docx")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if !strings.Contains(got, "First paragraph.\n") {
		t.Errorf("ExtractText = %q, want first paragraph on its own line", got)
	}
	if !strings.Contains(got, "Second paragraph.") {
		t.Errorf("ExtractText = %q, want split runs joined", got)
	}
}

func TestExtractTextDocxWithoutDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create fixture: %v", err)
	}
	zw := zip.NewWriter(f)
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close archive: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close fixture: %v", err)
	}

	if _, err := ExtractText(path, "docx"); err == nil {
		t.Error("expected error for archive without word/document.xml")
	}
}

func TestExtractTextCorruptPdf(t *testing.T) {
	path := writeFixture(t, "scan.pdf", "%PDF-1.4 not a real document")

	if _, err := ExtractText(path, "pdf"); err == nil {
		t.Error("expected error for unreadable pdf")
	}
}

func TestExtractTextUnsupported(t *testing.T) {
	path := writeFixture(t, "tool.exe", "MZ")

	_, err := ExtractText(path, "exe")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("err = %v, want ErrUnsupportedType", err)
	}
}

func TestExtractTextMissingFile(t *testing.T) {
	_, err := ExtractText(filepath.Join(t.TempDir(), "ghost.txt"), "txt")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		filetype string
		want     bool
	}{
		{"txt", true},
		{"MD", true},
		{"htm", true},
		{"html", true},
		{"pdf", true},
		{"DOCX", true},
		{"exe", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsSupported(tt.filetype); got != tt.want {
			t.Errorf("IsSupported(%q) = %v, want %v", tt.filetype, got, tt.want)
		}
	}
}
