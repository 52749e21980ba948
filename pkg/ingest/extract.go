package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

// ErrUnsupportedType is returned when no extractor exists for a file type.
var ErrUnsupportedType = errors.New("unsupported file type")

// ExtractText pulls plain text out of an uploaded file. Plain text and
// markdown pass through verbatim, HTML is stripped to its text nodes,
// PDF and DOCX go through their respective format readers.
func ExtractText(filepath string, filetype string) (string, error) {
	switch strings.ToLower(filetype) {
	case "txt", "md":
		data, err := os.ReadFile(filepath)
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		return string(data), nil
	case "html", "htm":
		f, err := os.Open(filepath)
		if err != nil {
			return "", fmt.Errorf("open file: %w", err)
		}
		defer f.Close()

		doc, err := html.Parse(f)
		if err != nil {
			return "", fmt.Errorf("parse html: %w", err)
		}
		var sb strings.Builder
		collectText(doc, &sb)
		return sb.String(), nil
	case "pdf":
		return extractPdf(filepath)
	case "docx":
		return extractDocx(filepath)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, filetype)
	}
}

func extractPdf(filepath string) (string, error) {
	f, reader, err := pdf.Open(filepath)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	body, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

// extractDocx reads word/document.xml from the docx archive and keeps
// the text runs, one paragraph per line.
func extractDocx(filepath string) (string, error) {
	archive, err := zip.OpenReader(filepath)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer archive.Close()

	var document io.ReadCloser
	for _, file := range archive.File {
		if file.Name == "word/document.xml" {
			document, err = file.Open()
			if err != nil {
				return "", fmt.Errorf("open docx document: %w", err)
			}
			break
		}
	}
	if document == nil {
		return "", errors.New("docx has no word/document.xml")
	}
	defer document.Close()

	var sb strings.Builder
	decoder := xml.NewDecoder(document)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx document: %w", err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				var text string
				if err := decoder.DecodeElement(&text, &t); err != nil {
					return "", fmt.Errorf("parse docx text run: %w", err)
				}
				sb.WriteString(text)
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				sb.WriteString("\n")
			}
		}
	}
	return sb.String(), nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	if n.Type == html.TextNode {
		text := strings.TrimSpace(n.Data)
		if text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

// SupportedTypes lists the file types the extractor understands, in the
// order they are advertised to clients.
func SupportedTypes() []string {
	return []string{"txt", "md", "html", "pdf", "docx"}
}

// IsSupported reports whether a file type can be extracted.
func IsSupported(filetype string) bool {
	switch strings.ToLower(filetype) {
	case "txt", "md", "html", "htm", "pdf", "docx":
		return true
	}
	return false
}
