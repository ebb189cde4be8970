// Package extract pulls plain text out of uploaded brief documents.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	PDFMimeType  = "application/pdf"
	DOCXMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	ErrEmpty       = errors.New("file is empty")
	ErrUnsupported = errors.New("unsupported file type")
)

// MimeType prefers the extension for PDF and DOCX files and falls back to declared.
func MimeType(filename, declared string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return PDFMimeType
	case ".docx":
		return DOCXMimeType
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	}
	declared = strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))
	if declared == "" {
		return "application/octet-stream"
	}
	return declared
}

// Text extracts the text of a PDF, DOCX or plain text document.
func Text(filename, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	mt := MimeType(filename, mimeType)
	switch {
	case strings.Contains(mt, "pdf"):
		return pdfText(data)
	case strings.Contains(mt, "wordprocessingml"), strings.Contains(mt, "officedocument"):
		return docxText(data)
	case strings.HasPrefix(mt, "text/"):
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s: %w", filename, ErrUnsupported)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return "", fmt.Errorf("%s (%s): %w", filename, mt, ErrUnsupported)
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// docxText walks word/document.xml and keeps the text runs, one line per paragraph.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("docx without word/document.xml: %w", ErrUnsupported)
	}
	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document.xml: %w", err)
	}
	defer rc.Close()

	var sb strings.Builder
	dec := xml.NewDecoder(rc)
	inText := false
	for {
		tok, tErr := dec.Token()
		if errors.Is(tErr, io.EOF) {
			break
		}
		if tErr != nil {
			return "", fmt.Errorf("failed to parse document.xml: %w", tErr)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteString("\t")
			case "br", "cr":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// Truncate keeps at most n runes of text.
func Truncate(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n])
}
