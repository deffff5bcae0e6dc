// Package extract reads the text out of meal-plan documents: plain text, PDF
// (including the plans this service renders), DOCX, ODT, RTF and spreadsheets.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fikafood/fika/internal/models"
)

// MaxDocumentBytes bounds the size of a document handed to Extract.
const MaxDocumentBytes = 20 << 20

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported reports whether ext (with leading dot) can be extracted.
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".pdf", ".docx", ".odt", ".rtf", ".xlsx", ".txt", ".md", "":
		return true
	}
	return false
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}
	if info.Size() > MaxDocumentBytes {
		return "", models.NewValidationError("file", fmt.Sprintf("%s is larger than %d bytes", filepath.Base(path), MaxDocumentBytes))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf"). Paragraph and row breaks
// come out as newlines so labeled plan sections stay on their own lines.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".odt":
		return extractODT(content)
	case ".rtf":
		return extractRTF(content)
	case ".xlsx":
		return extractExcel(content)
	case ".txt", ".md", "":
		return extractPlain(content)
	}
	return "", models.NewValidationError("file", fmt.Sprintf("unsupported document type %q", ext))
}
