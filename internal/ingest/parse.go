package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("ingest: unsupported file format")
	ErrEmptyDocument     = errors.New("ingest: document has no text")
	ErrCorruptDocument   = errors.New("ingest: document could not be read")
)

// SupportedExtensions lists the upload formats ParseFile understands.
var SupportedExtensions = []string{".txt", ".md", ".pdf", ".xlsx"}

// ParseFile extracts text from an uploaded file, picking the parser by the
// extension of filename.
func ParseFile(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		text string
		err  error
	)
	switch ext {
	case ".txt", ".md":
		text = strings.ToValidUTF8(string(data), "")
	case ".pdf":
		text, err = parsePDF(data)
	case ".xlsx":
		text, err = parseXLSX(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyDocument, filename)
	}
	return text, nil
}

func parsePDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: pdf reader: %v", ErrCorruptDocument, err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: pdf plaintext: %v", ErrCorruptDocument, err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return CollapseWhitespace(string(b)), nil
}

// sheetRows is the part of *excelize.File the renderer reads.
type sheetRows interface {
	GetSheetList() []string
	GetRows(sheet string, opts ...excelize.Options) ([][]string, error)
}

func parseXLSX(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: opening XLSX: %v", ErrCorruptDocument, err)
	}
	defer f.Close()
	return renderSheets(f)
}

// renderSheets renders every sheet as lines of tab-separated cells. A sheet
// that cannot be read fails the whole document.
func renderSheets(book sheetRows) (string, error) {
	var sb strings.Builder
	for _, sheet := range book.GetSheetList() {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("%w: reading sheet %q: %v", ErrCorruptDocument, sheet, err)
		}
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}
