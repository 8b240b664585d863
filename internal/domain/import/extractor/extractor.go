// Package extractor turns uploaded statement files into plain statement
// text for the parsing pipeline. PDF extraction happens client-side or in a
// separate tool; this package handles the text-bearing formats: plain text,
// CSV/TSV, and Excel workbooks.
package extractor

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/mapleledger/mapleledger/internal/domain/import/sniffer"
)

// ErrUnsupportedFormat is returned for file extensions the extractor does
// not handle.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// cellGap separates row cells in the rendered text. Two spaces so the
// pipeline's column-split heuristics see the original column boundaries.
const cellGap = "  "

// Extract converts an uploaded file into statement text. The filename's
// extension selects the decoder.
func Extract(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return normalizeText(data), nil
	case ".csv", ".tsv":
		return extractCSV(data)
	case ".xlsx":
		return extractExcel(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// extractCSV renders every row of a delimited file as one text line. The
// sniffer supplies the delimiter; metadata lines above the header are kept
// because the bank detector reads them for institution markers.
func extractCSV(data []byte) (string, error) {
	data = []byte(normalizeText(data))

	delimiter := ','
	if cfg, err := sniffer.DetectConfig(data); err == nil {
		delimiter = cfg.Delimiter
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var b strings.Builder
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed rows are statement noise, same as unparseable lines.
			continue
		}
		writeRow(&b, record)
	}
	return b.String(), nil
}

// extractExcel renders the first sheet of a workbook as text lines.
func extractExcel(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	var b strings.Builder
	for _, row := range rows {
		writeRow(&b, row)
	}
	return b.String(), nil
}

func writeRow(b *strings.Builder, cells []string) {
	wrote := false
	for _, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if wrote {
			b.WriteString(cellGap)
		}
		b.WriteString(cell)
		wrote = true
	}
	b.WriteByte('\n')
}

// normalizeText strips a UTF-8 BOM and re-decodes Latin-1 uploads so the
// parser always sees valid UTF-8.
func normalizeText(data []byte) string {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	if utf8.Valid(data) {
		return string(data)
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}
