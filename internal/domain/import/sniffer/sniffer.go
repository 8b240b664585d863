// Package sniffer detects the shape of delimited statement exports:
// delimiter, metadata lines before the header, header names, and a
// fingerprint used to recognize a bank's export format on later uploads.
package sniffer

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"unicode"
)

// headerKeywords are column names seen across Canadian bank CSV exports,
// English and French.
var headerKeywords = []string{
	"date", "description", "amount", "debit", "credit", "balance",
	"withdrawals", "deposits", "merchant", "payee", "memo",
	"solde", "retrait", "montant",
}

// FileConfig is the detected configuration of a delimited file.
type FileConfig struct {
	Delimiter   rune       // field delimiter (',', ';', '\t', '|')
	SkipLines   int        // metadata lines before the header row
	Headers     []string   // detected header names
	Fingerprint string     // hash of normalized headers, stable per export format
	SampleRows  [][]string // first few data rows for preview
}

// ColumnSuggestions maps detected headers to transaction fields. An index
// of -1 means the column was not found.
type ColumnSuggestions struct {
	DateCol       int
	DescCol       int
	AmountCol     int // single signed amount column
	DebitCol      int
	CreditCol     int
	BalanceCol    int
	IsDoubleEntry bool // separate withdrawal/deposit columns
}

var (
	ErrEmptyFile        = errors.New("file is empty")
	ErrNoHeadersFound   = errors.New("could not find data headers")
	ErrInvalidDelimiter = errors.New("could not detect valid delimiter")
)

// DetectConfig analyzes a delimited file and returns its configuration.
func DetectConfig(data []byte) (*FileConfig, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	lines := strings.Split(string(data), "\n")
	delimiter, skipLines, err := findHeaderRow(lines)
	if err != nil {
		return nil, err
	}

	headerLine := cleanLine(lines[skipLines], skipLines == 0)
	reader := csv.NewReader(strings.NewReader(headerLine))
	reader.Comma = delimiter
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	return &FileConfig{
		Delimiter:   delimiter,
		SkipLines:   skipLines,
		Headers:     headers,
		Fingerprint: fingerprint(headers),
		SampleRows:  sampleRows(data, delimiter, skipLines+1, 5),
	}, nil
}

// SuggestColumns matches header names to transaction fields. RBC and CIBC
// chequing exports use separate withdrawal/deposit columns; credit exports
// use one signed amount column.
func SuggestColumns(headers []string) *ColumnSuggestions {
	s := &ColumnSuggestions{
		DateCol: -1, DescCol: -1, AmountCol: -1,
		DebitCol: -1, CreditCol: -1, BalanceCol: -1,
	}

	for i, header := range headers {
		h := strings.ToLower(strings.TrimSpace(header))
		switch {
		case s.DateCol == -1 && strings.Contains(h, "date"):
			s.DateCol = i
		case s.DescCol == -1 && (strings.Contains(h, "desc") ||
			strings.Contains(h, "merchant") || strings.Contains(h, "payee") ||
			strings.Contains(h, "memo")):
			s.DescCol = i
		case s.DebitCol == -1 && (strings.Contains(h, "debit") ||
			strings.Contains(h, "withdrawal") || strings.Contains(h, "retrait")):
			s.DebitCol = i
		case s.CreditCol == -1 && (strings.Contains(h, "credit") ||
			strings.Contains(h, "deposit")):
			s.CreditCol = i
		case s.BalanceCol == -1 && (strings.Contains(h, "balance") || strings.Contains(h, "solde")):
			s.BalanceCol = i
		case s.AmountCol == -1 && (h == "amount" || h == "montant"):
			s.AmountCol = i
		}
	}

	s.IsDoubleEntry = s.DebitCol != -1 && s.CreditCol != -1
	return s
}

// findHeaderRow locates the header row and its delimiter. Bank exports
// often open with account metadata lines before the real header; the line
// with the most columns and the most header keywords wins.
func findHeaderRow(lines []string) (rune, int, error) {
	bestIndex := -1
	bestDelimiter := rune(0)
	bestScore := 0

	fallbackIndex := -1
	fallbackDelimiter := rune(0)
	fallbackCount := 0

	for i, line := range lines {
		if i > 20 {
			break
		}
		line = cleanLine(line, i == 0)
		if line == "" {
			continue
		}

		delimiter, count := detectDelimiter(line)
		if count < 1 {
			continue
		}

		lineLower := strings.ToLower(line)
		matches := 0
		for _, kw := range headerKeywords {
			if strings.Contains(lineLower, kw) {
				matches++
			}
		}

		if matches > 0 {
			score := count*10 + matches
			if score > bestScore {
				bestScore = score
				bestDelimiter = delimiter
				bestIndex = i
			}
		} else if count > fallbackCount {
			fallbackCount = count
			fallbackDelimiter = delimiter
			fallbackIndex = i
		}
	}

	if bestIndex >= 0 {
		return bestDelimiter, bestIndex, nil
	}
	if fallbackCount >= 2 {
		return fallbackDelimiter, fallbackIndex, nil
	}
	return 0, 0, ErrNoHeadersFound
}

func cleanLine(line string, firstLine bool) string {
	line = strings.TrimRight(line, "\r")
	if firstLine {
		line = strings.TrimPrefix(line, "\uFEFF")
	}
	return strings.TrimSpace(line)
}

func detectDelimiter(line string) (rune, int) {
	best := rune(0)
	bestCount := 0
	for _, d := range []rune{',', ';', '\t', '|'} {
		if count := strings.Count(line, string(d)); count > bestCount {
			bestCount = count
			best = d
		}
	}
	return best, bestCount
}

// fingerprint hashes normalized header names so the same export format
// maps to the same value across uploads.
func fingerprint(headers []string) string {
	var normalized []string
	for _, h := range headers {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, h)
		if clean != "" {
			normalized = append(normalized, clean)
		}
	}
	sum := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(sum[:])
}

func sampleRows(data []byte, delimiter rune, startLine, maxRows int) [][]string {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	lineNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if lineNum >= startLine {
			rows = append(rows, record)
			if len(rows) >= maxRows {
				break
			}
		}
		lineNum++
	}
	return rows
}
