// Package sniffer inspects raw upload bytes before parsing.
// It strips byte-order marks, repairs legacy single-byte encodings, detects
// XLSX containers and guesses the CSV delimiter from the first real line.
package sniffer

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrEmptyFile is returned for uploads with no content.
var ErrEmptyFile = errors.New("file is empty")

var (
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
	zipMagic = []byte{'P', 'K', 0x03, 0x04}
)

// Kind is the container type of an upload.
type Kind int

const (
	KindCSV Kind = iota
	KindXLSX
)

func (k Kind) String() string {
	if k == KindXLSX {
		return "xlsx"
	}
	return "csv"
}

// Sample describes an upload after sniffing.
type Sample struct {
	Kind      Kind
	Data      []byte // UTF-8 text for CSV, untouched bytes for XLSX
	Delimiter rune   // zero for XLSX
}

// Sniff classifies data and normalizes CSV text to UTF-8.
func Sniff(data []byte) (*Sample, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}
	if IsXLSX(data) {
		return &Sample{Kind: KindXLSX, Data: data}, nil
	}

	text := NormalizeText(data)
	return &Sample{
		Kind:      KindCSV,
		Data:      text,
		Delimiter: DetectDelimiter(text),
	}, nil
}

// IsXLSX reports whether data starts with a zip local file header.
func IsXLSX(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

// NormalizeText strips a UTF-8 BOM and decodes Windows-1252 when the input is
// not valid UTF-8.
func NormalizeText(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}
	return decoded
}

// DetectDelimiter picks the most frequent candidate delimiter on the first
// non-blank line. Comma is the fallback.
func DetectDelimiter(text []byte) rune {
	for _, line := range strings.Split(string(text), "\n") {
		line = strings.TrimSpace(strings.TrimRight(line, "\r"))
		if line == "" {
			continue
		}
		if d, count := detectDelimiter(line); count > 0 {
			return d
		}
		return ','
	}
	return ','
}

func detectDelimiter(line string) (rune, int) {
	// comma first so it wins ties
	delimiters := []rune{',', ';', '\t', '|'}
	bestDelimiter := rune(0)
	bestCount := 0
	for _, d := range delimiters {
		count := strings.Count(line, string(d))
		if count > bestCount {
			bestCount = count
			bestDelimiter = d
		}
	}
	return bestDelimiter, bestCount
}

// HeaderFingerprint hashes normalized header names. Two exports with the same
// header layout share a fingerprint, which makes auto-detect logs comparable.
func HeaderFingerprint(headers []string) string {
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

	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}
