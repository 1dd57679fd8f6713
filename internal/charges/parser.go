// Package charges splits the delimited offense, degree and bond text of a booking into
// ordered charge entries.
package charges

import (
	"errors"
	"strings"

	"github.com/bpollino/angelina-jail-activity-automation/internal/models"
)

// ErrDelimiterMismatch is returned in strict mode when offenses and degrees are split on
// different delimiters, which would pair charges with the wrong degree.
var ErrDelimiterMismatch = errors.New("offenses and degrees use different delimiters")

// Delimiters in detection order.
const (
	Semicolon = ";"
	Comma     = ","
)

// Parser turns raw charge text into charge entries.
type Parser struct {
	// StrictDelimiters rejects degree lists split on a different delimiter than the
	// offenses. When false, each field is split on its own delimiter and paired by index.
	StrictDelimiters bool
}

// NewParser creates a parser. Strict mode is the default for new content.
func NewParser(strict bool) *Parser {
	return &Parser{StrictDelimiters: strict}
}

// DetectDelimiter returns ";" if s contains one, else "," if s contains one, else "".
func DetectDelimiter(s string) string {
	switch {
	case strings.Contains(s, Semicolon):
		return Semicolon
	case strings.Contains(s, Comma):
		return Comma
	default:
		return ""
	}
}

// Split breaks s on its detected delimiter, trimming entries and dropping empty ones.
// Text without a delimiter is a single entry.
func Split(s string) []string {
	return SplitOn(s, DetectDelimiter(s))
}

// SplitOn breaks s on delim, trimming entries and dropping empty ones. An empty delim
// yields s as a single entry.
func SplitOn(s, delim string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if delim == "" {
		return []string{s}
	}

	var out []string

	for _, part := range strings.Split(s, delim) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	return out
}

// Parse pairs offenses with degrees and bonds by index. Missing degrees or bonds are
// blank. A single charge keeps the degree and bond text whole. Bonds only split on ";"
// so currency separators survive. In strict mode a delimiter mismatch between offenses
// and degrees returns the charges without degrees together with ErrDelimiterMismatch.
func (p *Parser) Parse(offenses, degrees, bonds string) ([]models.ChargeEntry, error) {
	descriptions := Split(offenses)
	if len(descriptions) == 0 {
		return nil, nil
	}

	if len(descriptions) == 1 {
		return []models.ChargeEntry{{
			Description: descriptions[0],
			Degree:      strings.TrimSpace(degrees),
			BondAmount:  strings.TrimSpace(bonds),
		}}, nil
	}

	var err error

	degreeList := Split(degrees)

	if p.StrictDelimiters && mismatched(offenses, degrees) {
		degreeList = nil
		err = ErrDelimiterMismatch
	}

	bondList := SplitOn(bonds, Semicolon)

	entries := make([]models.ChargeEntry, 0, len(descriptions))
	for i, desc := range descriptions {
		entries = append(entries, models.ChargeEntry{
			Description: desc,
			Degree:      at(degreeList, i),
			BondAmount:  at(bondList, i),
		})
	}

	return entries, err
}

func mismatched(offenses, degrees string) bool {
	a, b := DetectDelimiter(offenses), DetectDelimiter(degrees)

	return a != "" && b != "" && a != b
}

func at(list []string, i int) string {
	if i < len(list) {
		return list[i]
	}

	return ""
}
