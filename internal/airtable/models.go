package airtable

import (
	"strings"
	"time"
)

// Fields is the loosely typed cell map of one record. Numbers decode as json.Number.
type Fields map[string]any

// Record is one row as returned by the API.
type Record struct {
	ID          string `json:"id"`
	CreatedTime string `json:"createdTime,omitempty"`
	Fields      Fields `json:"fields"`
}

// Attachment is one element of an attachment cell. Writes may pass only URL and Filename.
type Attachment struct {
	ID       string `json:"id,omitempty"`
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
	Type     string `json:"type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// Table describes one table in the base schema.
type Table struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	PrimaryFieldID string  `json:"primaryFieldId"`
	Fields         []Field `json:"fields"`
}

// Field describes one column.
type Field struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

type tablesResponse struct {
	Tables []Table `json:"tables"`
}

type writeRequest struct {
	Fields   Fields `json:"fields"`
	Typecast bool   `json:"typecast,omitempty"`
}

// Quote renders s as a formula string literal.
func Quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)

	return "'" + s + "'"
}

// FieldRef renders a field name reference for use in a formula.
func FieldRef(name string) string {
	return "{" + strings.ReplaceAll(name, "}", `\}`) + "}"
}

// Instant renders t as a formula datetime literal in UTC.
func Instant(t time.Time) string {
	return Quote(t.UTC().Format(time.RFC3339))
}

// And joins formula clauses.
func And(clauses ...string) string {
	return "AND(" + strings.Join(clauses, ", ") + ")"
}
