package normalizer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bpollino/angelina-jail-activity-automation/internal/airtable"
)

// Column names seen across schema revisions of the bookings table, in lookup order.
var (
	nameColumns        = []string{"Name", "Full Name"}
	firstNameColumns   = []string{"First Name"}
	middleNameColumns  = []string{"Middle Name"}
	lastNameColumns    = []string{"Last Name"}
	ageColumns         = []string{"Age"}
	sexColumns         = []string{"Sex", "Gender"}
	raceColumns        = []string{"Race"}
	heightColumns      = []string{"Height"}
	weightColumns      = []string{"Weight"}
	bookingTimeColumns = []string{"Booking Time"}
	releaseDateColumns = []string{"Release Date", "Released"}
	releaseTimeColumns = []string{"Release Time"}
	offenseColumns     = []string{"Offenses", "Charges", "Offense"}
	degreeColumns      = []string{"Degrees", "Degree"}
	bondColumns        = []string{"Bond Amounts", "Bond Amount", "Bonds"}
	mugshotColumns     = []string{"Mugshot URL", "Mugshot", "Photo"}
	agencyColumns      = []string{"Arresting Agencies", "Arresting Agency", "Agency"}
	detailColumns      = []string{"Detail Link", "Details URL"}
)

// ColumnGroup is one booking attribute and the columns that may carry it.
type ColumnGroup struct {
	Attribute string
	Columns   []string
	Required  bool
}

// ColumnGroups lists the attributes the processor reads, for schema diagnostics.
func ColumnGroups(bookingDateColumn string) []ColumnGroup {
	name := append(append([]string(nil), nameColumns...), firstNameColumns...)
	name = append(name, lastNameColumns...)

	return []ColumnGroup{
		{Attribute: "name", Columns: name, Required: true},
		{Attribute: "booking date", Columns: []string{bookingDateColumn}, Required: true},
		{Attribute: "booking time", Columns: bookingTimeColumns},
		{Attribute: "charges", Columns: offenseColumns, Required: true},
		{Attribute: "degrees", Columns: degreeColumns},
		{Attribute: "bonds", Columns: bondColumns},
		{Attribute: "release", Columns: append(append([]string(nil), releaseDateColumns...), releaseTimeColumns...)},
		{Attribute: "age", Columns: ageColumns},
		{Attribute: "sex", Columns: sexColumns},
		{Attribute: "race", Columns: raceColumns},
		{Attribute: "height", Columns: heightColumns},
		{Attribute: "weight", Columns: weightColumns},
		{Attribute: "mugshot", Columns: mugshotColumns},
		{Attribute: "agency", Columns: agencyColumns},
		{Attribute: "detail link", Columns: detailColumns},
	}
}

// text returns the first non-blank value among columns, rendered as display text.
// Arrays (lookup and multi-select cells) are joined with "; " so their entries stay
// separable by the charge parser even when they contain commas.
func text(f airtable.Fields, columns ...string) string {
	for _, col := range columns {
		v, ok := f[col]
		if !ok || v == nil {
			continue
		}

		if s := strings.TrimSpace(stringify(v)); s != "" {
			return s
		}
	}

	return ""
}

// has reports whether any of columns holds a non-blank value.
func has(f airtable.Fields, columns ...string) bool {
	return text(f, columns...) != ""
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return fmt.Sprintf("%g", val)
	case int:
		return fmt.Sprintf("%d", val)
	case bool:
		if val {
			return "Yes"
		}

		return ""
	case []any:
		parts := make([]string, 0, len(val))

		for _, item := range val {
			if s := strings.TrimSpace(stringify(item)); s != "" {
				parts = append(parts, s)
			}
		}

		return strings.Join(parts, "; ")
	case map[string]any:
		// Attachment objects and linked-record expansions.
		for _, key := range []string{"url", "name", "value"} {
			if s, ok := val[key].(string); ok {
				return s
			}
		}

		return ""
	default:
		return fmt.Sprint(val)
	}
}

// attachmentURL returns the URL of the first attachment in an attachment cell, or the
// cell itself when it is a plain string.
func attachmentURL(f airtable.Fields, columns ...string) string {
	for _, col := range columns {
		switch val := f[col].(type) {
		case string:
			if s := strings.TrimSpace(val); s != "" {
				return s
			}
		case []any:
			for _, item := range val {
				if m, ok := item.(map[string]any); ok {
					if u, ok := m["url"].(string); ok && strings.TrimSpace(u) != "" {
						return strings.TrimSpace(u)
					}
				}

				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
			}
		}
	}

	return ""
}
