package article

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Masthead carries the publication branding that titles and links are derived from.
type Masthead struct {
	Brand    string
	Subject  string
	SiteName string
	SiteURL  string
}

// DefaultMasthead is the production branding.
func DefaultMasthead() Masthead {
	return Masthead{
		Brand:    "Angelina County",
		Subject:  "Arrests",
		SiteName: "Angelina411.com",
		SiteURL:  "https://angelina-411.ghost.io",
	}
}

// Title is "<Brand> <Subject> - <weekday of date>". The weekday is that of the day
// being reported on, not the day the post goes out.
func (m Masthead) Title(date time.Time) string {
	return fmt.Sprintf("%s %s - %s", m.Brand, m.Subject, date.Weekday())
}

// Slug is the post slug for date, e.g. angelina-county-arrests-friday-9-19-2025.
func (m Masthead) Slug(date time.Time) string {
	return slugify(fmt.Sprintf("%s %s %s %d %d %d",
		m.Brand, m.Subject, date.Weekday(), int(date.Month()), date.Day(), date.Year()))
}

// PostURL is the canonical URL the post will have once published, or "" without a site URL.
func (m Masthead) PostURL(date time.Time) string {
	if m.SiteURL == "" {
		return ""
	}

	return strings.TrimRight(m.SiteURL, "/") + "/" + m.Slug(date) + "/"
}

func slugify(s string) string {
	var b strings.Builder

	dash := false

	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)

			dash = false

			continue
		}

		if !dash && b.Len() > 0 {
			b.WriteByte('-')

			dash = true
		}
	}

	return strings.TrimRight(b.String(), "-")
}
