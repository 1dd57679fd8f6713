package article

import (
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/bpollino/angelina-jail-activity-automation/internal/models"
	"github.com/bpollino/angelina-jail-activity-automation/pkg/utils"
)

// Display text for missing values.
const (
	NotProvided     = "Not provided"
	StillInCustody  = "Still in custody"
	NoChargesListed = "No charges listed"
	PhotoNotAvail   = "Photo Not Available"
)

// Moment layouts.
const (
	dateLayout     = "01/02/2006"
	dateTimeLayout = "01/02/2006 15:04"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var httpHelper = utils.NewHTTPHelper()

// ValidImageURL reports whether raw is an absolute http(s) URL whose path ends in a
// recognized image extension. Only the string is judged; nothing is fetched.
func ValidImageURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if !httpHelper.IsHTTPURL(raw) {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return imageExtensions[strings.ToLower(path.Ext(u.Path))]
}

// FormatMoment renders MM/DD/YYYY, adding HH:MM only when the time was recorded.
func FormatMoment(m models.Moment) string {
	if m.IsZero() {
		return NotProvided
	}

	if m.HasTime {
		return m.At.Format(dateTimeLayout)
	}

	return m.At.Format(dateLayout)
}

// LongDate renders "Friday, September 19, 2025".
func LongDate(d time.Time) string {
	return d.Format("Monday, January 2, 2006")
}

// Field is one labelled line of a record card.
type Field struct {
	Label string
	Value string
}

// CardView is the display form of a booking, computed once so both serializers agree.
type CardView struct {
	Anchor     string
	Name       string
	MugshotURL string
	Fields     []Field
	Charges    []string
	Share      ShareableRecord
}

// HasMugshot reports whether the card shows an image instead of the placeholder.
func (v CardView) HasMugshot() bool {
	return v.MugshotURL != ""
}

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotProvided
	}

	return s
}

func newCardView(r models.BookingRecord, opts Options, postURL string) CardView {
	v := CardView{
		Anchor: "record-" + r.ID,
		Name:   orNotProvided(r.FullName),
	}

	if ValidImageURL(r.MugshotURL) {
		v.MugshotURL = strings.TrimSpace(r.MugshotURL)
	}

	released := StillInCustody
	if r.Released != nil {
		released = FormatMoment(*r.Released)
	}

	v.Fields = []Field{
		{"Age", orNotProvided(r.Age)},
		{"Sex", orNotProvided(r.Sex)},
		{"Race", orNotProvided(r.Race)},
		{"Height", orNotProvided(r.Height)},
		{"Weight", orNotProvided(r.Weight)},
		{"Booked", FormatMoment(r.Booked)},
		{"Released", released},
	}

	if a := strings.TrimSpace(r.ArrestingAgency); a != "" {
		v.Fields = append(v.Fields, Field{"Arresting Agency", a})
	}

	for _, c := range r.Charges {
		v.Charges = append(v.Charges, chargeText(c, opts.ShowBonds))
	}

	v.Share = newShareableRecord(r, v.Anchor, v.Name, opts.Masthead, postURL)

	return v
}

func chargeText(c models.ChargeEntry, showBond bool) string {
	s := c.Description
	if c.Degree != "" {
		s += " (" + c.Degree + ")"
	}

	if showBond && c.BondAmount != "" {
		s += " - Bond: " + c.BondAmount
	}

	return s
}
