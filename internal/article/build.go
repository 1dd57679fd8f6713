package article

import (
	"time"

	"github.com/bpollino/angelina-jail-activity-automation/internal/models"
)

// Fixed article text. The disclaimer is legal language and must not be reworded.
const (
	DisclaimerText     = "All person(s) listed below are considered innocent until proven guilty in a court of law. Information obtained from public records."
	DisclaimerLinkText = "Click here to see full disclaimer."
	DisclaimerURL      = "https://www.angelina411.com/legal-disclaimer-daily-arrest-records/"
	AttributionText    = "Booking activity data, details and images provided by courtesy of the Angelina County Sheriff's Department."
	FooterText         = "Published by Angelina411 News Team"

	// Every record card closes with a short disclaimer, as readers may reach a card
	// alone through its share anchor.
	CardDisclaimerText     = "All persons listed are innocent until proven guilty in a court of law."
	CardDisclaimerLinkText = "View full disclaimer"
)

// FooterTags are the topical chips under the publisher line.
var FooterTags = []string{"Jail", "Booking", "Community Activities"}

// Options tune rendering.
type Options struct {
	Masthead  Masthead
	ShowBonds bool
}

// DefaultOptions renders with production branding and bonds hidden.
func DefaultOptions() Options {
	return Options{Masthead: DefaultMasthead()}
}

// NoActivityPrefix opens every no-activity notice.
const NoActivityPrefix = "No booking activity recorded for "

// NoActivityText is the body of the no-activity block for date.
func NoActivityText(date time.Time) string {
	return NoActivityPrefix + LongDate(date) + "."
}

// Build lays out the article for date. Records keep their given order. The ad, when
// present, is placed once between the preamble and the body, on empty days too.
// Build is pure: equal inputs give equal documents.
func Build(records []models.BookingRecord, date time.Time, ad *models.AdvertisementRecord, opts Options) *Document {
	postURL := opts.Masthead.PostURL(date)

	doc := &Document{
		Date:  date,
		Title: opts.Masthead.Title(date),
		Blocks: []Block{
			Disclaimer{Text: DisclaimerText, LinkText: DisclaimerLinkText, LinkURL: DisclaimerURL},
			Attribution{Text: AttributionText},
			Spacer{},
		},
	}

	if ad != nil {
		doc.Blocks = append(doc.Blocks, Advertisement{Ad: *ad})
	}

	if len(records) == 0 {
		doc.Blocks = append(doc.Blocks, NoActivity{Date: date, Text: NoActivityText(date)})
	}

	for _, r := range records {
		doc.Blocks = append(doc.Blocks, RecordCard{Record: r, View: newCardView(r, opts, postURL)})
	}

	doc.Blocks = append(doc.Blocks, Footer{
		Text:  FooterText,
		Tags:  append([]string(nil), FooterTags...),
		URL:   postURL,
		Share: newShareLinks(postURL, doc.Title),
	})

	return doc
}

// Shareables returns the share view of every record card in order.
func (d *Document) Shareables() []ShareableRecord {
	cards := d.Cards()

	out := make([]ShareableRecord, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.View.Share)
	}

	return out
}
