// Package article builds the daily jail activity article as a typed block model and
// serializes it to flat HTML or a Ghost Lexical document.
package article

import (
	"time"

	"github.com/bpollino/angelina-jail-activity-automation/internal/models"
)

// Kind names a block variant.
type Kind string

// Block kinds in the order they may appear.
const (
	KindDisclaimer    Kind = "disclaimer"
	KindAttribution   Kind = "attribution"
	KindSpacer        Kind = "spacer"
	KindAdvertisement Kind = "advertisement"
	KindNoActivity    Kind = "no-activity"
	KindRecordCard    Kind = "record-card"
	KindFooter        Kind = "footer"
)

// Block is one top-level element of a Document.
type Block interface {
	Kind() Kind
}

// Disclaimer is the fixed legal notice opening every article.
type Disclaimer struct {
	Text     string
	LinkText string
	LinkURL  string
}

// Attribution credits the data source.
type Attribution struct {
	Text string
}

// Spacer separates the preamble from the body.
type Spacer struct{}

// Advertisement is the single sponsored slot of an article.
type Advertisement struct {
	Ad models.AdvertisementRecord
}

// NoActivity replaces the record cards on a day without bookings.
type NoActivity struct {
	Date time.Time
	Text string
}

// RecordCard presents one booking.
type RecordCard struct {
	Record models.BookingRecord
	View   CardView
}

// Footer closes the article with the publisher line, topical chips and share links.
// Share links are only shown when the post URL is known.
type Footer struct {
	Text  string
	Tags  []string
	URL   string
	Share ShareLinks
}

func (Disclaimer) Kind() Kind    { return KindDisclaimer }
func (Attribution) Kind() Kind   { return KindAttribution }
func (Spacer) Kind() Kind        { return KindSpacer }
func (Advertisement) Kind() Kind { return KindAdvertisement }
func (NoActivity) Kind() Kind    { return KindNoActivity }
func (RecordCard) Kind() Kind    { return KindRecordCard }
func (Footer) Kind() Kind        { return KindFooter }

// Document is the rendered article before serialization.
type Document struct {
	Date   time.Time
	Title  string
	Blocks []Block
}

// Kinds lists the block kinds in order.
func (d *Document) Kinds() []Kind {
	kinds := make([]Kind, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		kinds = append(kinds, b.Kind())
	}

	return kinds
}

// Count returns how many blocks of kind the document holds.
func (d *Document) Count(kind Kind) int {
	n := 0

	for _, b := range d.Blocks {
		if b.Kind() == kind {
			n++
		}
	}

	return n
}

// Cards returns the record cards in order.
func (d *Document) Cards() []RecordCard {
	var cards []RecordCard

	for _, b := range d.Blocks {
		if c, ok := b.(RecordCard); ok {
			cards = append(cards, c)
		}
	}

	return cards
}
