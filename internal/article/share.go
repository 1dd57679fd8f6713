package article

import (
	"net/url"

	"github.com/bpollino/angelina-jail-activity-automation/internal/models"
)

// ShareableRecord is the view a share widget needs for one booking.
type ShareableRecord struct {
	RecordID string
	Name     string
	URL      string
	Text     string
}

func newShareableRecord(r models.BookingRecord, anchor, name string, m Masthead, postURL string) ShareableRecord {
	return ShareableRecord{
		RecordID: r.ID,
		Name:     name,
		URL:      postURL + "#" + anchor,
		Text:     m.Brand + " " + m.Subject + " - " + name,
	}
}

// Links returns the share targets for the record.
func (s ShareableRecord) Links() ShareLinks {
	return newShareLinks(s.URL, s.Text)
}

// ShareLinks are the outbound share URLs for one page or record.
type ShareLinks struct {
	Facebook string
	Twitter  string
	LinkedIn string
	Email    string
}

func newShareLinks(target, text string) ShareLinks {
	u := url.QueryEscape(target)

	return ShareLinks{
		Facebook: "https://www.facebook.com/sharer/sharer.php?u=" + u,
		Twitter:  "https://twitter.com/intent/tweet?text=" + url.QueryEscape(text) + "&url=" + u,
		LinkedIn: "https://www.linkedin.com/sharing/share-offsite/?url=" + u,
		Email:    "mailto:?subject=" + url.PathEscape(text) + "&body=" + url.PathEscape(target),
	}
}
