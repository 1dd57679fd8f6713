package normalizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bpollino/angelina-jail-activity-automation/internal/airtable"
)

// ErrNoRecords is returned by DecodeRecords for input that holds no record list.
var ErrNoRecords = errors.New("input holds no records")

// DecodeRecords reads rows saved from the records API: either a list response with a
// "records" key or a bare array. Numbers decode as json.Number, as the client does.
func DecodeRecords(data []byte) ([]airtable.Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrNoRecords
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	if trimmed[0] == '[' {
		var recs []airtable.Record
		if err := dec.Decode(&recs); err != nil {
			return nil, fmt.Errorf("failed to decode records: %w", err)
		}

		return recs, nil
	}

	var page struct {
		Records *[]airtable.Record `json:"records"`
	}

	if err := dec.Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	if page.Records == nil {
		return nil, ErrNoRecords
	}

	return *page.Records, nil
}
