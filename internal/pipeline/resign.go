package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bpollino/angelina-jail-activity-automation/internal/config"
	"github.com/bpollino/angelina-jail-activity-automation/internal/validator"
	"github.com/bpollino/angelina-jail-activity-automation/pkg/metadata"
)

// FormatFromPath guesses a body format from a file extension.
func FormatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return config.FormatLexical
	}

	return config.FormatHTML
}

// Resign validates the body of an article file again and rewrites the file with a fresh
// metadata block. A file without a block takes its format from the extension and is
// checked without an expected record count.
func Resign(path string, now time.Time) (*validator.ValidationResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	meta, body := metadata.Extract(string(raw))

	next := metadata.Metadata{Format: FormatFromPath(path)}
	expected := validator.AnyCount

	if meta != nil {
		next = *meta
		expected = meta.Records

		if next.Format == "" {
			next.Format = FormatFromPath(path)
		}
	}

	next.LastModify = now

	res := Validate(validator.NewArticleValidator(), body, next.Format, expected)
	next.Validation = res.IsValid

	if meta == nil {
		next.Records = res.Stats.RecordCards
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, []byte(metadata.Sign(body, next)), info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return res, nil
}
