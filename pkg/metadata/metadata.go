// Package metadata signs rendered article files with a trailing comment block and verifies
// them before they are published.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// TagStart is the start of the metadata block.
	TagStart = "<!-- METADATA_START"
	// TagEnd is the end of the metadata block.
	TagEnd = "METADATA_END -->"
)

// Metadata verification errors.
var (
	ErrNoMetadataBlock = errors.New("no metadata block found")
	ErrNoHashFound     = errors.New("no hash found in metadata")
	ErrHashMismatch    = errors.New("hash mismatch")
	ErrNotValidated    = errors.New("document was not validated")
)

// Metadata describes a rendered article file.
type Metadata struct {
	LastModify  time.Time
	Version     string
	Hash        string
	ArticleDate string
	Format      string
	Records     int
	Validation  bool
}

// metadataRegex matches the entire metadata block including tags.
var metadataRegex = regexp.MustCompile(`(?s)<!--\s*METADATA_START\s*\n(.*?)\n\s*METADATA_END\s*-->`)

// Extract removes the metadata block from content and returns both the metadata and the
// cleaned content. The cleaned content is what gets hashed.
func Extract(content string) (*Metadata, string) {
	match := metadataRegex.FindStringSubmatch(content)
	cleanContent := metadataRegex.ReplaceAllString(content, "")
	cleanContent = strings.TrimRight(cleanContent, "\n")

	if len(match) < 2 {
		return nil, cleanContent
	}

	meta := &Metadata{}

	for line := range strings.SplitSeq(match[1], "\n") {
		key, val, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}

		key, val = strings.TrimSpace(key), strings.TrimSpace(val)

		switch key {
		case "VALIDATION":
			meta.Validation = strings.EqualFold(val, "TRUE")
		case "LAST_MODIFY":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				meta.LastModify = t
			}
		case "HASH":
			meta.Hash = val
		case "VERSION":
			meta.Version = val
		case "ARTICLE_DATE":
			meta.ArticleDate = val
		case "FORMAT":
			meta.Format = val
		case "RECORDS":
			if n, err := strconv.Atoi(val); err == nil {
				meta.Records = n
			}
		}
	}

	return meta, cleanContent
}

// CalculateHash computes the SHA-256 hash of the content, excluding any metadata block.
func CalculateHash(content string) string {
	_, clean := Extract(content)
	hash := sha256.Sum256([]byte(clean))

	return hex.EncodeToString(hash[:])
}

// Sign replaces any metadata block on content with one describing meta and carrying a
// fresh hash. A zero LastModify is stamped with the current time.
func Sign(content string, meta Metadata) string {
	_, clean := Extract(content)

	if meta.LastModify.IsZero() {
		meta.LastModify = time.Now()
	}

	valStr := "FALSE"
	if meta.Validation {
		valStr = "TRUE"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "\n\n%s\n", TagStart)
	fmt.Fprintf(&b, "VALIDATION: %s\n", valStr)
	fmt.Fprintf(&b, "LAST_MODIFY: %s\n", meta.LastModify.UTC().Format(time.RFC3339))

	if meta.Version != "" {
		fmt.Fprintf(&b, "VERSION: %s\n", meta.Version)
	}

	if meta.ArticleDate != "" {
		fmt.Fprintf(&b, "ARTICLE_DATE: %s\n", meta.ArticleDate)
	}

	if meta.Format != "" {
		fmt.Fprintf(&b, "FORMAT: %s\n", meta.Format)
	}

	fmt.Fprintf(&b, "RECORDS: %d\n", meta.Records)
	fmt.Fprintf(&b, "HASH: %s\n%s", CalculateHash(clean), TagEnd)

	return clean + b.String()
}

// Verify checks that content matches the hash in its metadata block.
func Verify(content string) (bool, error) {
	meta, clean := Extract(content)
	if meta == nil {
		return false, ErrNoMetadataBlock
	}

	if meta.Hash == "" {
		return false, ErrNoHashFound
	}

	calculated := CalculateHash(clean)
	if calculated != meta.Hash {
		return false, fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, meta.Hash, calculated)
	}

	return true, nil
}

// Open verifies a signed file and returns its metadata and body. Unvalidated files are
// refused.
func Open(content string) (*Metadata, string, error) {
	if _, err := Verify(content); err != nil {
		return nil, "", err
	}

	meta, clean := Extract(content)
	if !meta.Validation {
		return meta, clean, ErrNotValidated
	}

	return meta, clean, nil
}
