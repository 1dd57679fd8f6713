package metadata

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const body = `<div data-block="disclaimer">Notice</div>
<div data-block="footer">Footer</div>`

func TestSignAndVerify(t *testing.T) {
	signed := Sign(body, Metadata{
		ArticleDate: "2025-09-19",
		Format:      "html",
		Records:     3,
		Validation:  true,
		LastModify:  time.Date(2025, 9, 20, 6, 0, 0, 0, time.UTC),
	})

	if !strings.HasPrefix(signed, body) {
		t.Fatal("signed content should start with the body")
	}

	ok, err := Verify(signed)
	if !ok || err != nil {
		t.Fatalf("Verify() = %v, %v", ok, err)
	}

	meta, clean := Extract(signed)
	if clean != body {
		t.Errorf("Extract() body = %q", clean)
	}

	if meta.ArticleDate != "2025-09-19" || meta.Format != "html" || meta.Records != 3 || !meta.Validation {
		t.Errorf("Extract() meta = %+v", meta)
	}

	if !meta.LastModify.Equal(time.Date(2025, 9, 20, 6, 0, 0, 0, time.UTC)) {
		t.Errorf("LastModify = %v", meta.LastModify)
	}
}

func TestVerify_DetectsTampering(t *testing.T) {
	signed := Sign(body, Metadata{Validation: true})
	tampered := strings.Replace(signed, "Notice", "Changed", 1)

	ok, err := Verify(tampered)
	if ok || !errors.Is(err, ErrHashMismatch) {
		t.Fatalf("Verify() = %v, %v; want ErrHashMismatch", ok, err)
	}
}

func TestVerify_NoBlock(t *testing.T) {
	if _, err := Verify(body); !errors.Is(err, ErrNoMetadataBlock) {
		t.Fatalf("Verify() error = %v, want ErrNoMetadataBlock", err)
	}
}

func TestSign_ReplacesExistingBlock(t *testing.T) {
	once := Sign(body, Metadata{Records: 1})
	twice := Sign(once, Metadata{Records: 2})

	if strings.Count(twice, TagStart) != 1 {
		t.Fatalf("expected exactly one metadata block, got:\n%s", twice)
	}

	meta, _ := Extract(twice)
	if meta.Records != 2 {
		t.Errorf("Records = %d, want 2", meta.Records)
	}
}

func TestOpen(t *testing.T) {
	_, clean, err := Open(Sign(body, Metadata{Validation: true}))
	if err != nil || clean != body {
		t.Fatalf("Open() = %q, %v", clean, err)
	}

	if _, _, err := Open(Sign(body, Metadata{})); !errors.Is(err, ErrNotValidated) {
		t.Errorf("Open() unvalidated error = %v, want ErrNotValidated", err)
	}
}
