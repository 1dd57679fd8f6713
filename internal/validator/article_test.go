package validator

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bpollino/angelina-jail-activity-automation/internal/article"
	"github.com/bpollino/angelina-jail-activity-automation/internal/fixtures"
	"github.com/bpollino/angelina-jail-activity-automation/internal/models"
	"github.com/bpollino/angelina-jail-activity-automation/pkg/metadata"
)

var testDate = time.Date(2025, 9, 19, 0, 0, 0, 0, time.UTC)

func buildDoc(t *testing.T, scenario string, ad *models.AdvertisementRecord) (*article.Document, int) {
	t.Helper()

	set, err := fixtures.Default()
	if err != nil {
		t.Fatalf("fixtures.Default() failed: %v", err)
	}

	records, err := set.Scenario(scenario, testDate, time.UTC)
	if err != nil {
		t.Fatalf("Scenario(%q) failed: %v", scenario, err)
	}

	return article.Build(records, testDate, ad, article.DefaultOptions()), len(records)
}

func TestValidateHTML_Valid(t *testing.T) {
	doc, n := buildDoc(t, fixtures.ScenarioDefault, fixtures.MockAd(testDate))

	result := NewArticleValidator().ValidateHTML(article.RenderHTML(doc), n)
	if !result.IsValid {
		t.Fatalf("expected valid article, got errors: %+v", result.Errors)
	}

	if result.Stats.RecordCards != 5 {
		t.Errorf("RecordCards = %d, want 5", result.Stats.RecordCards)
	}

	if result.Stats.Ads != 1 {
		t.Errorf("Ads = %d, want 1", result.Stats.Ads)
	}

	if result.Stats.Placeholders != 1 || result.Stats.Mugshots != 4 {
		t.Errorf("Mugshots/Placeholders = %d/%d, want 4/1", result.Stats.Mugshots, result.Stats.Placeholders)
	}

	if err := result.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestValidateHTML_NoActivity(t *testing.T) {
	doc, _ := buildDoc(t, fixtures.ScenarioNoArrests, nil)

	result := NewArticleValidator().ValidateHTML(article.RenderHTML(doc), 0)
	if !result.IsValid {
		t.Fatalf("expected valid article, got errors: %+v", result.Errors)
	}
}

func TestValidateHTML_CountMismatch(t *testing.T) {
	doc, _ := buildDoc(t, fixtures.ScenarioSingleArrest, nil)

	result := NewArticleValidator().ValidateHTML(article.RenderHTML(doc), 3)
	if result.IsValid {
		t.Fatal("expected invalid article for a card count mismatch")
	}

	if !errors.Is(result.Err(), ErrInvalidArticle) {
		t.Errorf("Err() = %v, want ErrInvalidArticle", result.Err())
	}
}

func TestValidateHTML_AnyCount(t *testing.T) {
	doc, _ := buildDoc(t, fixtures.ScenarioManyArrests, nil)

	result := NewArticleValidator().ValidateHTML(article.RenderHTML(doc), AnyCount)
	if !result.IsValid {
		t.Fatalf("expected valid article, got errors: %+v", result.Errors)
	}
}

func TestValidateHTML_MissingDisclaimer(t *testing.T) {
	doc, n := buildDoc(t, fixtures.ScenarioDefault, nil)
	doc.Blocks = doc.Blocks[1:]

	result := NewArticleValidator().ValidateHTML(article.RenderHTML(doc), n)
	if result.IsValid {
		t.Fatal("expected invalid article without a disclaimer")
	}

	if !strings.Contains(result.Errors[0].Message, "disclaimer") {
		t.Errorf("first error = %q", result.Errors[0].Message)
	}
}

func TestValidateHTML_TwoAds(t *testing.T) {
	ad := fixtures.MockAd(testDate)
	doc, n := buildDoc(t, fixtures.ScenarioDefault, ad)
	doc.Blocks = append(doc.Blocks[:4], append([]article.Block{article.Advertisement{Ad: *ad}}, doc.Blocks[4:]...)...)

	result := NewArticleValidator().ValidateHTML(article.RenderHTML(doc), n)
	if result.IsValid {
		t.Fatal("expected invalid article with two ads")
	}

	if result.Stats.Ads != 2 {
		t.Errorf("Ads = %d, want 2", result.Stats.Ads)
	}
}

func TestValidateHTML_BadMugshot(t *testing.T) {
	body := `<div data-block="disclaimer"><p>⚠️ ` + article.DisclaimerText + `</p></div>
<div data-block="record-card" id="record-rec1"><h3>Doe, Jane</h3><img src="https://example.com/photo.txt"></div>
<div data-block="footer"></div>`

	result := NewArticleValidator().ValidateHTML(body, 1)
	if result.IsValid {
		t.Fatal("expected invalid article for a non-image mugshot")
	}

	if result.Errors[0].Field != "mugshot" {
		t.Errorf("Field = %q, want mugshot", result.Errors[0].Field)
	}
}

func TestValidateHTML_DuplicateAnchor(t *testing.T) {
	body := `<div data-block="disclaimer"><p>` + article.DisclaimerText + `</p></div>
<div data-block="record-card" id="record-rec1"><h3>A</h3></div>
<div data-block="record-card" id="record-rec1"><h3>B</h3></div>
<div data-block="footer"></div>`

	result := NewArticleValidator().ValidateHTML(body, 2)
	if result.IsValid {
		t.Fatal("expected invalid article for duplicate anchors")
	}
}

func TestValidateHTML_Empty(t *testing.T) {
	result := NewArticleValidator().ValidateHTML("", AnyCount)
	if result.IsValid {
		t.Fatal("expected invalid result for empty body")
	}
}

func TestValidateHTML_WarnsAboveThreshold(t *testing.T) {
	doc, n := buildDoc(t, fixtures.ScenarioManyArrests, nil)
	v := &ArticleValidator{MaxRecords: 5}

	result := v.ValidateHTML(article.RenderHTML(doc), n)
	if !result.IsValid {
		t.Fatalf("threshold should only warn, got errors: %+v", result.Errors)
	}

	if len(result.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one", result.Warnings)
	}
}

func TestValidateLexical(t *testing.T) {
	doc, n := buildDoc(t, fixtures.ScenarioDefault, fixtures.MockAd(testDate))

	raw, err := article.RenderLexical(doc)
	if err != nil {
		t.Fatalf("RenderLexical failed: %v", err)
	}

	result := NewArticleValidator().ValidateLexical(raw, n)
	if !result.IsValid {
		t.Fatalf("expected valid lexical article, got errors: %+v", result.Errors)
	}

	if result.Stats.RecordCards != n || result.Stats.Ads != 1 {
		t.Errorf("stats = %+v", result.Stats)
	}
}

func TestValidateLexical_NoActivity(t *testing.T) {
	doc, _ := buildDoc(t, fixtures.ScenarioNoArrests, fixtures.MockAd(testDate))

	raw, err := article.RenderLexical(doc)
	if err != nil {
		t.Fatalf("RenderLexical failed: %v", err)
	}

	result := NewArticleValidator().ValidateLexical(raw, 0)
	if !result.IsValid {
		t.Fatalf("expected empty day to validate, got errors: %+v", result.Errors)
	}

	if result.Stats.RecordCards != 0 {
		t.Errorf("RecordCards = %d, want 0", result.Stats.RecordCards)
	}
}

func TestValidateLexical_PlainParagraphIsNotANotice(t *testing.T) {
	raw := `{"root":{"type":"root","children":[
		{"type":"callout","calloutText":"` + article.DisclaimerText + `"},
		{"type":"paragraph","children":[{"text":"` + article.NoActivityPrefix + `today.","format":0}]},
		{"type":"html","html":"<div data-block=\"footer\"></div>"}]}}`

	if NewArticleValidator().ValidateLexical([]byte(raw), AnyCount).IsValid {
		t.Error("a paragraph that is not bold should not count as the no-activity notice")
	}
}

func TestValidateLexical_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "<p>hi</p>"},
		{"no root", `{"root":{"type":"paragraph","children":[]}}`},
		{"no children", `{"root":{"type":"root","children":[]}}`},
		{"no callout", `{"root":{"type":"root","children":[{"type":"html","html":"<div data-block=\"footer\"></div>"}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if NewArticleValidator().ValidateLexical([]byte(tt.raw), AnyCount).IsValid {
				t.Error("expected invalid result")
			}
		})
	}
}

func TestValidateIntegrity(t *testing.T) {
	v := NewArticleValidator()
	signed := metadata.Sign("<p>body</p>", metadata.Metadata{Validation: true})

	if !v.ValidateIntegrity(signed).IsValid {
		t.Error("signed content should pass integrity")
	}

	if v.ValidateIntegrity(strings.Replace(signed, "body", "edited", 1)).IsValid {
		t.Error("edited content should fail integrity")
	}
}

func TestValidationResult_String(t *testing.T) {
	r := &ValidationResult{IsValid: true, Stats: ValidationStats{Blocks: 9, RecordCards: 5}}

	s := r.String()
	if !strings.Contains(s, "✅ VALID") || !strings.Contains(s, "Records: 5") {
		t.Errorf("String() = %q", s)
	}

	r.IsValid = false
	if !strings.Contains(r.String(), "❌ INVALID") {
		t.Errorf("String() = %q", r.String())
	}
}
