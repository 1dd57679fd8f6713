// Package validator checks rendered articles before they are written or published.
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/bpollino/angelina-jail-activity-automation/internal/article"
	"github.com/bpollino/angelina-jail-activity-automation/pkg/metadata"
)

// ErrInvalidArticle is returned by Check when a result carries errors.
var ErrInvalidArticle = errors.New("article failed validation")

// AnyCount disables the record card count check.
const AnyCount = -1

// ValidationError represents a validation error with context.
type ValidationError struct {
	Block   string
	Field   string
	Value   string
	Message string
	Index   int
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []string
	Stats    ValidationStats
	IsValid  bool
}

// ValidationStats counts what the validator saw.
type ValidationStats struct {
	Blocks       int
	RecordCards  int
	Mugshots     int
	Placeholders int
	Ads          int
}

// ArticleValidator validates rendered article bodies.
type ArticleValidator struct {
	// MaxRecords raises a warning above this many cards. Zero disables it.
	MaxRecords int
}

// NewArticleValidator creates a validator with the default warning threshold.
func NewArticleValidator() *ArticleValidator {
	return &ArticleValidator{MaxRecords: 200}
}

func newResult() *ValidationResult {
	return &ValidationResult{
		IsValid:  true,
		Errors:   []ValidationError{},
		Warnings: []string{},
	}
}

func (r *ValidationResult) fail(e ValidationError) {
	r.IsValid = false
	r.Errors = append(r.Errors, e)
}

// ValidateHTML validates a flat HTML article. expected is the number of bookings the
// article should present, or AnyCount.
func (v *ArticleValidator) ValidateHTML(body string, expected int) *ValidationResult {
	result := newResult()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		result.fail(ValidationError{Message: fmt.Sprintf("failed to parse HTML: %v", err)})
		return result
	}

	blocks := doc.Find("body").Children().Filter("[" + article.BlockAttr + "]")
	result.Stats.Blocks = blocks.Length()

	if result.Stats.Blocks == 0 {
		result.fail(ValidationError{Message: "no article blocks found"})
		return result
	}

	first := blocks.First()
	if kind, _ := first.Attr(article.BlockAttr); kind != string(article.KindDisclaimer) {
		result.fail(ValidationError{Block: kind, Index: 0, Message: "article must open with the disclaimer"})
	} else if !strings.Contains(first.Text(), article.DisclaimerText) {
		result.fail(ValidationError{Block: kind, Index: 0, Message: "disclaimer text is missing or altered"})
	}

	if kind, _ := blocks.Last().Attr(article.BlockAttr); kind != string(article.KindFooter) {
		result.fail(ValidationError{Block: kind, Index: result.Stats.Blocks - 1, Message: "article must close with the footer"})
	}

	v.checkBody(doc.Selection, result, expected, 0)

	return result
}

type lexicalNode struct {
	Type        string `json:"type"`
	HTML        string `json:"html"`
	CalloutText string `json:"calloutText"`
	Children    []struct {
		Text   string `json:"text"`
		Format int    `json:"format"`
	} `json:"children"`
}

// lexicalBold matches the bold bit of a Lexical text format.
const lexicalBold = 1

// isNoActivity reports whether n is the bold paragraph carrying the no-activity notice.
func (n lexicalNode) isNoActivity() bool {
	if n.Type != "paragraph" {
		return false
	}

	for _, c := range n.Children {
		if c.Format&lexicalBold != 0 && strings.HasPrefix(c.Text, article.NoActivityPrefix) {
			return true
		}
	}

	return false
}

// ValidateLexical validates a Ghost Lexical article. Record cards, the ad and the footer
// travel as html nodes and are checked the same way as in ValidateHTML.
func (v *ArticleValidator) ValidateLexical(raw []byte, expected int) *ValidationResult {
	result := newResult()

	var doc struct {
		Root struct {
			Type     string        `json:"type"`
			Children []lexicalNode `json:"children"`
		} `json:"root"`
	}

	if err := json.Unmarshal(raw, &doc); err != nil {
		result.fail(ValidationError{Message: fmt.Sprintf("failed to parse lexical document: %v", err)})
		return result
	}

	if doc.Root.Type != "root" {
		result.fail(ValidationError{Field: "root.type", Value: doc.Root.Type, Message: "lexical root node is missing"})
		return result
	}

	nodes := doc.Root.Children
	result.Stats.Blocks = len(nodes)

	if len(nodes) == 0 {
		result.fail(ValidationError{Message: "no article blocks found"})
		return result
	}

	if nodes[0].Type != "callout" {
		result.fail(ValidationError{Block: nodes[0].Type, Index: 0, Message: "article must open with the disclaimer"})
	} else if !strings.Contains(nodes[0].CalloutText, article.DisclaimerText) {
		result.fail(ValidationError{Block: nodes[0].Type, Index: 0, Message: "disclaimer text is missing or altered"})
	}

	var markup strings.Builder

	noActivity := 0

	for _, n := range nodes {
		switch {
		case n.Type == "html":
			markup.WriteString(n.HTML)
			markup.WriteString("\n")
		case n.isNoActivity():
			noActivity++
		}
	}

	body, err := goquery.NewDocumentFromReader(strings.NewReader(markup.String()))
	if err != nil {
		result.fail(ValidationError{Message: fmt.Sprintf("failed to parse html nodes: %v", err)})
		return result
	}

	if body.Find(blockSelector(article.KindFooter)).Length() == 0 {
		result.fail(ValidationError{Block: string(article.KindFooter), Message: "article must close with the footer"})
	}

	v.checkBody(body.Selection, result, expected, noActivity)

	return result
}

func blockSelector(kind article.Kind) string {
	return fmt.Sprintf(`[%s="%s"]`, article.BlockAttr, kind)
}

// checkBody applies the checks shared by both formats. noActivity counts notices found
// outside the markup, as Lexical carries them in paragraph nodes.
func (v *ArticleValidator) checkBody(doc *goquery.Selection, result *ValidationResult, expected, noActivity int) {
	ads := doc.Find(blockSelector(article.KindAdvertisement))
	result.Stats.Ads = ads.Length()

	if result.Stats.Ads > 1 {
		result.fail(ValidationError{
			Block:   string(article.KindAdvertisement),
			Value:   fmt.Sprint(result.Stats.Ads),
			Message: "at most one advertisement may appear",
		})
	}

	ads.Find("img").Each(func(_ int, img *goquery.Selection) {
		if src, _ := img.Attr("src"); !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
			result.fail(ValidationError{Block: string(article.KindAdvertisement), Field: "src", Value: src, Message: "advertisement image must be an http(s) URL"})
		}
	})

	cards := doc.Find(blockSelector(article.KindRecordCard))
	result.Stats.RecordCards = cards.Length()
	noActivity += doc.Find(blockSelector(article.KindNoActivity)).Length()

	switch {
	case result.Stats.RecordCards == 0 && noActivity == 0:
		result.fail(ValidationError{Message: "article has neither record cards nor a no-activity notice"})
	case result.Stats.RecordCards > 0 && noActivity > 0:
		result.fail(ValidationError{Message: "no-activity notice appears alongside record cards"})
	}

	if expected != AnyCount && result.Stats.RecordCards != expected {
		result.fail(ValidationError{
			Block:   string(article.KindRecordCard),
			Value:   fmt.Sprint(result.Stats.RecordCards),
			Message: fmt.Sprintf("expected %d record cards, found %d", expected, result.Stats.RecordCards),
		})
	}

	if v.MaxRecords > 0 && result.Stats.RecordCards > v.MaxRecords {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("unusually many bookings: %d cards (threshold %d)", result.Stats.RecordCards, v.MaxRecords))
	}

	seen := make(map[string]bool)

	cards.Each(func(i int, card *goquery.Selection) {
		id, _ := card.Attr("id")

		switch {
		case id == "":
			result.fail(ValidationError{Block: string(article.KindRecordCard), Index: i, Field: "id", Message: "record card has no anchor"})
		case seen[id]:
			result.fail(ValidationError{Block: string(article.KindRecordCard), Index: i, Field: "id", Value: id, Message: "duplicate record anchor"})
		}

		seen[id] = true

		if strings.TrimSpace(card.Find("h3").First().Text()) == "" {
			result.fail(ValidationError{Block: string(article.KindRecordCard), Index: i, Field: "name", Message: "record card has no name"})
		}

		card.Find("img").Each(func(_ int, img *goquery.Selection) {
			src, _ := img.Attr("src")
			if !article.ValidImageURL(src) {
				result.fail(ValidationError{Block: string(article.KindRecordCard), Index: i, Field: "mugshot", Value: src, Message: "mugshot URL is not a valid image URL"})
				return
			}

			result.Stats.Mugshots++
		})

		if card.Find(".jail-photo-placeholder").Length() > 0 {
			result.Stats.Placeholders++
		}
	})
}

// ValidateIntegrity checks a signed file against its metadata block.
func (v *ArticleValidator) ValidateIntegrity(content string) *ValidationResult {
	result := newResult()

	valid, err := metadata.Verify(content)
	if !valid {
		result.fail(ValidationError{Message: fmt.Sprintf("integrity check failed: %v", err)})
	}

	return result
}

// Err returns nil for a valid result and ErrInvalidArticle wrapping the first error
// otherwise.
func (r *ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}

	if len(r.Errors) == 0 {
		return ErrInvalidArticle
	}

	return fmt.Errorf("%w: %s (%d errors)", ErrInvalidArticle, r.Errors[0].Message, len(r.Errors))
}

// String returns string representation of validation result.
func (r *ValidationResult) String() string {
	status := "✅ VALID"
	if !r.IsValid {
		status = "❌ INVALID"
	}

	return fmt.Sprintf(
		"%s | Blocks: %d | Records: %d | Mugshots: %d | Placeholders: %d | Ads: %d | Warnings: %d",
		status,
		r.Stats.Blocks,
		r.Stats.RecordCards,
		r.Stats.Mugshots,
		r.Stats.Placeholders,
		r.Stats.Ads,
		len(r.Warnings),
	)
}

// PrintErrors prints validation errors in readable format.
func (r *ValidationResult) PrintErrors() {
	if len(r.Errors) == 0 {
		return
	}

	fmt.Println("❌ Validation Errors:")

	for _, err := range r.Errors {
		if err.Block != "" {
			fmt.Printf("  Block %d [%s]", err.Index, err.Block)

			if err.Field != "" {
				fmt.Printf(" %s", err.Field)
			}

			fmt.Printf(": %s\n", err.Message)

			if err.Value != "" {
				fmt.Printf("    Found: %q\n", err.Value)
			}
		} else {
			fmt.Printf("  %s\n", err.Message)
		}
	}
}

// PrintWarnings prints validation warnings.
func (r *ValidationResult) PrintWarnings() {
	if len(r.Warnings) == 0 {
		return
	}

	fmt.Println("⚠️  Validation Warnings:")

	for _, warn := range r.Warnings {
		fmt.Printf("  %s\n", warn)
	}
}
