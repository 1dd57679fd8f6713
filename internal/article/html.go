package article

import (
	"fmt"
	"html"
	"strings"
)

// Attribute used to mark top-level blocks in markup.
const BlockAttr = "data-block"

// RenderHTML serializes the document as flat markup.
func RenderHTML(doc *Document) string {
	parts := make([]string, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		parts = append(parts, BlockHTML(b))
	}

	return strings.Join(parts, "\n")
}

// BlockHTML renders one block as an HTML fragment.
func BlockHTML(b Block) string {
	switch v := b.(type) {
	case Disclaimer:
		return disclaimerHTML(v)
	case Attribution:
		return fmt.Sprintf(`<p %s="%s" class="jail-attribution" style="text-align: center;"><em>%s</em></p>`,
			BlockAttr, KindAttribution, esc(v.Text))
	case Spacer:
		return fmt.Sprintf(`<div %s="%s" class="jail-spacer" style="height: 1rem;"></div>`, BlockAttr, KindSpacer)
	case Advertisement:
		return advertisementHTML(v)
	case NoActivity:
		return fmt.Sprintf(`<div %s="%s" class="jail-no-activity" style="text-align: center; padding: 2rem 1rem;"><p><strong>%s</strong></p></div>`,
			BlockAttr, KindNoActivity, esc(v.Text))
	case RecordCard:
		return recordCardHTML(v)
	case Footer:
		return footerHTML(v)
	default:
		return ""
	}
}

func esc(s string) string {
	return html.EscapeString(s)
}

func disclaimerInline(d Disclaimer) string {
	return fmt.Sprintf(`%s <a href="%s" target="_blank" rel="noopener">%s</a>`,
		esc(d.Text), esc(d.LinkURL), esc(d.LinkText))
}

func disclaimerHTML(d Disclaimer) string {
	return fmt.Sprintf(`<div %s="%s" class="jail-disclaimer" style="background-color: #fff3cd; border: 1px solid #ffeeba; border-radius: 8px; padding: 1rem; margin-bottom: 1rem;"><p>⚠️ %s</p></div>`,
		BlockAttr, KindDisclaimer, disclaimerInline(d))
}

func advertisementHTML(a Advertisement) string {
	ad := a.Ad

	var b strings.Builder

	fmt.Fprintf(&b, `<div %s="%s" class="jail-ad" style="border: 1px solid #e0e0e0; border-radius: 8px; padding: 1rem; margin: 1rem 0; text-align: center;">`,
		BlockAttr, KindAdvertisement)
	b.WriteString(`<p class="jail-ad-label" style="font-size: 0.75rem; color: #888; margin: 0 0 0.5rem 0;">Sponsored</p>`)

	link := esc(ad.TargetURL)

	if httpHelper.IsHTTPURL(ad.ImageURL) {
		fmt.Fprintf(&b, `<a href="%s" target="_blank" rel="sponsored noopener"><img src="%s" alt="%s" style="max-width: 100%%; border-radius: 6px;"></a>`,
			link, esc(ad.ImageURL), esc(ad.Title))
	}

	fmt.Fprintf(&b, `<h3 style="margin: 0.5rem 0;"><a href="%s" target="_blank" rel="sponsored noopener">%s</a></h3>`, link, esc(ad.Title))

	if ad.Description != "" {
		fmt.Fprintf(&b, `<p>%s</p>`, esc(ad.Description))
	}

	if ad.AdvertiserName != "" {
		fmt.Fprintf(&b, `<p class="jail-ad-advertiser" style="font-size: 0.8rem; color: #666;">%s</p>`, esc(ad.AdvertiserName))
	}

	b.WriteString(`</div>`)

	return b.String()
}

const placeholderStyle = "width: 150px; height: 200px; background-color: #f0f0f0; border: 2px dashed #ccc; border-radius: 8px; flex-direction: column; align-items: center; justify-content: center; text-align: center; color: #888; flex-shrink: 0;"

func mugshotHTML(v CardView) string {
	if !v.HasMugshot() {
		return fmt.Sprintf(`<div class="jail-photo-placeholder" style="%s display: flex;"><div style="font-size: 2rem;">📷</div><div style="font-size: 0.8rem;">%s</div></div>`,
			placeholderStyle, PhotoNotAvail)
	}

	// The hidden placeholder is shown by the browser if the image fails to load.
	return fmt.Sprintf(`<div class="jail-mugshot" style="width: 150px; height: 200px; flex-shrink: 0; position: relative;">`+
		`<img src="%s" alt="%s mugshot" loading="lazy" style="width: 100%%; height: 100%%; object-fit: cover; border-radius: 8px; border: 1px solid #ccc;" onerror="this.style.display='none';this.nextElementSibling.style.display='flex';">`+
		`<div class="jail-photo-fallback" style="%s display: none; position: absolute; top: 0; left: 0;"><div style="font-size: 2rem;">📷</div><div style="font-size: 0.8rem;">%s</div></div>`+
		`</div>`,
		esc(v.MugshotURL), esc(v.Name), placeholderStyle, PhotoNotAvail)
}

func chargesHTML(v CardView) string {
	switch len(v.Charges) {
	case 0:
		return `<p><strong>Charges:</strong> ` + NoChargesListed + `</p>`
	case 1:
		return `<p><strong>Charge:</strong> ` + esc(v.Charges[0]) + `</p>`
	}

	var b strings.Builder

	b.WriteString(`<p><strong>Charges:</strong></p><ul style="margin: 0.5rem 0 0 1rem; padding: 0;">`)

	for _, c := range v.Charges {
		fmt.Fprintf(&b, `<li>%s</li>`, esc(c))
	}

	b.WriteString(`</ul>`)

	return b.String()
}

func shareHTML(links ShareLinks, label string) string {
	return fmt.Sprintf(`<p class="jail-share" style="font-size: 0.8rem;">%s `+
		`<a href="%s" target="_blank" rel="noopener">Facebook</a> · `+
		`<a href="%s" target="_blank" rel="noopener">Twitter</a> · `+
		`<a href="%s">Email</a></p>`,
		esc(label), esc(links.Facebook), esc(links.Twitter), esc(links.Email))
}

func recordCardHTML(c RecordCard) string {
	v := c.View

	var b strings.Builder

	fmt.Fprintf(&b, `<div %s="%s" class="jail-record" id="%s" style="border: 1px solid #ddd; border-radius: 8px; padding: 1rem; margin: 1rem 0;">`,
		BlockAttr, KindRecordCard, esc(v.Anchor))
	fmt.Fprintf(&b, `<h3 class="jail-record-name" style="margin-top: 0;">%s</h3>`, esc(v.Name))
	b.WriteString(`<div style="display: flex; gap: 1rem; flex-wrap: wrap;">`)
	b.WriteString(mugshotHTML(v))
	b.WriteString(`<div class="jail-record-details">`)

	for _, f := range v.Fields {
		fmt.Fprintf(&b, `<p style="margin: 0.25rem 0;"><strong>%s:</strong> %s</p>`, esc(f.Label), esc(f.Value))
	}

	b.WriteString(`</div></div>`)
	fmt.Fprintf(&b, `<div class="jail-charges" style="margin-top: 1rem; padding-top: 1rem; border-top: 1px solid #ddd;">%s</div>`, chargesHTML(v))
	b.WriteString(shareHTML(v.Share.Links(), "Share:"))
	fmt.Fprintf(&b, `<div class="jail-record-disclaimer" style="margin-top: 1rem; padding-top: 1rem; border-top: 1px solid #ddd; font-size: 0.8rem; color: #666; text-align: center;"><em>%s <a href="%s" target="_blank" rel="noopener" style="color: #007bff;">%s</a></em></div>`,
		esc(CardDisclaimerText), esc(DisclaimerURL), esc(CardDisclaimerLinkText))
	b.WriteString(`</div>`)

	return b.String()
}

func footerHTML(f Footer) string {
	var b strings.Builder

	fmt.Fprintf(&b, `<div %s="%s" class="jail-footer" style="text-align: center; margin-top: 2rem; color: #888;">`, BlockAttr, KindFooter)
	b.WriteString(`<hr style="margin: 2rem 0;">`)

	if f.URL != "" {
		b.WriteString(shareHTML(f.Share, "Share this article:"))
	}

	fmt.Fprintf(&b, `<p><em>%s</em></p><p style="margin-top: 1rem;">`, esc(f.Text))

	for _, tag := range f.Tags {
		fmt.Fprintf(&b, `<span class="jail-tag" style="background: #e9ecef; padding: 0.25rem 0.5rem; border-radius: 4px; margin: 0 0.25rem; font-size: 0.8rem;">%s</span>`, esc(tag))
	}

	b.WriteString(`</p></div>`)

	return b.String()
}
