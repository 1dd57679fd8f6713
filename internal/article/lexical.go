package article

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Lexical text format bits.
const (
	formatBold   = 1
	formatItalic = 2
)

// Callout styling for the disclaimer.
const (
	calloutEmoji      = "⚠️"
	calloutBackground = "yellow"
)

type lexicalDocument struct {
	Root lexicalRoot `json:"root"`
}

type lexicalRoot struct {
	Children  []any  `json:"children"`
	Direction string `json:"direction"`
	Format    string `json:"format"`
	Indent    int    `json:"indent"`
	Type      string `json:"type"`
	Version   int    `json:"version"`
}

type lexicalText struct {
	Detail  int    `json:"detail"`
	Format  int    `json:"format"`
	Mode    string `json:"mode"`
	Style   string `json:"style"`
	Text    string `json:"text"`
	Type    string `json:"type"`
	Version int    `json:"version"`
}

type lexicalParagraph struct {
	Children  []lexicalText `json:"children"`
	Direction *string       `json:"direction"`
	Format    string        `json:"format"`
	Indent    int           `json:"indent"`
	Type      string        `json:"type"`
	Version   int           `json:"version"`
}

type lexicalCallout struct {
	Type            string `json:"type"`
	Version         int    `json:"version"`
	CalloutEmoji    string `json:"calloutEmoji"`
	CalloutText     string `json:"calloutText"`
	BackgroundColor string `json:"backgroundColor"`
}

type lexicalHTML struct {
	Type    string `json:"type"`
	Version int    `json:"version"`
	HTML    string `json:"html"`
}

func ltr() *string {
	s := "ltr"

	return &s
}

func paragraph(text string, format int, align string) lexicalParagraph {
	p := lexicalParagraph{
		Children: []lexicalText{},
		Format:   align,
		Type:     "paragraph",
		Version:  1,
	}

	if text != "" {
		p.Direction = ltr()
		p.Children = append(p.Children, lexicalText{
			Format:  format,
			Mode:    "normal",
			Text:    text,
			Type:    "text",
			Version: 1,
		})
	}

	return p
}

func htmlNode(markup string) lexicalHTML {
	return lexicalHTML{Type: "html", Version: 1, HTML: markup}
}

func lexicalNode(b Block) any {
	switch v := b.(type) {
	case Disclaimer:
		return lexicalCallout{
			Type:            "callout",
			Version:         1,
			CalloutEmoji:    calloutEmoji,
			CalloutText:     disclaimerInline(v),
			BackgroundColor: calloutBackground,
		}
	case Attribution:
		return paragraph(v.Text, formatItalic, "center")
	case Spacer:
		return paragraph("", 0, "")
	case NoActivity:
		return paragraph(v.Text, formatBold, "center")
	default:
		return htmlNode(BlockHTML(b))
	}
}

// RenderLexical serializes the document as a Ghost Lexical root. The result is the
// JSON text Ghost expects in a post's lexical field.
func RenderLexical(doc *Document) ([]byte, error) {
	children := make([]any, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		children = append(children, lexicalNode(b))
	}

	root := lexicalDocument{Root: lexicalRoot{
		Children:  children,
		Direction: "ltr",
		Type:      "root",
		Version:   1,
	}}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("failed to encode lexical document: %w", err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
