// Package email implements email composition and delivery for the Accord
// notification engine. A single base template pair (HTML + plaintext) is
// parameterized by a content variant per email category, instead of one
// hand-maintained document per kind.
package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

//go:embed templates/base.html templates/base.txt
var templateFS embed.FS

// Variant is the content-variant record fed into the base templates. Each
// category's copy differs only in these fields; layout, branding, and the
// preference footer are shared.
type Variant struct {
	Subject   string
	Heading   string
	Lede      string
	StatLines []string
	CTALabel  string
	CTAURL    string
}

// RenderedEmail holds the pre-rendered email content ready for transmission.
type RenderedEmail struct {
	Subject  string
	BodyHTML string
	BodyText string
}

// Composer renders Variants through the embedded base templates. Templates
// are parsed once at construction; Compose is pure after that.
type Composer struct {
	html *template.Template
	text *texttemplate.Template
}

// NewComposer parses the embedded base templates. Returns an error if either
// template fails to parse.
func NewComposer() (*Composer, error) {
	baseHTML, err := templateFS.ReadFile("templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("composer: failed to read base.html: %w", err)
	}
	htmlTmpl, err := template.New("base").Parse(string(baseHTML))
	if err != nil {
		return nil, fmt.Errorf("composer: failed to parse base.html: %w", err)
	}

	baseText, err := templateFS.ReadFile("templates/base.txt")
	if err != nil {
		return nil, fmt.Errorf("composer: failed to read base.txt: %w", err)
	}
	textTmpl, err := texttemplate.New("base").Parse(string(baseText))
	if err != nil {
		return nil, fmt.Errorf("composer: failed to parse base.txt: %w", err)
	}

	return &Composer{html: htmlTmpl, text: textTmpl}, nil
}

// Compose renders the variant into a complete HTML + plaintext email.
func (c *Composer) Compose(v Variant) (*RenderedEmail, error) {
	var htmlBuf bytes.Buffer
	if err := c.html.Execute(&htmlBuf, v); err != nil {
		return nil, fmt.Errorf("composer: failed to render HTML: %w", err)
	}

	var textBuf bytes.Buffer
	if err := c.text.Execute(&textBuf, v); err != nil {
		return nil, fmt.Errorf("composer: failed to render text: %w", err)
	}

	return &RenderedEmail{
		Subject:  v.Subject,
		BodyHTML: htmlBuf.String(),
		BodyText: textBuf.String(),
	}, nil
}
