// Package render expands per-contact fields into message body templates.
//
// The template grammar is the one the operator UI documents: a single
// named placeholder {nome} for the contact's display name, with {{ and }}
// as literal-brace escapes. Anything else inside braces is a caller
// mistake and surfaces as ErrUnknownPlaceholder rather than being sent
// out half-rendered.
package render

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownPlaceholder marks a template referencing a field the
	// renderer does not provide.
	ErrUnknownPlaceholder = errors.New("unknown template placeholder")

	// ErrBadTemplate marks unbalanced braces.
	ErrBadTemplate = errors.New("malformed template")
)

// namePlaceholder is the only substitution the templates support.
const namePlaceholder = "nome"

// Body holds the rendered parts of one message. HTML is empty when the
// message is text-only; transports must then not advertise a multipart
// alternative.
type Body struct {
	Text string
	HTML string
}

// Expand substitutes the contact name into a single template.
func Expand(template, name string) (string, error) {
	var b strings.Builder
	b.Grow(len(template) + len(name))

	for i := 0; i < len(template); i++ {
		switch c := template[i]; c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(template[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed '{' at offset %d", ErrBadTemplate, i)
			}
			field := template[i+1 : i+end]
			if field != namePlaceholder {
				return "", fmt.Errorf("%w: {%s}", ErrUnknownPlaceholder, field)
			}
			b.WriteString(name)
			i += end
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("%w: stray '}' at offset %d", ErrBadTemplate, i)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// Message renders the text part and, unless textOnly is set or no HTML
// template was supplied, the HTML part. The contact name is trimmed
// before substitution; a missing name renders as an empty string.
func Message(textTemplate, htmlTemplate, name string, textOnly bool) (Body, error) {
	name = strings.TrimSpace(name)

	text, err := Expand(textTemplate, name)
	if err != nil {
		return Body{}, fmt.Errorf("text template: %w", err)
	}

	body := Body{Text: text}
	if htmlTemplate == "" || textOnly {
		return body, nil
	}

	html, err := Expand(htmlTemplate, name)
	if err != nil {
		return Body{}, fmt.Errorf("html template: %w", err)
	}
	body.HTML = html
	return body, nil
}
