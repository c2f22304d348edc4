package selector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Kind identifies how a selector targets elements
type Kind int

const (
	// KindTag matches any element with the given tag name
	KindTag Kind = iota
	// KindID matches the element whose id attribute equals the value
	KindID
	// KindClass matches any element whose class attribute contains the
	// value as a token
	KindClass
)

// Selector is a translated CSS-like selector
type Selector struct {
	Kind  Kind
	Value string
}

// Translate converts a CSS-like selector string into a Selector.
// Supported forms are "#identifier", ".classname" and a bare tag name.
// Anything else falls back to a bare-tag match rather than an error.
func Translate(css string) Selector {
	css = strings.TrimSpace(css)

	switch {
	case strings.HasPrefix(css, "#"):
		return Selector{Kind: KindID, Value: css[1:]}
	case strings.HasPrefix(css, "."):
		return Selector{Kind: KindClass, Value: css[1:]}
	default:
		return Selector{Kind: KindTag, Value: css}
	}
}

// Match applies a translated selector to a parsed document and returns
// the trimmed text content of the first matching element. The second
// return value is false when nothing matches.
func Match(doc *goquery.Document, sel Selector) (string, bool) {
	var matched *goquery.Selection

	switch sel.Kind {
	case KindID:
		matched = doc.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
			id, ok := s.Attr("id")
			return ok && id == sel.Value
		})
	case KindClass:
		matched = doc.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.HasClass(sel.Value)
		})
	case KindTag:
		name := strings.ToLower(sel.Value)
		matched = doc.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return goquery.NodeName(s) == name
		})
	}

	if matched == nil || matched.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(matched.First().Text()), true
}
