package selector

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected Selector
	}{
		{"id selector", "#main-title", Selector{Kind: KindID, Value: "main-title"}},
		{"class selector", ".price", Selector{Kind: KindClass, Value: "price"}},
		{"tag selector", "h1", Selector{Kind: KindTag, Value: "h1"}},
		{"whitespace trimmed", "  #main-title  ", Selector{Kind: KindID, Value: "main-title"}},
		{"unsupported combinator falls back to tag", "div > p", Selector{Kind: KindTag, Value: "div > p"}},
		{"empty string", "", Selector{Kind: KindTag, Value: ""}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Translate(tc.input))
		})
	}
}

func TestTranslateKindsDistinguishable(t *testing.T) {
	byTag := Translate("foo")
	byClass := Translate(".foo")
	byID := Translate("#foo")

	assert.NotEqual(t, byTag, byClass)
	assert.NotEqual(t, byTag, byID)
	assert.NotEqual(t, byClass, byID)
}

func TestMatch(t *testing.T) {
	html := `<html><body>
		<div id="main-title">Widget</div>
		<span class="price sale">  $19.99  </span>
		<h2>First Heading</h2>
		<h2>Second Heading</h2>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	// id match
	text, ok := Match(doc, Translate("#main-title"))
	assert.True(t, ok)
	assert.Equal(t, "Widget", text)

	// class match as token, trimmed
	text, ok = Match(doc, Translate(".price"))
	assert.True(t, ok)
	assert.Equal(t, "$19.99", text)

	// tag match returns the first element
	text, ok = Match(doc, Translate("h2"))
	assert.True(t, ok)
	assert.Equal(t, "First Heading", text)

	// no match
	_, ok = Match(doc, Translate("#missing"))
	assert.False(t, ok)
	_, ok = Match(doc, Translate(".missing"))
	assert.False(t, ok)
	_, ok = Match(doc, Translate("table"))
	assert.False(t, ok)
}

func TestMatchMalformedMarkup(t *testing.T) {
	// goquery parses leniently; a broken document must not error
	html := `<div class="price">$5<span>oops</div></body>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	text, ok := Match(doc, Translate(".price"))
	assert.True(t, ok)
	assert.Contains(t, text, "$5")
}
