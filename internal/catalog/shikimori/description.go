package shikimori

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// characterTagPattern matches Shikimori's [character ...]name[/character]
// markup, keeping only the display name.
var characterTagPattern = regexp.MustCompile(`(?s)\[character[^\]]*\](.*?)\[/character\]`)

// htmlTagPattern matches common HTML tags to detect if a string contains HTML.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

// CleanDescription prepares an upstream description for chat rendering:
// character markup collapses to plain names and HTML converts to Markdown.
// Plain-text descriptions pass through unchanged.
func CleanDescription(s string) string {
	s = characterTagPattern.ReplaceAllString(s, "$1")
	if s == "" || !containsHTML(s) {
		return strings.TrimSpace(s)
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		// If conversion fails, return the stripped original.
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(markdown)
}

// Snippet returns a plain-text excerpt of at most max runes, suitable for
// carousel captions. Markup is removed first so truncation cannot split a
// tag.
func Snippet(s string, max int) string {
	plain := characterTagPattern.ReplaceAllString(s, "$1")
	plain = stripHTML(plain)
	if plain == "" {
		return ""
	}

	runes := []rune(plain)
	if len(runes) <= max {
		return plain
	}
	return string(runes[:max]) + "..."
}

// containsHTML checks if a string appears to contain HTML markup.
func containsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// stripHTML removes HTML tags and returns plain text.
// Collapses whitespace left behind by block elements.
func stripHTML(s string) string {
	if s == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		// If parsing fails, fall back to regex stripping.
		return stripHTMLFallback(s)
	}

	var buf strings.Builder
	extractText(doc, &buf)

	return strings.TrimSpace(collapseWhitespace(buf.String()))
}

// extractText recursively extracts text content from HTML nodes.
func extractText(n *html.Node, buf *strings.Builder) {
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "br", "li", "h1", "h2", "h3", "h4", "h5", "h6":
			buf.WriteString(" ")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, buf)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6":
			buf.WriteString(" ")
		}
	}
}

// stripHTMLFallback uses regex when parsing fails.
var anyTagPattern = regexp.MustCompile(`<[^>]*>`)

func stripHTMLFallback(s string) string {
	return strings.TrimSpace(collapseWhitespace(anyTagPattern.ReplaceAllString(s, " ")))
}

var whitespacePattern = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return whitespacePattern.ReplaceAllString(s, " ")
}
