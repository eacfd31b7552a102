package parser

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parser extracts the countable words and the outgoing links of an HTML
// document.
type Parser struct {
	// baseURL is the address of the page being parsed, used for resolving
	// relative links.
	baseURL *url.URL

	// words drops ignored words; nil keeps all of them.
	words *WordFilter
}

// ParseResult is everything the crawl needs from one document.
type ParseResult struct {
	// Title is the text of the <title> element.
	Title string

	// WordCounts maps each word of the visible text to its occurrences.
	WordCounts map[string]int

	// Links are the resolved <a href> targets in document order.
	// Duplicates are kept.
	Links []string
}

// NewParser creates a parser for the page at baseURL.
func NewParser(baseURL string, words *WordFilter) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	return &Parser{baseURL: u, words: words}, nil
}

// Parse reads an HTML document.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	counter := newWordCounter(p.words)
	result := &ParseResult{
		Links: make([]string, 0),
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if skipText(n) {
				return
			}
			switch n.DataAtom {
			case atom.Title:
				// The title is metadata; its words are not counted.
				if result.Title == "" {
					result.Title = strings.TrimSpace(textOf(n))
				}
				return
			case atom.A:
				if link := p.resolveURL(getAttr(n, "href")); link != "" {
					result.Links = append(result.Links, link)
				}
			}
		case html.TextNode:
			counter.add(n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	result.WordCounts = counter.counts
	return result, nil
}

// skipText reports whether the element's text is not visible page content.
func skipText(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template:
		return true
	default:
		return false
	}
}

// resolveURL resolves href against the page address and drops the fragment.
// Non-navigable targets such as javascript: or mailto: resolve to "".
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := p.baseURL.ResolveReference(u)
	switch resolved.Scheme {
	case "http", "https", "file":
	default:
		return ""
	}
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String()
}

// textOf concatenates the text nodes below n.
func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
