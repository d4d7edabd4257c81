// Package extract reduces HTML contract and terms pages to plain text.
package extract

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/dontsign/internal/model"
)

// HTMLDocument is the visible text of an HTML page
type HTMLDocument struct {
	Title string
	Text  string
}

// Elements that never contain contract text
var skipElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
	"nav": true, "header": true, "footer": true, "aside": true,
	"form": true, "button": true, "svg": true, "template": true,
}

// Elements after which a line break is inserted so section markers stay at line starts
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "ol": true, "ul": true, "dt": true, "dd": true, "dl": true,
	"tr": true, "table": true, "blockquote": true, "pre": true, "br": true,
}

var (
	spaceRun     = regexp.MustCompile(`[ \t\f\v]+`)
	blankLineRun = regexp.MustCompile(`\n{3,}`)
)

// ParseHTML extracts the title and the visible text of the main content
// region (main, then article or role=main, then body).
func ParseHTML(r io.Reader) (*HTMLDocument, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, model.WrapError(model.KindInvalidInput, "parse HTML", err)
	}

	out := &HTMLDocument{}
	if title := findFirst(doc, isElement("title")); title != nil {
		out.Title = strings.TrimSpace(textContent(title))
	}

	root := findFirst(doc, isElement("main"))
	if root == nil {
		root = findFirst(doc, func(n *html.Node) bool {
			return isElement("article")(n) || attr(n, "role") == "main"
		})
	}
	if root == nil {
		root = findFirst(doc, isElement("body"))
	}
	if root == nil {
		root = doc
	}

	out.Text = extractVisibleText(root)
	return out, nil
}

// extractVisibleText walks text nodes, skipping non-content elements and
// breaking lines after block elements
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(strings.ReplaceAll(n.Data, "\n", " "))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			buf.WriteString("\n")
		}
	}
	walk(n)

	lines := strings.Split(spaceRun.ReplaceAllString(buf.String(), " "), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text := blankLineRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text)
}

// LooksLikeHTML reports whether content appears to be an HTML document
func LooksLikeHTML(contentType string, body string) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}
	head := strings.ToLower(strings.TrimSpace(body))
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html") || strings.Contains(head, "<body")
}

func isElement(name string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == name
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var buf strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		buf.WriteString(textContent(c))
	}
	return buf.String()
}

func findFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	if predicate(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, predicate); found != nil {
			return found
		}
	}
	return nil
}
