package toc

import (
	"strings"

	"golang.org/x/net/html"
)

// ExtractHTML parses rendered article HTML and returns its h1-h6 headings in
// document order. The parser is tolerant of malformed markup; on a parse
// error the sections collected so far are returned.
func ExtractHTML(raw string) []Section {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil
	}

	var sections []Section
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level, ok := headingLevel(n.Data); ok {
				title := headingText(n)
				if id := NormalizeIdentifier(title); id != "" {
					sections = append(sections, Section{
						Identifier: id,
						Title:      title,
						Level:      level,
						OrderIndex: len(sections),
					})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sections
}

func headingLevel(tag string) (int, bool) {
	if len(tag) != 2 || tag[0] != 'h' {
		return 0, false
	}
	if tag[1] < '1' || tag[1] > '6' {
		return 0, false
	}
	return int(tag[1] - '0'), true
}

// headingText collects the visible text of a heading node. MediaWiki "[edit]"
// widgets inside headings are excluded.
func headingText(n *html.Node) string {
	var out strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "mw-editsection") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if out.Len() > 0 {
					out.WriteString(" ")
				}
				out.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out.String()
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}
