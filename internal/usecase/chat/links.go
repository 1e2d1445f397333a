package chat

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Link is a previewable link found in a reply.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify))

// ExtractLinks returns the http(s) links of a markdown reply in document
// order, without duplicates. Inline links, autolinks and bare URLs count.
func ExtractLinks(reply string) []Link {
	src := []byte(reply)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var links []Link
	seen := make(map[string]bool)
	add := func(label, dest string) {
		if !isWebURL(dest) || seen[dest] {
			return
		}
		seen[dest] = true
		if label == "" {
			label = dest
		}
		links = append(links, Link{Text: label, URL: dest})
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			add(plainText(node, src), string(node.Destination))
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			if node.AutoLinkType == ast.AutoLinkURL {
				add(string(node.Label(src)), string(node.URL(src)))
			}
		}
		return ast.WalkContinue, nil
	})
	return links
}

// plainText concatenates the text segments below n.
func plainText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
