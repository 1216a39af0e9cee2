package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || c == '\n' {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// NormalizedText extracts the text of a selection collapsed to single
// spaces, for matching against labels and link names.
func NormalizedText(sel *goquery.Selection) string {
	out := strings.Builder{}
	for _, n := range sel.Nodes {
		out.WriteString(GetText(n))
	}
	text := removeNonPrintable(out.String())
	text = strings.TrimSpace(text)
	return innerWhitespace.ReplaceAllString(text, " ")
}

// RawText extracts the text of a selection with original line breaks
// kept, for content regions whose body matters byte for byte.
func RawText(sel *goquery.Selection) string {
	out := strings.Builder{}
	for _, n := range sel.Nodes {
		out.WriteString(GetText(n))
	}
	return strings.TrimSpace(out.String())
}
