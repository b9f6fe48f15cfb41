package htmlutil

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var tracer = otel.Tracer("corde.lib.htmlutil")

// GetText concatenates every text node under node as-is.
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

var blockElements = map[atom.Atom]bool{
	atom.P:     true,
	atom.Div:   true,
	atom.Tr:    true,
	atom.Table: true,
	atom.Li:    true,
	atom.H1:    true,
	atom.H2:    true,
	atom.H3:    true,
	atom.H4:    true,
}

// RenderText approximates the text a browser shows for node: source line
// breaks become spaces, <br> and the end of block elements become line
// breaks. Runs of spaces are kept since the result pages align columns
// with them. Script and style contents are skipped.
func RenderText(node *html.Node) string {
	var buffer bytes.Buffer
	renderTextRecursive(node, &buffer, false)
	return buffer.String()
}

func renderTextRecursive(node *html.Node, buffer *bytes.Buffer, pre bool) {
	if node == nil {
		return
	}
	switch node.Type {
	case html.TextNode:
		if pre {
			buffer.WriteString(node.Data)
			return
		}
		buffer.WriteString(strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(node.Data))
		return
	case html.ElementNode:
		switch node.DataAtom {
		case atom.Br:
			buffer.WriteByte('\n')
			return
		case atom.Script, atom.Style:
			return
		case atom.Pre:
			pre = true
		}
	}

	child := node.FirstChild
	for child != nil {
		renderTextRecursive(child, buffer, pre)
		child = child.NextSibling
	}

	if node.Type == html.ElementNode && blockElements[node.DataAtom] {
		if buffer.Len() > 0 && buffer.Bytes()[buffer.Len()-1] != '\n' {
			buffer.WriteByte('\n')
		}
	}
}

// RenderSelection renders the first node of a selection, "" when it is empty.
func RenderSelection(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return RenderText(sel.Nodes[0])
}

type Anchor struct {
	Name string
	Href string
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// GetAnchors reads the anchors of a selection, relative hrefs are resolved
// against base when it is non-nil.
func GetAnchors(ctx context.Context, sel *goquery.Selection, base *url.URL) []Anchor {
	ctx, span := tracer.Start(ctx, "GetAnchors")
	defer span.End()

	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}

		link, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "got error while parsing url")
			continue
		}
		if base != nil {
			link = base.ResolveReference(link)
		}

		name := GetText(n)
		name = removeNonPrintable(name)
		name = strings.TrimSpace(name)
		name = innerWhitespace.ReplaceAllString(name, " ")

		linkStr := link.String()
		anchors = append(anchors, Anchor{
			Name: name,
			Href: linkStr,
		})
		span.AddEvent("anchor", trace.WithAttributes(
			attribute.String("name", name),
			attribute.String("url", linkStr),
		))
	}

	return anchors
}
