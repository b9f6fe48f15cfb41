package corde

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"corde-harvester/lib/harvest"
	"corde-harvester/lib/htmlutil"
	"corde-harvester/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("corde.lib.scrapers.corde")

// SearchURL is the entry page of the corpus query form.
const SearchURL = "https://corpus.rae.es/cordenet.html"

// Selectors locate the parts of a results page the harvester needs.
type Selectors struct {
	// Mode is the result-mode <select>.
	Mode string `json:"mode"`
	// Container holds the header caption and every result line.
	Container string `json:"container"`
	Header    string `json:"header"`
	// NextLinks are the pagination link candidates, only those whose
	// text contains NextMarker lead to the next page.
	NextLinks  string `json:"next_links"`
	NextMarker string `json:"next_marker"`
	// Submit is the query form button, it goes stale once results load.
	Submit string `json:"submit"`
	// Ready appears in the results frame once a query has been answered.
	Ready string `json:"ready"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		Mode:       "select[name='tipo1']",
		Container:  "tt",
		Header:     "tt b",
		NextLinks:  "td.texto a[href*='visualizar']",
		NextMarker: "Siguiente",
		Submit:     "input[type='submit'][value='Recuperar']",
		Ready:      "td.submenu1",
	}
}

// Modes maps the short result-mode names accepted on the command line to
// the label fragment shown in the mode selector.
var Modes = map[string]string{
	"concord": "Concordancias",
	"doc":     "Documentos",
	"par":     "Párrafos",
	"agrup":   "Agrupaciones",
}

func ModeNames() []string {
	names := make([]string, 0, len(Modes))
	for name := range Modes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ModeMarker resolves a short mode name.
func ModeMarker(name string) (string, error) {
	marker, ok := Modes[name]
	if !ok {
		return "", fmt.Errorf(
			"unknown result mode %q, expected one of: %s",
			name, strings.Join(ModeNames(), ", "),
		)
	}
	return marker, nil
}

// Snapshot is everything the harvester reads from one rendered results page.
type Snapshot struct {
	Mode      string
	Container string
	Header    string
	Next      []harvest.Link
}

// SelectedOption returns the text of the selected option of a <select>,
// falling back to the first option like a browser does.
func SelectedOption(sel *goquery.Selection) string {
	options := sel.Find("option")
	selected := options.FilterFunction(func(_ int, s *goquery.Selection) bool {
		_, ok := s.Attr("selected")
		return ok
	})
	if selected.Length() == 0 {
		selected = options
	}
	return strings.TrimSpace(selected.First().Text())
}

// NextLinks keeps the anchors that point to the next page.
func NextLinks(anchors []htmlutil.Anchor, marker string) []harvest.Link {
	var links []harvest.Link
	for _, a := range anchors {
		if !textutil.Contains(a.Name, marker) {
			continue
		}
		links = append(links, harvest.Link{Text: a.Name, Href: a.Href})
	}
	return links
}

// Parse reads a results page, link hrefs are resolved against base.
func Parse(ctx context.Context, doc *goquery.Document, sel Selectors, base *url.URL) Snapshot {
	ctx, span := tracer.Start(ctx, "Parse")
	defer span.End()

	snapshot := Snapshot{
		Mode:      textutil.Normalize(SelectedOption(doc.Find(sel.Mode).First())),
		Container: textutil.Normalize(htmlutil.RenderSelection(doc.Find(sel.Container).First())),
		Header:    textutil.Normalize(strings.TrimSpace(htmlutil.RenderSelection(doc.Find(sel.Header).First()))),
	}
	anchors := htmlutil.GetAnchors(ctx, doc.Find(sel.NextLinks), base)
	snapshot.Next = NextLinks(anchors, sel.NextMarker)

	span.SetAttributes(
		attribute.String("mode", snapshot.Mode),
		attribute.Int("container_length", len(snapshot.Container)),
		attribute.Int("next_links", len(snapshot.Next)),
	)
	return snapshot
}
