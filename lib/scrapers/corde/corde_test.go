package corde

import (
	"context"
	"net/url"
	"os"
	"strings"
	"testing"

	"corde-harvester/lib/concordance"
	"corde-harvester/lib/harvest"
	"corde-harvester/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func loadFixture(t testing.TB, name string) *goquery.Document {
	f, err := os.Open(name)
	require.NoError(t, err)
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)
	return doc
}

func TestParse(t *testing.T) {
	doc := loadFixture(t, "testdata/results.html")
	base, err := url.Parse("https://corpus.example/cgi-bin/visualizar?pag=1")
	require.NoError(t, err)

	snapshot := Parse(context.Background(), doc, DefaultSelectors(), base)
	require.Equal(t, "Concordancias", snapshot.Mode)
	require.Equal(t,
		concordance.Header{"N", "CONCORDANCIA", "AÑO", "AUTOR", "TÍTULO", "PAÍS", "TEMA", "PUBLICACIÓN"},
		concordance.ParseHeader(snapshot.Header),
	)
	require.Equal(t, []harvest.Link{
		{Text: "Siguiente >>", Href: "https://corpus.example/cgi-bin/visualizar?pag=2"},
		{Text: "Siguiente >>", Href: "https://corpus.example/cgi-bin/visualizar?pag=2"},
	}, snapshot.Next)

	var ids []string
	for _, block := range harvest.Blocks(snapshot.Container, snapshot.Header) {
		tuple := concordance.Segment(block)
		if tuple.Segmented() {
			ids = append(ids, tuple.ID())
		}
	}
	require.Equal(t, []string{"1", "2", "3"}, ids)
}

func TestSelectedOption(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<select name="tipo1"><option> Documentos </option><option>Concordancias</option></select>`,
	))
	require.NoError(t, err)
	require.Equal(t, "Documentos", SelectedOption(doc.Find("select")))
	require.Equal(t, "", SelectedOption(doc.Find("select.missing")))
}

func TestModeMarker(t *testing.T) {
	marker, err := ModeMarker("concord")
	require.NoError(t, err)
	require.Equal(t, "Concordancias", marker)

	marker, err = ModeMarker("par")
	require.NoError(t, err)
	require.Equal(t, "Párrafos", marker)

	_, err = ModeMarker("lemas")
	require.ErrorContains(t, err, "agrup, concord, doc, par")
}

func TestNextLinks(t *testing.T) {
	links := NextLinks([]htmlutil.Anchor{
		{Name: "<< Anterior", Href: "visualizar?pag=1"},
		{Name: "Siguiente >>", Href: "visualizar?pag=3"},
	}, "Siguiente")
	require.Equal(t, []harvest.Link{{Text: "Siguiente >>", Href: "visualizar?pag=3"}}, links)
	require.Nil(t, NextLinks(nil, "Siguiente"))
}
