package htmlutil

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const resultsFixture = `<html><body>
<table><tr><td class="texto">
<tt><b>N   CONCORDANCIA</b><br>1  Pág. 1 ** 1500  Autor<br>2  Pág. 2
 ** 1501  Otro<br></tt>
<script>var x = 1;</script>
<a href="visualizar?pag=2"> Siguiente
  &gt;&gt; </a>
<a href="http://example.com/abs">Abs</a>
</td></tr></table>
</body></html>`

func parse(t testing.TB, src string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func TestRenderText(t *testing.T) {
	doc := parse(t, resultsFixture)

	tt := RenderSelection(doc.Find("tt"))
	require.Equal(t, "N   CONCORDANCIA\n1  Pág. 1 ** 1500  Autor\n2  Pág. 2  ** 1501  Otro\n", tt)
	require.Equal(t, "N   CONCORDANCIA", RenderSelection(doc.Find("tt b")))
	require.Equal(t, "", RenderSelection(doc.Find("pre")))

	td := RenderSelection(doc.Find("td.texto"))
	require.NotContains(t, td, "var x")
}

func TestRenderTextPre(t *testing.T) {
	doc := parse(t, "<div><pre>a\n  b</pre></div><p>c</p>")
	require.Equal(t, "a\n  b\nc\n", RenderSelection(doc.Find("body")))
}

func TestGetAnchors(t *testing.T) {
	doc := parse(t, resultsFixture)
	base, err := url.Parse("http://corpus.example/cgi/visualizar?pag=1")
	require.NoError(t, err)

	anchors := GetAnchors(context.Background(), doc.Find("a"), base)
	require.Equal(t, []Anchor{
		{Name: "Siguiente >>", Href: "http://corpus.example/cgi/visualizar?pag=2"},
		{Name: "Abs", Href: "http://example.com/abs"},
	}, anchors)

	unresolved := GetAnchors(context.Background(), doc.Find("a").First(), nil)
	require.Equal(t, "visualizar?pag=2", unresolved[0].Href)
}
