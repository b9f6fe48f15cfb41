package harvest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"corde-harvester/lib/concordance"

	"github.com/stretchr/testify/require"
)

const testHeader = "N  REF  AÑO  AUTOR  TÍTULO  PUBLICACIÓN"

func line(id int) string {
	return fmt.Sprintf("%d  Pág. %d ** 1500  Autor, Anónimo 1.Obra número Madrid", id, id)
}

func container(ids ...int) string {
	lines := []string{testHeader, "Resultados de la consulta"}
	for _, id := range ids {
		lines = append(lines, line(id))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

type fakeResults struct {
	container string
	next      bool
}

type fakePage struct {
	mode    string
	pages   []fakeResults
	current int

	refreshes int
	dismissed int
	follows   []Link
	reads     int

	failOp string
	err    error
}

func newFakePage(pages ...fakeResults) *fakePage {
	return &fakePage{mode: "Concordancias", pages: pages}
}

func (p *fakePage) fail(op string) error {
	if p.failOp == op {
		return p.err
	}
	return nil
}

func (p *fakePage) SelectedMode(ctx context.Context) (string, error) {
	if err := p.fail("mode"); err != nil {
		return "", err
	}
	return p.mode, nil
}

func (p *fakePage) Results(ctx context.Context) (string, string, error) {
	if err := p.fail("results"); err != nil {
		return "", "", err
	}
	p.reads++
	return p.pages[p.current].container, testHeader, nil
}

func (p *fakePage) Refresh(ctx context.Context) error {
	if err := p.fail("refresh"); err != nil {
		return err
	}
	p.refreshes++
	return nil
}

func (p *fakePage) DismissAlert(ctx context.Context) error {
	p.dismissed++
	return nil
}

func (p *fakePage) NextLinks(ctx context.Context) ([]Link, error) {
	if err := p.fail("next"); err != nil {
		return nil, err
	}
	if !p.pages[p.current].next {
		return nil, nil
	}
	return []Link{
		{Text: "Siguiente >>", Href: fmt.Sprintf("visualizar?pag=%d", p.current+2)},
		{Text: "Siguiente", Href: "visualizar?pag=last"},
	}, nil
}

func (p *fakePage) Follow(ctx context.Context, link Link) error {
	if err := p.fail("follow"); err != nil {
		return err
	}
	p.follows = append(p.follows, link)
	p.current++
	return nil
}

type recordingAPI struct {
	broken   []string
	warnings []string
	counts   map[string]int64
}

func (r *recordingAPI) ReportBroken(id string, params ...any) {
	r.broken = append(r.broken, id)
}

func (r *recordingAPI) ReportWarning(id string, params ...any) {
	r.warnings = append(r.warnings, id)
}

func (r *recordingAPI) ReportDebug(msg string, params ...any) {}

func (r *recordingAPI) ReportCount(id string, count int64) {
	if r.counts == nil {
		r.counts = map[string]int64{}
	}
	r.counts[id] = count
}

func ids(t testing.TB, records []concordance.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		id, ok := r.Get("N")
		require.True(t, ok)
		out[i] = id
	}
	return out
}

func TestRunSinglePage(t *testing.T) {
	page := newFakePage(fakeResults{container: container(1, 2, 3)})
	tel := &recordingAPI{}

	records, err := New(Options{Tel: tel}).Run(context.Background(), page)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2", "3"}, ids(t, records))
	require.Equal(t, 1, page.refreshes)
	require.Equal(t, 1, page.dismissed)
	require.Empty(t, page.follows)
	require.Equal(t, int64(3), tel.counts["harvest: records"])

	require.Equal(t, concordance.Record{
		{Name: "N", Value: "1"},
		{Name: "REF", Value: "Pág. 1"},
		{Name: "AÑO", Value: "1500"},
		{Name: "AUTOR", Value: "Autor, Anónimo"},
		{Name: "TÍTULO", Value: "1.Obra número"},
		{Name: "PUBLICACIÓN", Value: "Madrid"},
		{Name: concordance.Placeholder, Value: concordance.Placeholder},
		{Name: concordance.Placeholder, Value: concordance.Placeholder},
	}, records[0])
}

func TestRunCarryoverAtPageStart(t *testing.T) {
	// the second page starts with the last record of the first one, the
	// page is abandoned at that point
	page := newFakePage(
		fakeResults{container: container(1, 2, 3), next: true},
		fakeResults{container: container(3, 4, 5)},
	)

	var stats []PageStats
	records, err := New(Options{
		OnPage: func(s PageStats) { stats = append(stats, s) },
	}).Run(context.Background(), page)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2", "3"}, ids(t, records))

	require.Len(t, stats, 2)
	require.False(t, stats[0].DuplicateStop)
	require.True(t, stats[1].DuplicateStop)
	require.Equal(t, 0, stats[1].Kept)
	require.Equal(t, 3, stats[1].Total)
}

func TestRunCarryoverAfterFreshRecords(t *testing.T) {
	page := newFakePage(
		fakeResults{container: container(1, 2, 3), next: true},
		fakeResults{container: container(4, 5, 3, 6)},
	)
	tel := &recordingAPI{}

	records, err := New(Options{Tel: tel}).Run(context.Background(), page)
	require.NoError(t, err)
	// 6 is new but comes after the duplicate, so it is never read
	require.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(t, records))
	require.Equal(t, []string{"harvest: harvest.dedup"}, tel.warnings)
}

func TestRunDedupAcrossPages(t *testing.T) {
	var pages []fakeResults
	next := 1
	for i := 0; i < 6; i++ {
		var pageIDs []int
		if next > 1 {
			// overlap with the tail of the previous page
			pageIDs = append(pageIDs, next-1)
		}
		for j := 0; j < 4; j++ {
			pageIDs = append(pageIDs, next)
			next++
		}
		pages = append(pages, fakeResults{container: container(pageIDs...), next: i < 5})
	}
	page := newFakePage(pages...)

	records, err := New(Options{}).Run(context.Background(), page)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, id := range ids(t, records) {
		require.False(t, seen[id], "identifier %s repeated", id)
		seen[id] = true
	}
	require.Equal(t, []string{"1", "2", "3", "4"}, ids(t, records))
}

func TestRunTermination(t *testing.T) {
	var pages []fakeResults
	for i := 0; i < 4; i++ {
		pages = append(pages, fakeResults{
			container: container(i*10+1, i*10+2),
			next:      i < 3,
		})
	}
	page := newFakePage(pages...)

	records, err := New(Options{}).Run(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, records, 8)
	require.Len(t, page.follows, 3)
	require.Equal(t, len(page.follows)+1, page.reads)
	require.Equal(t, "visualizar?pag=2", page.follows[0].Href)
}

func TestRunMaxPages(t *testing.T) {
	page := newFakePage(
		fakeResults{container: container(1), next: true},
		fakeResults{container: container(2), next: true},
		fakeResults{container: container(3)},
	)

	records, err := New(Options{MaxPages: 2}).Run(context.Background(), page)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, ids(t, records))
	require.Equal(t, 2, page.reads)
}

func TestRunWrongCategory(t *testing.T) {
	page := newFakePage(fakeResults{container: container(1)})
	page.mode = "Documentos"

	records, err := New(Options{}).Run(context.Background(), page)
	require.Nil(t, records)
	require.ErrorIs(t, err, ErrWrongCategory)

	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
	require.Equal(t, "Documentos", precondition.Mode)
	require.Equal(t, 0, page.reads)
}

func TestRunCustomMarker(t *testing.T) {
	page := newFakePage(fakeResults{container: container(1)})
	page.mode = "  Documentos "

	_, err := New(Options{Marker: "Documentos"}).Run(context.Background(), page)
	require.NoError(t, err)
}

func TestRunNavigationFailure(t *testing.T) {
	timeout := errors.New("waiting for td.texto: deadline exceeded")

	for _, op := range []string{"mode", "results", "refresh", "next", "follow"} {
		t.Run(op, func(t *testing.T) {
			page := newFakePage(
				fakeResults{container: container(1, 2), next: true},
				fakeResults{container: container(3)},
			)
			page.failOp = op
			page.err = timeout
			tel := &recordingAPI{}

			records, err := New(Options{Tel: tel}).Run(context.Background(), page)
			require.ErrorIs(t, err, ErrNavigation)
			require.ErrorIs(t, err, timeout)

			var navigation *NavigationError
			require.ErrorAs(t, err, &navigation)

			switch op {
			case "mode", "results":
				require.Empty(t, records)
			default:
				require.Equal(t, []string{"1", "2"}, ids(t, records))
				require.Equal(t, []string{"harvest: harvest.advance"}, tel.broken)
			}
		})
	}
}

func TestRunCanceled(t *testing.T) {
	page := newFakePage(fakeResults{container: container(1)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}).Run(ctx, page)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBlocks(t *testing.T) {
	require.Equal(t,
		[]string{"", "a", "b"},
		Blocks("HEAD\na\nb", "HEAD"),
	)
	require.Equal(t, []string{"a", "b"}, Blocks("a\nb", ""))
}
