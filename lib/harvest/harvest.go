package harvest

import (
	"context"
	"strings"

	"corde-harvester/lib/concordance"
	"corde-harvester/lib/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("harvest")
var meter = otel.Meter("harvest")

var pageCounter, _ = meter.Int64Counter("corde.harvest.pages")
var recordCounter, _ = meter.Int64Counter("corde.harvest.records")
var discardedCounter, _ = meter.Int64Counter("corde.harvest.discarded")

const (
	report_dedup   = "harvest.dedup"
	report_advance = "harvest.advance"
)

// DefaultMarker is the label fragment of the concordance result mode.
const DefaultMarker = "Concordancias"

// PageStats describes what happened to one results page.
type PageStats struct {
	// Number is 1 for the first page.
	Number int
	Blocks int
	Kept   int
	// Discarded counts blocks that were not records.
	Discarded int
	// DuplicateStop is set when a repeated identifier ended the page early.
	DuplicateStop bool
	// Total is the number of records harvested so far.
	Total int
}

type Options struct {
	// Marker must be contained in the selected mode label, defaults to
	// DefaultMarker.
	Marker string
	// MaxPages stops the walk after this many pages, 0 means no limit.
	MaxPages int
	// OnPage is called after every page is processed.
	OnPage func(PageStats)
	// Tel defaults to a SlogAPI.
	Tel telemetry.API
}

// Harvester walks a paginated results view and collects its records.
// A Harvester holds no state between runs, but one Page must not be shared
// by concurrent runs.
type Harvester struct {
	marker   string
	maxPages int
	onPage   func(PageStats)
	tel      telemetry.API
}

func New(opts Options) *Harvester {
	if opts.Marker == "" {
		opts.Marker = DefaultMarker
	}
	if opts.Tel == nil {
		opts.Tel = telemetry.SlogAPI{}
	}
	return &Harvester{
		marker:   opts.Marker,
		maxPages: opts.MaxPages,
		onPage:   opts.OnPage,
		tel:      telemetry.NewScopedAPI("harvest", opts.Tel),
	}
}

type session struct {
	seen    map[string]struct{}
	records []concordance.Record
}

// Run harvests every page reachable from the current one.
//
// The records collected before a failure are returned together with the
// error. An empty result is not an error.
func (h *Harvester) Run(ctx context.Context, page Page) ([]concordance.Record, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	err := h.checkMode(ctx, page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s := &session{seen: make(map[string]struct{})}
	for number := 1; ; number++ {
		if err := ctx.Err(); err != nil {
			return s.records, err
		}

		stats, err := h.harvestPage(ctx, page, s, number)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return s.records, err
		}
		if h.onPage != nil {
			h.onPage(stats)
		}

		if h.maxPages > 0 && number >= h.maxPages {
			h.tel.ReportDebug("page limit reached", h.maxPages)
			break
		}

		more, err := h.advance(ctx, page)
		if err != nil {
			h.tel.ReportBroken(report_advance, err, number)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return s.records, err
		}
		if !more {
			break
		}
	}

	span.SetAttributes(attribute.Int("records", len(s.records)))
	h.tel.ReportCount("records", int64(len(s.records)))
	return s.records, nil
}

func (h *Harvester) checkMode(ctx context.Context, page Page) error {
	mode, err := page.SelectedMode(ctx)
	if err != nil {
		return &NavigationError{Op: "selected-mode", Err: err}
	}
	if !strings.Contains(strings.TrimSpace(mode), h.marker) {
		return &PreconditionError{Marker: h.marker, Mode: mode}
	}
	return nil
}

// Blocks removes the header caption from the container text and splits the
// rest into raw lines.
func Blocks(container, header string) []string {
	if header != "" {
		container = strings.ReplaceAll(container, header, "")
	}
	return strings.Split(container, "\n")
}

func (h *Harvester) harvestPage(ctx context.Context, page Page, s *session, number int) (PageStats, error) {
	ctx, span := tracer.Start(ctx, "harvestPage", trace.WithAttributes(
		attribute.Int("page", number),
	))
	defer span.End()

	stats := PageStats{Number: number}

	container, headerText, err := page.Results(ctx)
	if err != nil {
		return stats, &NavigationError{Op: "results", Err: err}
	}
	header := concordance.ParseHeader(headerText)
	blocks := Blocks(container, headerText)
	stats.Blocks = len(blocks)

	for _, block := range blocks {
		tuple := concordance.Segment(block)
		if !tuple.Segmented() {
			stats.Discarded++
			continue
		}

		id := tuple.ID()
		if _, dup := s.seen[id]; dup {
			// a repeated identifier means the page has looped back over
			// records captured from the previous page, nothing after it is
			// trusted
			stats.DuplicateStop = true
			if stats.Kept > 0 {
				h.tel.ReportWarning(report_dedup, "duplicate after fresh records", id, number)
			}
			break
		}
		s.seen[id] = struct{}{}

		s.records = append(s.records, concordance.Assemble(header, tuple.Slice()))
		stats.Kept++
	}
	stats.Total = len(s.records)

	pageCounter.Add(ctx, 1)
	recordCounter.Add(ctx, int64(stats.Kept))
	discardedCounter.Add(ctx, int64(stats.Discarded), metric.WithAttributes(
		attribute.Bool("duplicate_stop", stats.DuplicateStop),
	))
	span.SetAttributes(
		attribute.Int("kept", stats.Kept),
		attribute.Int("discarded", stats.Discarded),
		attribute.Bool("duplicate_stop", stats.DuplicateStop),
	)
	h.tel.ReportDebug(
		"page harvested",
		number, stats.Kept, stats.Discarded, stats.DuplicateStop,
	)

	return stats, nil
}

// advance refreshes the view and follows the first "next page" link, it
// reports false when there is none.
func (h *Harvester) advance(ctx context.Context, page Page) (bool, error) {
	ctx, span := tracer.Start(ctx, "advance")
	defer span.End()

	// the view re-renders in place, link handles from before the refresh are
	// stale
	err := page.Refresh(ctx)
	if err != nil {
		return false, &NavigationError{Op: "refresh", Err: err}
	}
	err = page.DismissAlert(ctx)
	if err != nil {
		return false, &NavigationError{Op: "dismiss-alert", Err: err}
	}

	links, err := page.NextLinks(ctx)
	if err != nil {
		return false, &NavigationError{Op: "next-links", Err: err}
	}
	if len(links) == 0 {
		return false, nil
	}

	span.SetAttributes(attribute.String("href", links[0].Href))
	err = page.Follow(ctx, links[0])
	if err != nil {
		return false, &NavigationError{Op: "follow", Err: err}
	}
	return true, nil
}
