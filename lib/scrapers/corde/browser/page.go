package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"corde-harvester/lib/harvest"
	"corde-harvester/lib/scrapers/corde"
	"corde-harvester/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const suppressLeavePromptScript = `
window.onbeforeunload = null;
window.addEventListener('beforeunload', e => e.stopImmediatePropagation(), true);
`

const selectedModeScript = `(() => {
	const select = document.querySelector(%s);
	if (!select) return null;
	const option = select.options[select.selectedIndex];
	return option ? option.text : "";
})()`

// marks the current document so a navigation can be detected once the
// marker is gone
const markDocumentScript = `window.__cordeStale = true;`
const documentReplacedScript = `window.__cordeStale !== true && document.readyState === "complete"`

const clickLinkScript = `(() => {
	const href = %s;
	const text = %s;
	const anchors = Array.from(document.querySelectorAll(%s));
	const match = anchors.find(a => a.href === href && a.innerText.trim() === text)
		|| anchors.find(a => a.innerText.trim() === text);
	if (!match) return false;
	match.click();
	return true;
})()`

// Page is the live results view of a Session.
type Page struct {
	session *Session
}

var _ harvest.Page = (*Page)(nil)

func (p *Page) sel() corde.Selectors {
	return p.session.opts.Selectors
}

func (p *Page) SelectedMode(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "page:SelectedMode")
	defer span.End()

	var mode *string
	err := p.session.run(ctx, p.session.opts.PageTimeout,
		chromedp.WaitReady(p.sel().Mode, chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(selectedModeScript, jsString(p.sel().Mode)), &mode),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read selected mode")
		return "", err
	}
	if mode == nil {
		return "", fmt.Errorf("no mode selector %q on page", p.sel().Mode)
	}
	return textutil.Normalize(strings.TrimSpace(*mode)), nil
}

func (p *Page) Results(ctx context.Context) (string, string, error) {
	ctx, span := tracer.Start(ctx, "page:Results")
	defer span.End()

	var container, header string
	err := p.session.run(ctx, p.session.opts.PageTimeout,
		chromedp.WaitReady(p.sel().Container, chromedp.ByQuery),
		chromedp.Text(p.sel().Container, &container, chromedp.ByQuery),
		chromedp.Text(p.sel().Header, &header, chromedp.ByQuery),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read results")
		return "", "", err
	}
	span.SetAttributes(attribute.Int("container_length", len(container)))
	return textutil.Normalize(container), textutil.Normalize(strings.TrimSpace(header)), nil
}

func (p *Page) Refresh(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "page:Refresh")
	defer span.End()

	err := p.session.run(ctx, p.session.opts.PageTimeout,
		chromedp.Evaluate(suppressLeavePromptScript, nil),
		chromedp.Reload(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reload")
	}
	return err
}

func (p *Page) DismissAlert(ctx context.Context) error {
	if !p.session.dialogOpen.Swap(false) {
		return nil
	}
	return p.session.run(ctx, p.session.opts.PageTimeout,
		page.HandleJavaScriptDialog(true),
	)
}

func (p *Page) NextLinks(ctx context.Context) ([]harvest.Link, error) {
	ctx, span := tracer.Start(ctx, "page:NextLinks")
	defer span.End()

	var html, location string
	err := p.session.run(ctx, p.session.opts.PageTimeout,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read page")
		return nil, err
	}

	base, err := url.Parse(location)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	links := corde.Parse(ctx, doc, p.sel(), base).Next
	span.SetAttributes(attribute.Int("next_links", len(links)))
	return links, nil
}

func (p *Page) Follow(ctx context.Context, link harvest.Link) error {
	ctx, span := tracer.Start(ctx, "page:Follow")
	defer span.End()
	span.SetAttributes(attribute.String("href", link.Href))

	err := p.session.limiter.Wait(ctx)
	if err != nil {
		return err
	}

	var clicked bool
	err = p.session.run(ctx, p.session.opts.PageTimeout,
		chromedp.Evaluate(markDocumentScript, nil),
		chromedp.Evaluate(
			fmt.Sprintf(clickLinkScript, jsString(link.Href), jsString(link.Text), jsString(p.sel().NextLinks)),
			&clicked,
		),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to click link")
		return err
	}
	if !clicked {
		return fmt.Errorf("link %q (%s) is no longer on the page", link.Text, link.Href)
	}

	var replaced bool
	err = p.session.run(ctx, p.session.opts.PageTimeout,
		chromedp.Poll(documentReplacedScript, &replaced),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "next page did not load")
		return fmt.Errorf("wait for %s: %w", link.Href, err)
	}
	return nil
}
