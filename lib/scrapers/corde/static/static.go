// Package static reads result pages over plain HTTP, for mirrored or saved
// result pages that do not need a live browser session.
package static

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	"corde-harvester/lib/harvest"
	"corde-harvester/lib/restyutil"
	"corde-harvester/lib/scrapers/corde"
	"corde-harvester/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("corde.lib.scrapers.corde.static")

const (
	report_client_fetch = "client.fetch"
	report_client_cache = "client.cache"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type ClientOptions struct {
	Selectors corde.Selectors
	Timeout   time.Duration
	// RequestsPerSecond paces every request, 0 defaults to 2.
	RequestsPerSecond float64
	// Cache is optional.
	Cache         *badger.DB
	CacheLifetime time.Duration
	// InstrumentOutput receives a dump of every request in debug mode.
	InstrumentOutput restyutil.InstrumentOutput
	Tel              telemetry.API
}

type Client struct {
	http  *resty.Client
	cache webpageCache
	sel   corde.Selectors
	tel   telemetry.API
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.CacheLifetime == 0 {
		opts.CacheLifetime = time.Hour * 24
	}
	if opts.Selectors == (corde.Selectors{}) {
		opts.Selectors = corde.DefaultSelectors()
	}
	if opts.Tel == nil {
		opts.Tel = telemetry.SlogAPI{}
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(opts.Timeout)

	// max burst >= 1 just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})
	restyutil.InstrumentClient(client, tracer, opts.InstrumentOutput)

	return &Client{
		http: client,
		cache: webpageCache{
			db:       opts.Cache,
			lifetime: opts.CacheLifetime,
			now:      time.Now,
		},
		sel: opts.Selectors,
		tel: telemetry.NewScopedAPI("corde_static", opts.Tel),
	}, nil
}

func (c *Client) fetch(ctx context.Context, target *url.URL) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "client:fetch")
	defer span.End()
	span.SetAttributes(attribute.String("url", target.String()))

	cached, err := c.cache.get(ctx, target)
	if err == nil {
		span.SetStatus(codes.Ok, "CACHE HIT")
		return cached.Contents, nil
	}
	if err != errWebpageNotFound {
		c.tel.ReportWarning(report_client_cache, err, target.String())
	}

	res, err := c.http.R().
		SetContext(ctx).
		Get(target.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}
	if res.IsError() {
		err = fmt.Errorf("fetch %s: unexpected status %s", target, res.Status())
		c.tel.ReportBroken(report_client_fetch, err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	body := res.Body()
	err = c.cache.set(ctx, target, body)
	if err != nil {
		c.tel.ReportWarning(report_client_cache, err, target.String())
	}
	return body, nil
}

// Open fetches a results page and returns it as a harvest.Page.
func (c *Client) Open(ctx context.Context, target string) (*Page, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	p := &Page{client: c}
	err = p.load(ctx, u)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Page is a results page fetched over HTTP.
type Page struct {
	client   *Client
	current  *url.URL
	snapshot corde.Snapshot
}

var _ harvest.Page = (*Page)(nil)

func (p *Page) load(ctx context.Context, target *url.URL) error {
	body, err := p.client.fetch(ctx, target)
	if err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	p.current = target
	p.snapshot = corde.Parse(ctx, doc, p.client.sel, target)
	return nil
}

// URL is the address of the page currently loaded.
func (p *Page) URL() string {
	return p.current.String()
}

func (p *Page) SelectedMode(ctx context.Context) (string, error) {
	return p.snapshot.Mode, nil
}

func (p *Page) Results(ctx context.Context) (string, string, error) {
	if p.snapshot.Container == "" {
		return "", "", fmt.Errorf("no results container %q on %s", p.client.sel.Container, p.current)
	}
	return p.snapshot.Container, p.snapshot.Header, nil
}

// Refresh drops the cached copy and fetches the page again.
func (p *Page) Refresh(ctx context.Context) error {
	err := p.client.cache.evict(ctx, p.current)
	if err != nil {
		p.client.tel.ReportWarning(report_client_cache, err, p.current.String())
	}
	return p.load(ctx, p.current)
}

func (p *Page) DismissAlert(ctx context.Context) error {
	return nil
}

func (p *Page) NextLinks(ctx context.Context) ([]harvest.Link, error) {
	return p.snapshot.Next, nil
}

func (p *Page) Follow(ctx context.Context, link harvest.Link) error {
	target, err := p.current.Parse(link.Href)
	if err != nil {
		return err
	}
	return p.load(ctx, target)
}
