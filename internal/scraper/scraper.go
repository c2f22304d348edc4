package scraper

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"coastweb/mailscheduler/helpers"
	"coastweb/mailscheduler/internal/robots"
	"coastweb/mailscheduler/internal/selector"
	"coastweb/mailscheduler/logger"
	"coastweb/mailscheduler/pkg/errors"
	"coastweb/mailscheduler/services/cache"
)

// FieldNotFound is the value a field receives when its selector matches
// nothing on the page
const FieldNotFound = "N/A"

// hostBlockTime is how long a host stays blocked after rate limiting us
const hostBlockTime = 60 * time.Second

// ResultSink persists scrape results on supplier records. Keeping it an
// interface decouples scraping from storage.
type ResultSink interface {
	CachedSupplierResult(supplierID int64, ttl time.Duration) (map[string]string, bool, error)
	SaveScrapeResult(supplierID int64, result map[string]string, scrapedAt time.Time) error
}

// Options configures a Scraper
type Options struct {
	UserAgent      string
	BaseDelay      time.Duration
	FetchTimeout   time.Duration
	ResultCacheTTL time.Duration
}

// Result is the outcome of a scrape
type Result struct {
	Fields map[string]string
	Cached bool
}

// Scraper fetches supplier pages and extracts configured fields. It
// honors robots.txt, sleeps between requests, and backs off from hosts
// that rate limit us.
type Scraper struct {
	robots *robots.Cache
	blocks cache.CacheService
	sink   ResultSink
	opts   Options
	log    *logger.Logger
}

// New creates a new Scraper. The sink may be nil for sinkless
// (preview-only) use.
func New(robotsCache *robots.Cache, blocks cache.CacheService, sink ResultSink, opts Options) *Scraper {
	if opts.ResultCacheTTL <= 0 {
		opts.ResultCacheTTL = 600 * time.Second
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	return &Scraper{
		robots: robotsCache,
		blocks: blocks,
		sink:   sink,
		opts:   opts,
		log:    logger.ForScraper(),
	}
}

// Scrape fetches the page and returns the configured field→text
// mapping. A supplierID > 0 enables the result cache: a fresh cached
// result short-circuits the fetch unless force is set, and new results
// are persisted best-effort. Robots and fetch failures come back as
// soft EngineErrors.
func (s *Scraper) Scrape(ctx context.Context, pageURL string, selectors map[string]string, supplierID int64, force bool) (*Result, error) {
	if s.sink != nil && supplierID > 0 && !force {
		cached, ok, err := s.sink.CachedSupplierResult(supplierID, s.opts.ResultCacheTTL)
		if err != nil {
			return nil, err
		}
		if ok {
			return &Result{Fields: cached, Cached: true}, nil
		}
	}

	if !s.robots.IsAllowed(ctx, pageURL) {
		return nil, errors.NewRobotsDisallowed("scraper", pageURL)
	}

	if blocked, host := s.hostBlocked(pageURL); blocked {
		return nil, errors.NewFetch("scraper", "host "+host+" is temporarily blocked after rate limiting", nil)
	}

	if err := s.politeSleep(ctx, pageURL); err != nil {
		return nil, err
	}

	body, err := helpers.FetchHTML(ctx, pageURL, s.opts.UserAgent, s.opts.FetchTimeout)
	if err != nil {
		if strings.HasPrefix(err.Error(), "rate limited") {
			s.blockHost(pageURL)
		}
		return nil, errors.NewFetch("scraper", "failed to fetch "+pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		// goquery parses leniently; this only fires on reader failures
		return nil, errors.NewFetch("scraper", "failed to parse "+pageURL, err)
	}

	fields := make(map[string]string, len(selectors))
	for field, css := range selectors {
		text, ok := selector.Match(doc, selector.Translate(css))
		if !ok {
			text = FieldNotFound
		}
		fields[field] = text
	}

	if s.sink != nil && supplierID > 0 {
		// Best-effort writeback; a persistence failure must not fail
		// the scrape
		if err := s.sink.SaveScrapeResult(supplierID, fields, time.Now()); err != nil {
			s.log.Warn().Err(err).Int64("supplier_id", supplierID).Msg("Failed to persist scrape result")
		}
	}

	return &Result{Fields: fields}, nil
}

// politeSleep waits max(baseDelay, crawlDelay) before a request
func (s *Scraper) politeSleep(ctx context.Context, pageURL string) error {
	delay := s.opts.BaseDelay
	if crawlDelay, ok := s.robots.CrawlDelayFor(ctx, pageURL); ok && crawlDelay > delay {
		delay = crawlDelay
	}
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return errors.NewFetch("scraper", "canceled while waiting to scrape "+pageURL, ctx.Err())
	}
}

func (s *Scraper) hostBlocked(pageURL string) (bool, string) {
	host := hostOf(pageURL)
	if s.blocks == nil || host == "" {
		return false, host
	}
	_, err := s.blocks.Get(blockKey(host))
	return err == nil, host
}

func (s *Scraper) blockHost(pageURL string) {
	host := hostOf(pageURL)
	if s.blocks == nil || host == "" {
		return
	}
	if err := s.blocks.Set(blockKey(host), []byte("1"), hostBlockTime); err != nil {
		s.log.Warn().Err(err).Str("host", host).Msg("Failed to set host block")
	}
}

func hostOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func blockKey(host string) string {
	return "scrape_block:" + host
}
