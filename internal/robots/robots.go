package robots

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"coastweb/mailscheduler/helpers"
	"coastweb/mailscheduler/logger"
)

// Policy holds the crawling rules collected from a host's robots.txt
// for our user agent.
type Policy struct {
	Disallowed    []string
	CrawlDelay    time.Duration
	HasCrawlDelay bool
}

// BlocksAll reports whether the policy disallows every path on the host.
// Only a Disallow entry of exactly "/" blocks scraping.
func (p Policy) BlocksAll() bool {
	for _, path := range p.Disallowed {
		if path == "/" {
			return true
		}
	}
	return false
}

// Cache is a per-host robots.txt policy cache. Entries are fetched
// lazily and never expire within a process run.
type Cache struct {
	mu        sync.Mutex
	policies  map[string]Policy
	userAgent string
	timeout   time.Duration
}

// NewCache creates a new robots policy cache
func NewCache(userAgent string, timeout time.Duration) *Cache {
	return &Cache{
		policies:  make(map[string]Policy),
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// IsAllowed reports whether the given URL may be scraped under the
// host's robots.txt policy. Unreachable or unparseable robots.txt is
// treated as allow.
func (c *Cache) IsAllowed(ctx context.Context, rawURL string) bool {
	return !c.policyFor(ctx, rawURL).BlocksAll()
}

// CrawlDelayFor returns the crawl delay the host requests for our user
// agent. The second return value is false when no delay is specified.
func (c *Cache) CrawlDelayFor(ctx context.Context, rawURL string) (time.Duration, bool) {
	policy := c.policyFor(ctx, rawURL)
	return policy.CrawlDelay, policy.HasCrawlDelay
}

func (c *Cache) policyFor(ctx context.Context, rawURL string) Policy {
	origin, ok := originOf(rawURL)
	if !ok {
		// No host to fetch a policy from; stay permissive
		return Policy{}
	}

	c.mu.Lock()
	policy, cached := c.policies[origin]
	c.mu.Unlock()
	if cached {
		return policy
	}

	body, err := helpers.FetchSimply(ctx, origin+"/robots.txt", c.userAgent, c.timeout)
	if err != nil {
		// Permissive default: cache an empty policy so the host is not
		// re-fetched every scrape
		logger.Debug("robots.txt unavailable for %s: %v", origin, err)
		policy = Policy{}
	} else {
		policy = Parse(string(body), c.userAgent)
	}

	c.mu.Lock()
	c.policies[origin] = policy
	c.mu.Unlock()

	return policy
}

// originOf derives "scheme://host" from a URL
func originOf(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return u.Scheme + "://" + u.Host, true
}

// Parse scans a robots.txt body line by line and collects the Disallow
// paths and optional Crawl-delay of every block that applies to the
// given user agent. A block applies when its agent token is "*" or a
// case-insensitive substring of the user agent.
func Parse(body, userAgent string) Policy {
	var policy Policy
	applies := false
	uaLower := strings.ToLower(userAgent)

	for _, line := range strings.Split(body, "\n") {
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			agent := strings.ToLower(value)
			applies = agent == "*" || strings.Contains(uaLower, agent)
		case "disallow":
			if applies && value != "" {
				policy.Disallowed = append(policy.Disallowed, value)
			}
		case "crawl-delay":
			if applies {
				if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
					policy.CrawlDelay = time.Duration(seconds) * time.Second
					policy.HasCrawlDelay = true
				}
			}
		}
	}

	return policy
}
