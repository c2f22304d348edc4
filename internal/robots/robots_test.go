package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testUA = "MailSchedulerBot/1.0 (+https://coastweb.example/bot)"

func TestParseFullBlock(t *testing.T) {
	policy := Parse("User-agent: *\nDisallow: /\n", testUA)
	assert.True(t, policy.BlocksAll())
	assert.Equal(t, []string{"/"}, policy.Disallowed)
}

func TestParsePartialDisallow(t *testing.T) {
	policy := Parse("User-agent: *\nDisallow: /private\n", testUA)
	assert.False(t, policy.BlocksAll())
	assert.Equal(t, []string{"/private"}, policy.Disallowed)
}

func TestParseAgentMatching(t *testing.T) {
	// A block for another bot must not apply to us
	body := "User-agent: OtherBot\nDisallow: /\n"
	assert.False(t, Parse(body, testUA).BlocksAll())

	// Case-insensitive substring match against our user agent
	body = "User-agent: mailschedulerbot\nDisallow: /\n"
	assert.True(t, Parse(body, testUA).BlocksAll())

	// A later wildcard block still applies
	body = "User-agent: OtherBot\nDisallow: /other\n\nUser-agent: *\nDisallow: /\n"
	assert.True(t, Parse(body, testUA).BlocksAll())
}

func TestParseCrawlDelay(t *testing.T) {
	policy := Parse("User-agent: *\nCrawl-delay: 3\nDisallow: /tmp\n", testUA)
	assert.True(t, policy.HasCrawlDelay)
	assert.Equal(t, 3*time.Second, policy.CrawlDelay)

	// Delay in a non-applicable block is ignored
	policy = Parse("User-agent: OtherBot\nCrawl-delay: 9\n", testUA)
	assert.False(t, policy.HasCrawlDelay)

	// Malformed delay is ignored
	policy = Parse("User-agent: *\nCrawl-delay: soon\n", testUA)
	assert.False(t, policy.HasCrawlDelay)
}

func TestParseCommentsAndBlankLines(t *testing.T) {
	body := "# robots file\nUser-agent: * # all bots\n\nDisallow: / # everything\n"
	assert.True(t, Parse(body, testUA).BlocksAll())
}

func TestCacheIsAllowed(t *testing.T) {
	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/robots.txt", r.URL.Path)
		fetches++
		w.Write([]byte("User-agent: *\nDisallow: /\n"))
	}))
	defer server.Close()

	cache := NewCache(testUA, 2*time.Second)
	ctx := context.Background()

	assert.False(t, cache.IsAllowed(ctx, server.URL+"/page"))
	// Second call for the same host must hit the cache
	assert.False(t, cache.IsAllowed(ctx, server.URL+"/other"))
	assert.Equal(t, 1, fetches)
}

func TestCachePermissiveOnFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cache := NewCache(testUA, 2*time.Second)
	assert.True(t, cache.IsAllowed(context.Background(), server.URL+"/page"))
}

func TestCacheCrawlDelayFor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nCrawl-delay: 2\n"))
	}))
	defer server.Close()

	cache := NewCache(testUA, 2*time.Second)
	delay, ok := cache.CrawlDelayFor(context.Background(), server.URL+"/page")
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, delay)
}

func TestCacheInvalidURL(t *testing.T) {
	cache := NewCache(testUA, time.Second)
	assert.True(t, cache.IsAllowed(context.Background(), "not a url"))
}
