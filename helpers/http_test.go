package helpers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFetchHTML(t *testing.T) {
	// Create a test server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check that headers are set
		assert.Equal(t, "TestBot/1.0", r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("Accept"))

		// Send a response
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html><body>Hello, World!</body></html>"))
	}))
	defer server.Close()

	// Fetch the page
	reader, err := FetchHTML(context.Background(), server.URL, "TestBot/1.0", 5*time.Second)
	assert.NoError(t, err)

	// Read the response
	body, err := io.ReadAll(reader)
	assert.NoError(t, err)
	assert.Contains(t, string(body), "Hello, World!")
}

func TestFetchHTMLNonUTF8(t *testing.T) {
	// Create a test server that returns a non-UTF8 response
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.WriteHeader(http.StatusOK)
		// This is "café" in ISO-8859-1 encoding
		w.Write([]byte("<html><body>caf\xe9</body></html>"))
	}))
	defer server.Close()

	reader, err := FetchHTML(context.Background(), server.URL, "TestBot/1.0", 5*time.Second)
	assert.NoError(t, err)

	body, err := io.ReadAll(reader)
	assert.NoError(t, err)
	assert.Contains(t, string(body), "café")
}

func TestFetchHTMLError(t *testing.T) {
	// Create a test server that returns an error
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := FetchHTML(context.Background(), server.URL, "TestBot/1.0", 5*time.Second)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 500")

	// Test with rate limiting
	serverRateLimited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer serverRateLimited.Close()

	_, err = FetchHTML(context.Background(), serverRateLimited.URL, "TestBot/1.0", 5*time.Second)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestFetchHTMLFollowsRedirects(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>landed</body></html>"))
	}))
	defer target.Close()

	redirecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusMovedPermanently)
	}))
	defer redirecting.Close()

	reader, err := FetchHTML(context.Background(), redirecting.URL, "TestBot/1.0", 5*time.Second)
	assert.NoError(t, err)

	body, err := io.ReadAll(reader)
	assert.NoError(t, err)
	assert.Contains(t, string(body), "landed")
}

func TestFetchSimply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TestBot/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	}))
	defer server.Close()

	data, err := FetchSimply(context.Background(), server.URL, "TestBot/1.0", 5*time.Second)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "Disallow: /private")
}

func TestFetchSimplyInvalidURL(t *testing.T) {
	_, err := FetchSimply(context.Background(), "http://invalid.url.that.does.not.exist", "TestBot/1.0", time.Second)
	assert.Error(t, err)
}
