package parser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// fileURL returns the file:// URL of a local path.
func fileURL(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

// writeSecret writes a local HTML page that must never be read from the web.
func writeSecret(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "secret.html")
	if err := os.WriteFile(path, []byte(`<html><body>topsecretpassword</body></html>`), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse URL %q: %v", raw, err)
	}
	return u
}

// TestParseHTML tests word and link extraction from HTML.
func TestParseHTML(t *testing.T) {
	t.Parallel()

	base := mustParseURL(t, "http://example.com/docs/page.html")

	t.Run("counts lower-cased words of the body", func(t *testing.T) {
		t.Parallel()

		doc := `<html><head><title>Ignored Title</title></head><body>
			<h1>Hello World</h1>
			<p>hello, HELLO! world... Straße 42</p>
		</body></html>`

		page, err := New().ParseHTML(base, strings.NewReader(doc))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		want := map[string]int{"hello": 3, "world": 2, "straße": 1, "42": 1}
		for word, n := range want {
			if page.WordCounts[word] != n {
				t.Errorf("expected %s=%d, got %d", word, n, page.WordCounts[word])
			}
		}
		if _, ok := page.WordCounts["title"]; ok {
			t.Error("expected head text not to be counted")
		}
	})

	t.Run("skips script and style content", func(t *testing.T) {
		t.Parallel()

		doc := `<html><body>
			<script>var secret = "hidden";</script>
			<style>.visible { color: red; }</style>
			<p>visible</p>
		</body></html>`

		page, err := New().ParseHTML(base, strings.NewReader(doc))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if len(page.WordCounts) != 1 || page.WordCounts["visible"] != 1 {
			t.Errorf("expected only 'visible', got %v", page.WordCounts)
		}
	})

	t.Run("drops ignored words", func(t *testing.T) {
		t.Parallel()

		p := New(WithIgnoredWords([]*regexp.Regexp{regexp.MustCompile(`^.{1,3}$`)}))
		page, err := p.ParseHTML(base, strings.NewReader(`<body>the quick brown fox</body>`))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if len(page.WordCounts) != 2 || page.WordCounts["quick"] != 1 || page.WordCounts["brown"] != 1 {
			t.Errorf("expected quick and brown only, got %v", page.WordCounts)
		}
	})

	t.Run("resolves links and skips non-page targets", func(t *testing.T) {
		t.Parallel()

		doc := `<html><body>
			<a href="other.html">relative</a>
			<a href="/root#section">absolute path</a>
			<a href="https://example.org/x">external</a>
			<a href="other.html#top">duplicate</a>
			<a href="#local">fragment</a>
			<a href="mailto:me@example.com">mail</a>
			<a href="javascript:void(0)">js</a>
			<a href="ftp://example.com/file">ftp</a>
			<a>no href</a>
		</body></html>`

		page, err := New().ParseHTML(base, strings.NewReader(doc))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		want := []string{
			"http://example.com/docs/other.html",
			"http://example.com/root",
			"https://example.org/x",
		}
		if !slices.Equal(page.Links, want) {
			t.Errorf("expected links %v, got %v", want, page.Links)
		}
	})
}

// TestLocalFileAccess tests that web pages cannot reach local files.
func TestLocalFileAccess(t *testing.T) {
	t.Parallel()

	secret := writeSecret(t)
	secretURL := fileURL(secret)

	t.Run("file links are dropped from web pages", func(t *testing.T) {
		t.Parallel()

		doc := fmt.Sprintf(`<body><a href=%q>x</a><a href="/next">y</a></body>`, secretURL)
		page, err := New().ParseHTML(mustParseURL(t, "https://example.com/"), strings.NewReader(doc))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if !slices.Equal(page.Links, []string{"https://example.com/next"}) {
			t.Errorf("expected only the web link, got %v", page.Links)
		}
	})

	t.Run("file links are kept on local pages", func(t *testing.T) {
		t.Parallel()

		doc := fmt.Sprintf(`<body><a href=%q>x</a></body>`, secretURL)
		page, err := New().ParseHTML(mustParseURL(t, "file:///site/index.html"), strings.NewReader(doc))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if !slices.Equal(page.Links, []string{secretURL}) {
			t.Errorf("expected the file link, got %v", page.Links)
		}
	})

	t.Run("redirects to local files are not followed", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, secretURL, http.StatusFound)
		}))
		defer server.Close()

		p := New(WithFileRoots(filepath.Dir(secret)))
		page := p.Parse(context.Background(), server.URL+"/redir")
		if len(page.WordCounts) != 0 {
			t.Errorf("expected an empty page, got %v", page.WordCounts)
		}

		_, err := p.parse(context.Background(), server.URL+"/redir")
		if !errors.Is(err, ErrSchemeChange) {
			t.Errorf("expected %v, got %v", ErrSchemeChange, err)
		}
	})

	t.Run("files are not read without a file root", func(t *testing.T) {
		t.Parallel()

		_, err := New().parse(context.Background(), secretURL)
		if !errors.Is(err, ErrFileNotAllowed) {
			t.Errorf("expected %v, got %v", ErrFileNotAllowed, err)
		}
	})

	t.Run("files outside the file roots are not read", func(t *testing.T) {
		t.Parallel()

		sub := filepath.Join(filepath.Dir(secret), "sub")
		if err := os.MkdirAll(sub, 0750); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		p := New(WithFileRoots(sub))
		if page := p.Parse(context.Background(), secretURL); len(page.WordCounts) != 0 {
			t.Errorf("expected an empty page, got %v", page.WordCounts)
		}
		escape := fileURL(sub) + "/../secret.html"
		if page := p.Parse(context.Background(), escape); len(page.WordCounts) != 0 {
			t.Errorf("expected .. to stay inside the root, got %v", page.WordCounts)
		}
	})
}

// TestCheckRedirect tests which redirects the default client follows.
func TestCheckRedirect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		from    string
		to      string
		wantErr bool
	}{
		{name: "same scheme", from: "http://a.example/", to: "http://b.example/"},
		{name: "upgrade to https", from: "http://a.example/", to: "https://a.example/"},
		{name: "downgrade to http", from: "https://a.example/", to: "http://a.example/", wantErr: true},
		{name: "web to file", from: "https://a.example/", to: "file:///etc/passwd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			via := []*http.Request{{URL: mustParseURL(t, tt.from)}}
			err := checkRedirect(&http.Request{URL: mustParseURL(t, tt.to)}, via)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkRedirect() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestFileRoots tests deriving file roots from start pages.
func TestFileRoots(t *testing.T) {
	t.Parallel()

	got := FileRoots([]string{
		"https://example.com/",
		"file:///srv/site/index.html",
		"file:///srv/docs/",
		"::bad",
	})
	want := []string{
		filepath.FromSlash("/srv/site"),
		filepath.FromSlash("/srv/docs"),
	}
	if !slices.Equal(got, want) {
		t.Errorf("FileRoots() = %v, want %v", got, want)
	}
}

// TestParse tests fetching pages over HTTP and from disk.
func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("fetches and parses an HTML page", func(t *testing.T) {
		t.Parallel()

		received := make(chan http.Header, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received <- r.Header.Clone()
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, `<html><body><p>gopher gopher</p><a href="/next">next</a></body></html>`)
		}))
		defer server.Close()

		p := New(
			WithUserAgent("test-agent"),
			WithCookie("session=abc"),
			WithHeaders(map[string]string{"X-Test": "yes"}),
		)
		page := p.Parse(context.Background(), server.URL+"/start")

		if page.WordCounts["gopher"] != 2 {
			t.Errorf("expected gopher=2, got %v", page.WordCounts)
		}
		if want := []string{server.URL + "/next"}; !slices.Equal(page.Links, want) {
			t.Errorf("expected links %v, got %v", want, page.Links)
		}
		header := <-received
		if gotUA := header.Get("User-Agent"); gotUA != "test-agent" {
			t.Errorf("expected user agent 'test-agent', got %q", gotUA)
		}
		if gotCookie := header.Get("Cookie"); gotCookie != "session=abc" {
			t.Errorf("expected cookie 'session=abc', got %q", gotCookie)
		}
		if gotHeader := header.Get("X-Test"); gotHeader != "yes" {
			t.Errorf("expected X-Test 'yes', got %q", gotHeader)
		}
	})

	t.Run("failures yield an empty page", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/missing":
				http.NotFound(w, r)
			case "/json":
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `{"words": "not html"}`)
			}
		}))
		defer server.Close()

		p := New()
		for _, u := range []string{
			server.URL + "/missing",
			server.URL + "/json",
			"http://[::1]:namedport",
			"not a url at all",
		} {
			page := p.Parse(context.Background(), u)
			if len(page.WordCounts) != 0 || len(page.Links) != 0 {
				t.Errorf("%s: expected empty page, got %+v", u, page)
			}
		}
	})

	t.Run("truncates large bodies", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "<body>first "+strings.Repeat("x", 100)+" second</body>")
		}))
		defer server.Close()

		page := New(WithMaxBodySize(20)).Parse(context.Background(), server.URL)
		if page.WordCounts["first"] != 1 {
			t.Errorf("expected first=1, got %v", page.WordCounts)
		}
		if page.WordCounts["second"] != 0 {
			t.Error("expected text past the limit to be dropped")
		}
	})

	t.Run("reads local files", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "page.html"),
			[]byte(`<html><body>local words <a href="other.html">o</a></body></html>`), 0600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		pageURL := fileURL(filepath.Join(dir, "page.html"))
		page := New(WithFileRoots(FileRoots([]string{pageURL})...)).Parse(context.Background(), pageURL)

		if page.WordCounts["local"] != 1 || page.WordCounts["words"] != 1 {
			t.Errorf("expected local and words, got %v", page.WordCounts)
		}
		if len(page.Links) != 1 || !strings.HasSuffix(page.Links[0], "/other.html") {
			t.Errorf("expected link to other.html, got %v", page.Links)
		}
	})

	t.Run("rate limit spaces out requests", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "<body>ok</body>")
		}))
		defer server.Close()

		p := New(WithRateLimit(20, 1))
		start := time.Now()
		for range 3 {
			p.Parse(context.Background(), server.URL)
		}

		if hits.Load() != 3 {
			t.Errorf("expected 3 requests, got %d", hits.Load())
		}
		// Three requests at 20/s with burst 1 need at least two 50ms gaps.
		if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
			t.Errorf("expected requests to be spaced out, took %s", elapsed)
		}
	})

	t.Run("cancelled context yields an empty page", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "<body>never</body>")
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		page := New().Parse(ctx, server.URL)
		if len(page.WordCounts) != 0 {
			t.Errorf("expected empty page, got %v", page.WordCounts)
		}
	})
}

// TestOptions tests the parser options.
func TestOptions(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		p := New()
		if p.userAgent != DefaultUserAgent {
			t.Errorf("expected default user agent, got %q", p.userAgent)
		}
		if p.maxBodySize != DefaultMaxBodySize {
			t.Errorf("expected default body size, got %d", p.maxBodySize)
		}
		if p.limiter != nil {
			t.Error("expected no rate limit by default")
		}
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("invalid values keep defaults", func(t *testing.T) {
		t.Parallel()

		p := New(WithUserAgent(""), WithMaxBodySize(-1), WithRateLimit(0, 5), WithClient(nil))
		if p.userAgent != DefaultUserAgent {
			t.Errorf("expected default user agent, got %q", p.userAgent)
		}
		if p.maxBodySize != DefaultMaxBodySize {
			t.Errorf("expected default body size, got %d", p.maxBodySize)
		}
		if p.limiter != nil {
			t.Error("expected no rate limit")
		}
		if p.client == nil {
			t.Error("expected default client")
		}
	})
}
