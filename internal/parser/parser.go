package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/wordcrawl/internal/crawler"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"
)

const (
	// DefaultUserAgent is sent with every HTTP request.
	DefaultUserAgent = "wordcrawl/1.0 (+https://github.com/nao1215/wordcrawl)"

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultRequestTimeout bounds a single fetch.
	DefaultRequestTimeout = 30 * time.Second

	// maxRedirects is the number of redirects followed per request.
	maxRedirects = 10
)

// Parser fetches pages over HTTP or from the local file system and counts
// the words of their visible text.
type Parser struct {
	// client performs the requests. file:// is registered on its transport
	// when the default client is used.
	client *http.Client

	// userAgent is the User-Agent header to use.
	userAgent string

	// cookie is sent as the Cookie header when non-empty.
	cookie string

	// headers are extra request headers.
	headers map[string]string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// limiter spaces out requests. nil means no limit.
	limiter *rate.Limiter

	// ignoredWords drops words matching any of these patterns.
	ignoredWords []*regexp.Regexp

	// fileRoots are the directories file:// URLs may be read from.
	// Empty means no local file is read.
	fileRoots []string

	logger *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithClient sets the HTTP client. The caller is responsible for
// registering a file:// transport on it if local files are needed.
func WithClient(client *http.Client) Option {
	return func(p *Parser) {
		if client != nil {
			p.client = client
		}
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(p *Parser) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

// WithCookie sets the Cookie header sent with each request.
func WithCookie(cookie string) Option {
	return func(p *Parser) {
		p.cookie = cookie
	}
}

// WithHeaders sets extra request headers.
func WithHeaders(headers map[string]string) Option {
	return func(p *Parser) {
		p.headers = headers
	}
}

// WithMaxBodySize sets the maximum response body size. Non-positive sizes
// keep the default.
func WithMaxBodySize(size int64) Option {
	return func(p *Parser) {
		if size > 0 {
			p.maxBodySize = size
		}
	}
}

// WithRateLimit allows at most rps requests per second, with bursts of up
// to burst requests. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(p *Parser) {
		if rps <= 0 {
			p.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithIgnoredWords drops every word that matches one of the patterns.
func WithIgnoredWords(patterns []*regexp.Regexp) Option {
	return func(p *Parser) {
		p.ignoredWords = patterns
	}
}

// WithFileRoots allows file:// URLs below the given directories.
// Without it the parser never reads local files.
func WithFileRoots(dirs ...string) Option {
	return func(p *Parser) {
		for _, dir := range dirs {
			if dir != "" {
				p.fileRoots = append(p.fileRoots, filepath.Clean(dir))
			}
		}
	}
}

// FileRoots returns the directories of the file:// URLs among startURLs,
// for use with WithFileRoots. A URL ending in "/" is a directory itself.
func FileRoots(startURLs []string) []string {
	roots := make([]string, 0)
	for _, raw := range startURLs {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme != "file" || u.Path == "" {
			continue
		}
		dir := filepath.FromSlash(u.Path)
		if !strings.HasSuffix(u.Path, "/") {
			dir = filepath.Dir(dir)
		}
		roots = append(roots, filepath.Clean(dir))
	}
	return roots
}

// WithLogger sets the logger for fetch and parse failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// New creates a Parser with the given options.
func New(opts ...Option) *Parser {
	p := &Parser{
		client:      newDefaultClient(),
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// newDefaultClient returns a client that also understands file:// URLs.
// Which files may be read is decided by Parser.allowFile before each request;
// redirects cannot switch to another scheme, so no server can send the
// client to a local file.
func newDefaultClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // stdlib default
	transport.RegisterProtocol("file", http.NewFileTransport(http.Dir("/")))
	return &http.Client{
		Transport:     transport,
		Timeout:       DefaultRequestTimeout,
		CheckRedirect: checkRedirect,
	}
}

// checkRedirect follows redirects that keep the scheme of the first
// request, or upgrade http to https.
func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	from, to := via[0].URL.Scheme, req.URL.Scheme
	if from != to && (from != "http" || to != "https") {
		return fmt.Errorf("%w: %s to %s", ErrSchemeChange, from, to)
	}
	return nil
}

// allowFile reports whether the file:// URL u lies below a file root.
func (p *Parser) allowFile(u *url.URL) bool {
	path := filepath.Clean(filepath.FromSlash(u.Path))
	for _, root := range p.fileRoots {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Parse implements crawler.PageParser. Failures yield an empty page.
func (p *Parser) Parse(ctx context.Context, pageURL string) crawler.Page {
	page, err := p.parse(ctx, pageURL)
	if err != nil {
		p.logger.Debug("page skipped", "url", pageURL, "error", err)
		return crawler.Page{}
	}
	return page
}

// parse fetches pageURL and extracts its words and links.
func (p *Parser) parse(ctx context.Context, pageURL string) (crawler.Page, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return crawler.Page{}, fmt.Errorf("invalid URL: %w", err)
	}

	if base.Scheme == "file" && !p.allowFile(base) {
		return crawler.Page{}, fmt.Errorf("%w: %s", ErrFileNotAllowed, base.Path)
	}

	body, err := p.fetch(ctx, pageURL)
	if err != nil {
		return crawler.Page{}, err
	}
	defer body.Close()

	return p.ParseHTML(base, io.LimitReader(body, p.maxBodySize))
}

// fetch performs the request and returns the body of a successful HTML response.
func (p *Parser) fetch(ctx context.Context, pageURL string) (io.ReadCloser, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if p.cookie != "" {
		req.Header.Set("Cookie", p.cookie)
	}
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	// An empty Content-Type is accepted; x/net/html parses anything.
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotHTML, ct)
	}

	return resp.Body, nil
}

// ParseHTML extracts words and links from an HTML document.
// Relative links are resolved against base.
func (p *Parser) ParseHTML(base *url.URL, content io.Reader) (crawler.Page, error) {
	root, err := html.Parse(content)
	if err != nil {
		return crawler.Page{}, err
	}

	doc := goquery.NewDocumentFromNode(root)
	doc.Find("script, style, noscript, template").Remove()

	return crawler.Page{
		WordCounts: p.countWords(doc.Find("body").Text()),
		Links:      extractLinks(base, doc),
	}, nil
}

// countWords splits text on anything that is not a letter or digit,
// lower-cases each word and drops ignored words.
func (p *Parser) countWords(text string) map[string]int {
	lower := cases.Lower(language.Und)
	counts := make(map[string]int)

	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, word := range words {
		word = lower.String(word)
		if p.isIgnoredWord(word) {
			continue
		}
		counts[word]++
	}

	return counts
}

func (p *Parser) isIgnoredWord(word string) bool {
	for _, pattern := range p.ignoredWords {
		if pattern.MatchString(word) {
			return true
		}
	}
	return false
}

// extractLinks returns the absolute targets of a[href], in document order
// and without duplicates.
func extractLinks(base *url.URL, doc *goquery.Document) []string {
	links := make([]string, 0)
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		link := resolveURL(base, href)
		if link == "" || seen[link] {
			return
		}
		seen[link] = true
		links = append(links, link)
	})

	return links
}

// resolveURL resolves href against base and drops the fragment.
// It returns "" for links that do not point at a page. file:// links are
// only kept on pages that are local files themselves.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	lower := strings.ToLower(href)
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, scheme) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(u)
	resolved.Fragment = ""
	resolved.RawFragment = ""

	switch resolved.Scheme {
	case "http", "https":
		return resolved.String()
	case "file":
		if base.Scheme != "file" {
			return ""
		}
		return resolved.String()
	default:
		return ""
	}
}
