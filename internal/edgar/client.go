// Package edgar is the HTTP side of insiderwatch: it fetches the EDGAR
// feed and filing submissions while honouring SEC fair-access rules.
//
// No API key required. SEC requires a User-Agent naming the requester
// with a contact address, and limits clients to 10 requests/second.
// Docs: https://www.sec.gov/os/accessing-edgar-data
package edgar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/seenimoa/insiderwatch/internal/infra"
)

const (
	// DefaultUserAgent must be overridden with a real contact in production.
	DefaultUserAgent = "insiderwatch/1.0 (admin@example.com)"

	// DefaultRequestsPerSecond is the SEC fair-access ceiling.
	DefaultRequestsPerSecond = 10

	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodyBytes caps a single response; Form 4 submissions are a
	// few hundred KB.
	DefaultMaxBodyBytes = 16 << 20
)

// ErrTooLarge is returned when a response body exceeds the read cap.
var ErrTooLarge = errors.New("edgar: response body too large")

// ErrNoEnvelope is returned when a filing directory lists no submission text file.
var ErrNoEnvelope = errors.New("edgar: no submission text file in directory")

var accessionSegmentRe = regexp.MustCompile(`^[0-9]{10}-[0-9]{2}-[0-9]{6}$`)

// ClientOptions configures a Client.
type ClientOptions struct {
	UserAgent         string
	RequestsPerSecond float64
	Timeout           time.Duration
	MaxBodyBytes      int64
	HTTPClient        *http.Client // optional; overrides Timeout
	Logger            *logrus.Entry
}

// Client fetches EDGAR resources as text.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	maxBody   int64
	log       *logrus.Entry
}

// NewClient creates a rate-limited EDGAR client.
func NewClient(opts ClientOptions) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = infra.NewHTTPClient(opts.Timeout)
	}
	log := opts.Logger
	if log == nil {
		log = infra.Discard()
	}
	return &Client{
		http:      hc,
		limiter:   rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		userAgent: opts.UserAgent,
		maxBody:   opts.MaxBodyBytes,
		log:       log.WithField("component", "edgar"),
	}
}

func (c *Client) headers() map[string]string {
	// Accept-Encoding is left to net/http so gzip responses are decoded.
	return map[string]string{
		"User-Agent": c.userAgent,
		"Accept":     "application/atom+xml, text/html, text/plain, */*",
	}
}

// FetchText performs a rate-limited GET and returns the body as text.
func (c *Client) FetchText(ctx context.Context, u string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	body, _, err := infra.DoGet(ctx, c.http, u, c.headers())
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, c.maxBody+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", u, err)
	}
	if int64(len(data)) > c.maxBody {
		return "", fmt.Errorf("read %s: more than %d bytes: %w", u, c.maxBody, ErrTooLarge)
	}
	c.log.WithFields(logrus.Fields{"url": u, "bytes": len(data)}).Debug("fetched")
	return string(data), nil
}

// ResolveEnvelope returns the URL of the full submission text file for a
// filing location. A location ending in a dashed accession number maps
// directly to "<location>.txt"; a filing directory is listed and the
// first .txt entry is used.
func (c *Client) ResolveEnvelope(ctx context.Context, location string) (string, error) {
	base, err := url.Parse(strings.TrimSuffix(location, "/"))
	if err != nil {
		return "", fmt.Errorf("parse location: %w", err)
	}
	if accessionSegmentRe.MatchString(path.Base(base.Path)) {
		return base.String() + ".txt", nil
	}

	listing, err := c.FetchText(ctx, base.String()+"/")
	if err != nil {
		return "", fmt.Errorf("list %s: %w", location, err)
	}
	href, err := findEnvelopeLink(listing)
	if err != nil {
		return "", fmt.Errorf("%s: %w", location, err)
	}

	dir := *base
	dir.Path = strings.TrimSuffix(dir.Path, "/") + "/"
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse listing link %q: %w", href, err)
	}
	return dir.ResolveReference(ref).String(), nil
}

// FetchEnvelope resolves a filing location and fetches its submission text.
func (c *Client) FetchEnvelope(ctx context.Context, location string) (string, error) {
	u, err := c.ResolveEnvelope(ctx, location)
	if err != nil {
		return "", err
	}
	return c.FetchText(ctx, u)
}

// findEnvelopeLink picks the submission text file from a directory listing.
// Accession-named files win over other .txt files.
func findEnvelopeLink(listing string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listing))
	if err != nil {
		return "", fmt.Errorf("parse directory listing: %w", err)
	}

	var first, accession string
	doc.Find(`a[href$=".txt"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return true
		}
		if first == "" {
			first = href
		}
		if accessionSegmentRe.MatchString(strings.TrimSuffix(path.Base(href), ".txt")) {
			accession = href
			return false
		}
		return true
	})

	switch {
	case accession != "":
		return accession, nil
	case first != "":
		return first, nil
	}
	return "", ErrNoEnvelope
}
