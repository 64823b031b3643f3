package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dreamscape/internal/domain"
	"dreamscape/internal/metrics"
)

// DefaultFilename names a download when the caller supplies none.
const DefaultFilename = "generated-image.jpg"

type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	// MaxBytes caps the accepted body size. Zero means 20 MiB.
	MaxBytes int64
	// AllowedHosts lists hostnames images may be fetched from. Subdomains of
	// an allowed host are accepted too, so CDN redirects keep working.
	AllowedHosts []string
	Metrics      metrics.Recorder
}

// File is a downloaded image ready to be served as an attachment.
type File struct {
	Filename string
	MIME     string
	Data     []byte
}

// Downloader fetches generated images from the placeholder host.
type Downloader struct {
	httpClient *http.Client
	maxBytes   int64
	hosts      []string
	metrics    metrics.Recorder
}

func New(opts Options) *Downloader {
	d := &Downloader{
		maxBytes: opts.MaxBytes,
		metrics:  opts.Metrics,
	}
	for _, h := range opts.AllowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			d.hosts = append(d.hosts, h)
		}
	}
	if d.maxBytes <= 0 {
		d.maxBytes = 20 << 20
	}
	if d.metrics == nil {
		d.metrics = metrics.Nop{}
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	// Copy so the redirect policy never leaks into a shared client.
	c := *client
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 5 {
			return errors.New("download: too many redirects")
		}
		if !d.Allowed(req.URL) {
			return fmt.Errorf("redirect to %s: %w", req.URL.Host, domain.ErrHostNotAllowed)
		}
		return nil
	}
	d.httpClient = &c
	return d
}

// Allowed reports whether u points at an allowlisted http(s) host.
func (d *Downloader) Allowed(u *url.URL) bool {
	if u == nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, h := range d.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// Fetch downloads rawURL into memory. The returned file is named
// DefaultFilename; callers rename it as they see fit.
func (d *Downloader) Fetch(ctx context.Context, rawURL string) (*File, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !d.Allowed(u) {
		d.metrics.ObserveDownload("rejected", 0)
		return nil, fmt.Errorf("download %q: %w", rawURL, domain.ErrHostNotAllowed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		d.metrics.ObserveDownload("error", 0)
		return nil, err
	}
	req.Header.Set("Accept", "image/*")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, domain.ErrHostNotAllowed) {
			d.metrics.ObserveDownload("rejected", 0)
		} else {
			d.metrics.ObserveDownload("error", 0)
		}
		return nil, fmt.Errorf("download %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.metrics.ObserveDownload("upstream_error", 0)
		return nil, fmt.Errorf("download %s: http %d: %w", u.Host, resp.StatusCode, domain.ErrUpstreamStatus)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		d.metrics.ObserveDownload("error", 0)
		return nil, fmt.Errorf("download %s: read body: %w", u.Host, err)
	}
	if int64(len(data)) > d.maxBytes {
		d.metrics.ObserveDownload("too_large", 0)
		return nil, fmt.Errorf("download %s: more than %d bytes: %w", u.Host, d.maxBytes, domain.ErrPayloadTooLarge)
	}

	d.metrics.ObserveDownload("ok", len(data))
	return &File{
		Filename: DefaultFilename,
		MIME:     contentType(resp.Header.Get("Content-Type"), data),
		Data:     data,
	}, nil
}

func contentType(header string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(header); err == nil && mt != "" && mt != "application/octet-stream" {
		return mt
	}
	return http.DetectContentType(data)
}

// SanitizeFilename strips path components and characters that break a
// Content-Disposition header. Blank names become DefaultFilename.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f, r == '"', r == ';':
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return DefaultFilename
	}
	return name
}
