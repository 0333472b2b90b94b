// Package fetch retrieves raw pages of a harvest feed over HTTP(S) or from
// the local filesystem, enforcing a size ceiling and classifying failures
// as FetchErrors.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/agentstation/harvester/internal/transport"
	"github.com/agentstation/harvester/pkg/constants"
	"github.com/agentstation/harvester/pkg/errors"
	"github.com/agentstation/harvester/pkg/logging"
)

// Fetcher retrieves feed pages.
type Fetcher struct {
	client    *transport.Client
	maxSize   int64
	chunkSize int
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the transport client.
func WithClient(c *transport.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithMaxSize sets the size ceiling in bytes.
func WithMaxSize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxSize = n
		}
	}
}

// WithChunkSize sets the read size used while streaming a body.
func WithChunkSize(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.chunkSize = n
		}
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    transport.New(),
		maxSize:   constants.MaxFileSizeBytes,
		chunkSize: constants.ChunkSizeBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// MaxSize returns the configured size ceiling.
func (f *Fetcher) MaxSize() int64 {
	return f.maxSize
}

// Fetch returns the content of one page of the feed at locator. Locators
// that are not http(s) URLs are read from the filesystem; the page number
// is ignored for them. A 404 is returned as a NotFound FetchError carrying
// the page number, so callers can tell end of pagination (page > 1) from a
// missing feed.
func (f *Fetcher) Fetch(ctx context.Context, locator string, page int) ([]byte, error) {
	if !IsRemote(locator) {
		return f.readFile(locator, page)
	}

	url := PageURL(locator, page)
	logging.FromContext(ctx).Debug().Str("url", url).Int(logging.FieldPage, page).Msg("Fetching page")

	// HEAD first so an oversized document is rejected before any body is
	// transferred. Servers that reject HEAD get a plain GET.
	var resp *http.Response
	head, err := f.client.Head(ctx, url)
	switch {
	case err != nil:
		if kind := classify(ctx, err); kind == errors.FetchTimeout || ctx.Err() != nil {
			return nil, &errors.FetchError{Kind: kind, URL: url, Page: page, Err: err}
		}
	case head.StatusCode == http.StatusMethodNotAllowed || head.StatusCode == http.StatusBadRequest ||
		head.StatusCode == http.StatusNotImplemented:
		_ = head.Body.Close()
	default:
		_ = head.Body.Close()
		if err := f.check(head, url, page); err != nil {
			return nil, err
		}
	}

	resp, err = f.client.Get(ctx, url)
	if err != nil {
		return nil, &errors.FetchError{Kind: classify(ctx, err), URL: url, Page: page, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if err := f.check(resp, url, page); err != nil {
		return nil, err
	}
	return f.readBody(ctx, resp.Body, url, page)
}

// check classifies the status line and declared length of a response.
func (f *Fetcher) check(resp *http.Response, url string, page int) error {
	if resp.StatusCode == http.StatusNotFound {
		return errors.NewFetchError(errors.FetchNotFound, url, page, nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &errors.FetchError{
			Kind:       errors.FetchHTTP,
			URL:        url,
			Page:       page,
			StatusCode: resp.StatusCode,
			Reason:     http.StatusText(resp.StatusCode),
		}
	}
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil && n > f.maxSize {
			return &errors.FetchError{
				Kind:   errors.FetchTooLarge,
				URL:    url,
				Page:   page,
				Reason: fmt.Sprintf("allowed file size %d, content-length %d", f.maxSize, n),
			}
		}
	}
	return nil
}

// readBody streams body in chunks and stops as soon as the ceiling is
// exceeded, whatever the server declared.
func (f *Fetcher) readBody(ctx context.Context, body io.Reader, url string, page int) ([]byte, error) {
	var (
		content []byte
		buf     = make([]byte, f.chunkSize)
	)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			content = append(content, buf[:n]...)
			if int64(len(content)) > f.maxSize {
				return nil, &errors.FetchError{
					Kind:   errors.FetchTooLarge,
					URL:    url,
					Page:   page,
					Reason: fmt.Sprintf("more than %d bytes received", f.maxSize),
				}
			}
		}
		if err == io.EOF {
			return content, nil
		}
		if err != nil {
			return nil, &errors.FetchError{Kind: classify(ctx, err), URL: url, Page: page, Err: err}
		}
	}
}

func (f *Fetcher) readFile(locator string, page int) ([]byte, error) {
	path := strings.TrimPrefix(locator, "file://")
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFetchError(errors.FetchNotFound, locator, page, err)
		}
		return nil, errors.NewFetchError(errors.FetchConnection, locator, page, errors.WrapIO("stat", path, err))
	}
	if info.Size() > f.maxSize {
		return nil, &errors.FetchError{
			Kind:   errors.FetchTooLarge,
			URL:    locator,
			Page:   page,
			Reason: fmt.Sprintf("allowed file size %d, file size %d", f.maxSize, info.Size()),
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFetchError(errors.FetchConnection, locator, page, errors.WrapIO("read", path, err))
	}
	return data, nil
}

// IsRemote reports whether locator is an http(s) URL.
func IsRemote(locator string) bool {
	l := strings.ToLower(locator)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// PageURL appends page=N to locator for pages after the first, keeping any
// existing query string.
func PageURL(locator string, page int) string {
	if page <= constants.FirstPage {
		return locator
	}
	base, fragment, _ := strings.Cut(locator, "#")
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
		if strings.HasSuffix(base, "?") || strings.HasSuffix(base, "&") {
			sep = ""
		}
	}
	u := base + sep + constants.PageParam + "=" + strconv.Itoa(page)
	if fragment != "" {
		u += "#" + fragment
	}
	return u
}

// classify maps a transport error to a fetch error kind.
func classify(ctx context.Context, err error) errors.FetchErrorKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.FetchTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return errors.FetchTimeout
	}
	return errors.FetchConnection
}
