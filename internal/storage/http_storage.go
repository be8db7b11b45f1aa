package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DocumentSource loads the encoded bytes of a document from a reference
// (URL, blob URL or path). Decoding is left to the pipeline.
type DocumentSource interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

const (
	fetchAttempts = 3

	// DefaultMaxDocumentSize caps downloaded documents
	DefaultMaxDocumentSize = 32 << 20
)

// HTTPFetcher implements DocumentSource over HTTP(S) with retries
type HTTPFetcher struct {
	client     *http.Client
	retryDelay time.Duration
	maxSize    int64
}

// NewHTTPFetcher creates an HTTP document fetcher. A zero timeout means 30s.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// Connection pooling sized for single document downloads
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,

			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		retryDelay: time.Second,
		maxSize:    DefaultMaxDocumentSize,
	}
}

// WithRetryDelay sets the base delay between attempts (attempt n waits n*delay)
func (h *HTTPFetcher) WithRetryDelay(delay time.Duration) *HTTPFetcher {
	h.retryDelay = delay
	return h
}

// WithMaxSize sets the largest accepted body in bytes
func (h *HTTPFetcher) WithMaxSize(size int64) *HTTPFetcher {
	if size > 0 {
		h.maxSize = size
	}
	return h
}

// Fetch downloads ref. 5xx responses and transport errors are retried up to
// three attempts in total; 4xx responses fail immediately.
func (h *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	req.Header.Set("Accept", "image/jpeg, image/png, image/tiff, image/bmp, image/webp, */*")
	req.Header.Set("User-Agent", "IDCard-Scanner/1.0")

	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch cancelled: %w", ctx.Err())
			case <-time.After(time.Duration(attempt) * h.retryDelay):
			}
		}

		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		data, retry, err := h.readResponse(resp)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}

	return nil, fmt.Errorf("failed to fetch document after %d attempts: %w", fetchAttempts, lastErr)
}

// readResponse consumes and closes resp. retry reports whether the failure is transient.
func (h *HTTPFetcher) readResponse(resp *http.Response) ([]byte, bool, error) {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, false, fmt.Errorf("client error: status code %d", resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxSize+1))
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > h.maxSize {
		return nil, false, fmt.Errorf("document exceeds %d bytes", h.maxSize)
	}
	return data, false, nil
}
