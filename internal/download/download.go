// Package download streams remote payloads to local files with chunked
// progress reporting, an injectable retry policy and a post-download
// integrity check against the declared content length.
package download

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/nightwatch-dev/nwupd/internal/log"
	"github.com/nightwatch-dev/nwupd/internal/progress"
)

// chunkSize is the copy buffer size. Progress is reported once per chunk,
// so this also bounds progress granularity.
const chunkSize = 64 * 1024

// Progress receives byte-level progress during a download. Implementations
// must be safe to call from the downloading goroutine while other
// goroutines read the value.
type Progress interface {
	// Set reports the downloaded fraction in [0.0, 1.0]. Within one
	// download the reported value never decreases.
	Set(fraction float64)
}

// Resetter is implemented by progress sinks whose displayed fraction can
// rewind. Fetch calls Reset at the start of every attempt so a retry does
// not stay stuck at the failed attempt's high-water mark; plain Progress
// implementations receive Set(0) instead.
type Resetter interface {
	Reset()
}

// nopProgress is used when the caller does not care about progress.
type nopProgress struct{}

func (nopProgress) Set(float64) {}

// RetryPolicy bounds how often a failed download is re-attempted.
// Tests inject a zero-backoff policy.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy matches the original updater: three attempts with a
// short fixed pause between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 2 * time.Second}
}

// Downloader fetches remote payloads through an injected HTTP client.
type Downloader struct {
	client       *http.Client
	policy       RetryPolicy
	logger       log.Logger
	showTerminal bool
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(d *Downloader) {
		if p.MaxAttempts > 0 {
			d.policy = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(d *Downloader) { d.logger = logger }
}

// WithTerminalProgress enables the interactive progress bar when stdout is
// a terminal. Off by default so library use stays quiet.
func WithTerminalProgress(enabled bool) Option {
	return func(d *Downloader) { d.showTerminal = enabled }
}

// New creates a Downloader using the given HTTP client.
func New(client *http.Client, opts ...Option) *Downloader {
	d := &Downloader{
		client: client,
		policy: DefaultRetryPolicy(),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fetch streams url to destPath, overwriting it. The payload is never
// buffered whole in memory. On failure every attempt's dest content is
// discarded; the final error is the last attempt's.
func (d *Downloader) Fetch(ctx context.Context, url, destPath string, prog Progress) error {
	if prog == nil {
		prog = nopProgress{}
	}

	var lastErr *Error
	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		if r, ok := prog.(Resetter); ok {
			r.Reset()
		} else {
			prog.Set(0)
		}

		err := d.fetchOnce(ctx, url, destPath, prog, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if !err.Retryable() || attempt == d.policy.MaxAttempts {
			break
		}

		d.logger.Warn("download attempt failed, retrying",
			"url", log.SanitizeURL(url),
			"attempt", attempt,
			"kind", err.Kind.String(),
			"error", err.Err)

		select {
		case <-time.After(d.policy.Backoff):
		case <-ctx.Done():
			return &Error{Kind: KindNetwork, URL: log.SanitizeURL(url), Attempt: attempt, Err: ctx.Err()}
		}
	}

	os.Remove(destPath)
	return lastErr
}

// fetchOnce performs a single GET attempt.
func (d *Downloader) fetchOnce(ctx context.Context, url, destPath string, prog Progress, attempt int) *Error {
	sanitized := log.SanitizeURL(url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &Error{Kind: KindIO, URL: sanitized, Attempt: attempt, Err: err}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, URL: sanitized, Attempt: attempt, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Kind: KindHTTP, Status: resp.StatusCode, URL: sanitized, Attempt: attempt}
	}

	out, err := os.Create(destPath)
	if err != nil {
		return &Error{Kind: KindIO, URL: sanitized, Attempt: attempt, Err: err}
	}
	defer out.Close()

	var dst io.Writer = out
	var pw *progress.Writer
	if d.showTerminal && progress.ShouldShowProgress() && resp.ContentLength > 0 {
		pw = progress.NewWriter(out, resp.ContentLength, os.Stdout)
		dst = pw
	}

	written, copyErr := copyChunked(dst, resp.Body, resp.ContentLength, prog)
	if pw != nil {
		pw.Finish()
	}
	if copyErr != nil {
		if errors.Is(copyErr, io.ErrUnexpectedEOF) && resp.ContentLength > 0 {
			// The stream closed before the declared length arrived.
			return &Error{Kind: KindCorrupt, URL: sanitized, Attempt: attempt, Err: copyErr}
		}
		return &Error{Kind: KindNetwork, URL: sanitized, Attempt: attempt, Err: copyErr}
	}
	if err := out.Sync(); err != nil {
		return &Error{Kind: KindIO, URL: sanitized, Attempt: attempt, Err: err}
	}

	// Integrity check: a payload shorter than declared must never reach
	// the extractor.
	if resp.ContentLength > 0 && written != resp.ContentLength {
		return &Error{Kind: KindCorrupt, URL: sanitized, Attempt: attempt}
	}

	prog.Set(1)
	d.logger.Debug("download complete", "url", sanitized, "bytes", written, "attempt", attempt)
	return nil
}

// copyChunked copies src to dst in fixed-size chunks, reporting the
// downloaded fraction after every chunk. An unknown total (contentLength
// <= 0) is treated as 1 so progress stays defined without a panic; the
// fraction then reads as indeterminate rather than meaningful.
func copyChunked(dst io.Writer, src io.Reader, contentLength int64, prog Progress) (int64, error) {
	total := contentLength
	if total <= 0 {
		total = 1
	}

	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return written, writeErr
			}
			written += int64(n)

			fraction := float64(written) / float64(total)
			if fraction > 1 {
				fraction = 1
			}
			prog.Set(fraction)
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}
