package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"go-usage-stats/internal/logging"
	"go-usage-stats/internal/model"
)

var (
	// ErrFetchUnavailable means every attempt timed out. No data is returned.
	ErrFetchUnavailable = errors.New("fetch unavailable")

	// ErrSourceNotOK means the upstream answered with a 4xx/5xx status.
	ErrSourceNotOK = errors.New("source returned a non-OK status")
)

var fetchLog = logging.Component("fetcher")

// FetchResponse is a fully read upstream response.
type FetchResponse struct {
	URL        string
	StatusCode int
	Body       []byte
}

// OK reports a status below 400.
func (r *FetchResponse) OK() bool { return r.StatusCode < http.StatusBadRequest }

// Text returns the body as a string.
func (r *FetchResponse) Text() string { return string(r.Body) }

// CSVFetcher retrieves a CSV resource.
type CSVFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResponse, error)
}

// Fetcher performs GETs with a per-attempt timeout, retrying timeouts only.
type Fetcher struct {
	Client *http.Client
	Retry  model.RetryConfig
	Sleep  SleepFunc
}

// NewFetcher returns a Fetcher; a nil client means http.DefaultClient.
func NewFetcher(client *http.Client, retry model.RetryConfig) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{Client: client, Retry: retry}
}

// Fetch GETs url. Timed out attempts are retried after the configured
// backoff; when all of them time out the failure is logged as critical and
// ErrFetchUnavailable is returned. HTTP error statuses come back as a
// response with OK() == false and are not retried.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*FetchResponse, error) {
	log := fetchLog.WithField("url", url)

	var resp *FetchResponse
	retrier := Retrier{Config: f.Retry, Sleep: f.Sleep}
	err := retrier.Do(ctx, func(ctx context.Context, attempt int) (bool, error) {
		r, err := f.get(ctx, url)
		if err == nil {
			resp = r
			return false, nil
		}
		if isTimeout(err) && ctx.Err() == nil {
			log.WithField("attempt", attempt).Warn("timeout, trying again")
			return true, err
		}
		return false, err
	})

	switch {
	case err == nil:
		return resp, nil
	case errors.Is(err, ErrRetriesExhausted):
		logging.Critical(log.WithError(err), "request failed")
		return nil, fmt.Errorf("%w: %s: %v", ErrFetchUnavailable, url, err)
	default:
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
}

func (f *Fetcher) get(ctx context.Context, url string) (*FetchResponse, error) {
	if f.Retry.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Retry.AttemptTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &FetchResponse{URL: url, StatusCode: res.StatusCode, Body: body}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
