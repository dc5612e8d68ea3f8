// Copyright 2025 Wayback Archiver. All rights reserved.
// Use of this source code is governed by the GNU GPL v3
// license that can be found in the LICENSE file.

package is

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/wabarc/logger"
)

// Version of the archive.is module.
const Version = "0.1.0"

const (
	defaultEndpoint = "https://archive.is/"
	submitPath      = "submit/"

	// The service refuses obvious bots, so lookups present a desktop
	// browser. The reachability probe identifies itself honestly.
	defaultAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	probeAgent   = "archive.is/" + Version + " (+https://github.com/wabarc/archive.is)"

	// A single retry with a fixed pause covers transient failures;
	// anything longer lived is surfaced to the caller.
	lookupRetries    = 1
	defaultRetryWait = 3 * time.Second

	maxBodyBytes = 1 << 20
)

// Archiver retrieves snapshot locations from archive.is. The zero value
// is usable; New is the conventional constructor.
type Archiver struct {
	// Client issues the reachability probe and the lookup. Left nil,
	// one is built on first use and lives for the Archiver's lifetime.
	Client *http.Client

	// UserAgent overrides the browser identity presented on lookups.
	UserAgent string

	endpoint  *url.URL
	retryWait time.Duration
}

func init() {
	debug := os.Getenv("DEBUG")
	if debug == "true" || debug == "1" || debug == "on" {
		logger.EnableDebug()
	}
}

// New returns a Archiver struct.
func New() *Archiver {
	return &Archiver{}
}

// SetUserAgent return an Archiver struct with UserAgent
func (arc *Archiver) SetUserAgent(agent string) *Archiver {
	arc.UserAgent = agent
	return arc
}

// SetRetryWait return an Archiver struct with the pause before the
// lookup retry
func (arc *Archiver) SetRetryWait(wait time.Duration) *Archiver {
	arc.retryWait = wait
	return arc
}

// ByEndpoint returns Archiver pointed at a different service root, e.g.
// a mirror TLD when the default one is unreachable. Malformed values
// keep the default endpoint.
func (arc *Archiver) ByEndpoint(endpoint string) *Archiver {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		logger.Debug("[archive.is] invalid endpoint %q, keeping %s", endpoint, defaultEndpoint)
		return arc
	}
	arc.endpoint = u
	return arc
}

// Playback is the handle of retrieving the newest snapshot of input
// from archive.is. It returns the snapshot URL, or an error wrapping
// ErrNotArchived, ErrServiceUnavailable or ErrTimeout. The context
// bounds the whole lookup, retry included.
func (arc *Archiver) Playback(ctx context.Context, input *url.URL) (dst string, err error) {
	client := arc.httpClient()
	defer client.CloseIdleConnections()

	search := arc.searchURL(input)
	logger.Debug("[archive.is] lookup: %s", search)

	attempt := func() error {
		res, er := arc.lookup(ctx, client, search)
		if er != nil {
			return er
		}
		dst = res
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(arc.wait()), lookupRetries), ctx)
	if err := backoff.Retry(attempt, policy); err != nil {
		// The context may expire while waiting between attempts, in
		// which case the raw deadline error escapes the operation.
		if isTimeout(err) && !errors.Is(err, ErrTimeout) {
			return "", errors.Wrap(ErrTimeout, err.Error())
		}
		return "", err
	}

	logger.Debug("[archive.is] snapshot: %s", dst)
	return dst, nil
}

// lookup performs one conversation with the service. Errors it returns
// are retried by Playback unless marked permanent.
func (arc *Archiver) lookup(ctx context.Context, client *http.Client, search *url.URL) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, search.String(), nil)
	if err != nil {
		return "", backoff.Permanent(errors.Wrap(ErrServiceUnavailable, err.Error()))
	}
	req.Header.Set("User-Agent", arc.agent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", backoff.Permanent(errors.Wrap(ErrTimeout, `lookup deadline exceeded`))
		}
		return "", errors.Wrap(ErrServiceUnavailable, err.Error())
	}
	defer resp.Body.Close()

	logger.Debug("[archive.is] status %d from %s", resp.StatusCode, resp.Request.URL)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", backoff.Permanent(ErrNotArchived)
	case resp.StatusCode >= http.StatusInternalServerError:
		return "", errors.Wrapf(ErrServiceUnavailable, "status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", backoff.Permanent(errors.Wrapf(ErrServiceUnavailable, "unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if isTimeout(err) {
			return "", backoff.Permanent(errors.Wrap(ErrTimeout, `lookup deadline exceeded`))
		}
		return "", errors.Wrap(ErrServiceUnavailable, err.Error())
	}

	res := arc.decodeResponse(search, resp.Request.URL, resp.Header, body)
	switch res.kind {
	case outcomeRedirect, outcomeEmbedded:
		return res.url, nil
	case outcomeNotFound:
		return "", backoff.Permanent(ErrNotArchived)
	default:
		return "", errors.Wrap(ErrServiceUnavailable, `unrecognized response from service`)
	}
}

// searchURL builds the submission lookup for input, with the target
// fully escaped into the query per the service's contract.
func (arc *Archiver) searchURL(input *url.URL) *url.URL {
	ref := &url.URL{
		Path:     submitPath,
		RawQuery: url.Values{"url": {input.String()}}.Encode(),
	}
	return arc.base().ResolveReference(ref)
}

func (arc *Archiver) base() *url.URL {
	if arc.endpoint != nil {
		return arc.endpoint
	}
	u, _ := url.Parse(defaultEndpoint)
	return u
}

func (arc *Archiver) httpClient() *http.Client {
	if arc.Client == nil {
		arc.Client = &http.Client{}
	}
	return arc.Client
}

func (arc *Archiver) agent() string {
	if arc.UserAgent != "" {
		return arc.UserAgent
	}
	return defaultAgent
}

func (arc *Archiver) wait() time.Duration {
	if arc.retryWait > 0 {
		return arc.retryWait
	}
	return defaultRetryWait
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
