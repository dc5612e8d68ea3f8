// Copyright 2025 Wayback Archiver. All rights reserved.
// Use of this source code is governed by the GNU GPL v3
// license that can be found in the LICENSE file.

package is

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
	"github.com/pkg/errors"
	"github.com/wabarc/logger"
)

// normalizeFlags keeps the target recognizable to the service: case and
// structural cleanups only, the query string stays untouched.
const normalizeFlags = purell.FlagLowercaseScheme |
	purell.FlagLowercaseHost |
	purell.FlagRemoveDefaultPort |
	purell.FlagRemoveFragment |
	purell.FlagRemoveDuplicateSlashes |
	purell.FlagRemoveDotSegments

// Validate checks that raw is an absolute http or https URL and returns
// it parsed in normalized form. The check is purely syntactic, no
// network traffic happens here. Failures wrap ErrInvalidURL.
func Validate(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.Wrap(ErrInvalidURL, `url is empty`)
	}

	normalized, err := purell.NormalizeURLString(raw, normalizeFlags)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidURL, err.Error())
	}

	// Scheme and host checks below are the whole contract. Anything the
	// service might answer for passes, dotless intranet names and IPv6
	// literals included.
	u, err := url.Parse(normalized)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidURL, err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Wrapf(ErrInvalidURL, "scheme %q not supported", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.Wrap(ErrInvalidURL, `missing host`)
	}

	return u, nil
}

// Probe checks input responds before bothering the archiving service.
// It issues a HEAD request and follows redirects, so the URL handed to
// the lookup is the one the target finally lands on. Failures wrap
// ErrUnreachable.
func (arc *Archiver) Probe(ctx context.Context, input *url.URL) (*url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, input.String(), nil)
	if err != nil {
		return nil, errors.Wrap(ErrUnreachable, err.Error())
	}
	req.Header.Set("User-Agent", probeAgent)

	resp, err := arc.httpClient().Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, errors.Wrap(ErrUnreachable, `request timed out`)
		}
		return nil, errors.Wrap(ErrUnreachable, err.Error())
	}
	defer resp.Body.Close()

	logger.Debug("[archive.is] probe %s status %d", input, resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp.Request.URL, nil
	case resp.StatusCode == http.StatusForbidden:
		return nil, errors.Wrap(ErrUnreachable, `access forbidden`)
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.Wrap(ErrUnreachable, `page not found`)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, errors.Wrap(ErrUnreachable, `server error`)
	default:
		return nil, errors.Wrapf(ErrUnreachable, "unexpected status %d", resp.StatusCode)
	}
}
