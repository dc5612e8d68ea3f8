// Copyright 2025 Wayback Archiver. All rights reserved.
// Use of this source code is governed by the GNU GPL v3
// license that can be found in the LICENSE file.

package is

import (
	"github.com/pkg/errors"
)

// Failure kinds of the lookup pipeline. Callers classify errors with
// errors.Is; everything returned by this package wraps one of these.
var (
	// ErrInvalidURL marks input that is not an absolute http or https URL.
	ErrInvalidURL = errors.New("invalid url")

	// ErrUnreachable marks a target that failed the reachability probe.
	ErrUnreachable = errors.New("url unreachable")

	// ErrNotArchived marks a target archive.is holds no snapshot of.
	ErrNotArchived = errors.New("no archived version found")

	// ErrServiceUnavailable marks a failed conversation with archive.is,
	// either a transport error or an unusable response.
	ErrServiceUnavailable = errors.New("archiving service unavailable")

	// ErrTimeout marks a lookup that exceeded its deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrBrowserLaunch marks a failure to spawn the default browser.
	ErrBrowserLaunch = errors.New("browser launch failed")
)
