// Copyright 2025 Wayback Archiver. All rights reserved.
// Use of this source code is governed by the GNU GPL v3
// license that can be found in the LICENSE file.

package is

import (
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/wabarc/logger"
)

// startCommand spawns the handler process; swapped out in tests.
var startCommand = func(cmd *exec.Cmd) error {
	return cmd.Start()
}

// OpenBrowser opens uri with the host's default browser: xdg-open on
// Linux and the BSDs, open on macOS, start on Windows. It returns once
// the handler has been spawned without waiting for it to exit.
// Failures wrap ErrBrowserLaunch.
func OpenBrowser(uri string) error {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Wrapf(ErrBrowserLaunch, "refusing to open %q", uri)
	}

	cmd := browserCommand(u.String())
	logger.Debug("[archive.is] open: %s", strings.Join(cmd.Args, " "))

	if err := startCommand(cmd); err != nil {
		return errors.Wrap(ErrBrowserLaunch, err.Error())
	}
	return nil
}

func browserCommand(uri string) *exec.Cmd {
	switch runtime.GOOS {
	case "windows":
		// The empty title keeps start from treating the URL as one.
		return exec.Command("cmd", "/c", "start", "", uri)
	case "darwin":
		return exec.Command("open", uri)
	default:
		return exec.Command("xdg-open", uri)
	}
}
