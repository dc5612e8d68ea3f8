// Copyright 2025 Wayback Archiver. All rights reserved.
// Use of this source code is governed by the GNU GPL v3
// license that can be found in the LICENSE file.

// Command archive looks up the newest archive.is snapshot of a URL and
// opens it in the default browser.
package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/wabarc/helper"
	"github.com/wabarc/logger"

	"github.com/wabarc/archive.is"
)

// Exit codes, one per failure kind. Failures the table does not cover
// exit with the generic code 1.
const (
	exitOK          = 0
	exitInvalidURL  = 1
	exitNotArchived = 2
	exitService     = 3
	exitBrowser     = 4
)

const defaultTimeout = 10 * time.Second

// app wires the lookup pipeline behind swappable functions so the
// command logic is testable without the network or a display.
type app struct {
	quiet     bool
	timeout   time.Duration
	blocklist string
	endpoint  string

	arc     *is.Archiver
	stdout  io.Writer
	probe   func(context.Context, *url.URL) (*url.URL, error)
	resolve func(context.Context, *url.URL) (string, error)
	open    func(string) error
}

func newApp() *app {
	a := &app{stdout: os.Stdout, timeout: defaultTimeout}
	a.probe = func(ctx context.Context, u *url.URL) (*url.URL, error) {
		return a.archiver().Probe(ctx, u)
	}
	a.resolve = func(ctx context.Context, u *url.URL) (string, error) {
		return a.archiver().Playback(ctx, u)
	}
	a.open = is.OpenBrowser
	return a
}

// archiver builds the shared Archiver on first use, after flag parsing
// settled the endpoint. One instance, and one HTTP client with it, per
// invocation.
func (a *app) archiver() *is.Archiver {
	if a.arc == nil {
		a.arc = is.New()
		if a.endpoint != "" {
			a.arc.ByEndpoint(a.endpoint)
		}
	}
	return a.arc
}

// run walks the pipeline: validate, blocklist, probe, lookup, print,
// open. Each network step gets its own deadline carved from ctx.
func (a *app) run(ctx context.Context, raw string) error {
	target, err := a.target(raw)
	if err != nil {
		return err
	}

	blocklist := is.NewBlocklist()
	if a.blocklist != "" {
		if err := blocklist.Load(a.blocklist); err != nil {
			return err
		}
	}
	if blocklist.Blocked(target.Hostname()) {
		return errors.Wrapf(is.ErrInvalidURL, "domain %s is blocked", target.Hostname())
	}

	a.progress("checking %s is reachable", target)
	probeCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	final, err := a.probe(probeCtx, target)
	if err != nil {
		return err
	}

	a.progress("searching for the newest snapshot of %s", final)
	lookupCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	dst, err := a.resolve(lookupCtx, final)
	if err != nil {
		return err
	}

	if !a.quiet {
		fmt.Fprintln(a.stdout, dst)
	}

	a.progress("opening %s", dst)
	return a.open(dst)
}

// target turns the command argument into a validated URL. Arguments
// pasted with surrounding prose or punctuation get one salvage pass:
// the first URL found in the text is validated in their place. The
// salvage never rejects anything on its own, so every URL Validate
// accepts as-is stays accepted.
func (a *app) target(raw string) (*url.URL, error) {
	target, err := is.Validate(raw)
	if err == nil {
		return target, nil
	}

	match := helper.MatchURL(raw)
	if len(match) == 0 {
		return nil, err
	}
	logger.Debug("salvaged %s from %q", match[0], raw)
	return is.Validate(match[0])
}

func (a *app) progress(format string, v ...interface{}) {
	if a.quiet {
		return
	}
	logger.Info(format, v...)
}

// exitCode maps a pipeline error onto the command's exit code table.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, is.ErrInvalidURL):
		return exitInvalidURL
	case errors.Is(err, is.ErrNotArchived):
		return exitNotArchived
	case errors.Is(err, is.ErrUnreachable),
		errors.Is(err, is.ErrServiceUnavailable),
		errors.Is(err, is.ErrTimeout):
		return exitService
	case errors.Is(err, is.ErrBrowserLaunch):
		return exitBrowser
	default:
		return exitInvalidURL
	}
}

func execute(args []string) int {
	a := newApp()

	rootCmd := &cobra.Command{
		Use:   "archive <url>",
		Short: "Open the newest archive.is snapshot of a URL",
		Long: `Archive finds the newest snapshot of a URL on archive.is and opens
it in the default browser. The snapshot URL is printed to standard
output so it can be piped elsewhere.`,
		Example: `  archive https://www.eff.org/
  archive --quiet https://www.eff.org/
  archive --timeout 30s https://www.eff.org/`,
		Args:          cobra.ExactArgs(1),
		Version:       is.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.run(ctx, args[0])
		},
	}
	rootCmd.Flags().BoolVarP(&a.quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.Flags().DurationVarP(&a.timeout, "timeout", "t", defaultTimeout, "timeout for each network call")
	rootCmd.Flags().StringVar(&a.blocklist, "blocklist", "", "TOML file with additional blocked domains")
	rootCmd.Flags().StringVar(&a.endpoint, "endpoint", "", "alternative archive.today mirror, e.g. https://archive.ph")
	rootCmd.Flags().BoolP("version", "v", false, "version for archive")
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return exitOK
}

func main() {
	os.Exit(execute(os.Args[1:]))
}
