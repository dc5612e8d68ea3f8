// Copyright 2025 Wayback Archiver. All rights reserved.
// Use of this source code is governed by the GNU GPL v3
// license that can be found in the LICENSE file.

package is

import (
	"net"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Domains never sent to the archiving service. Login walls and walled
// gardens only yield interstitial snapshots, so lookups for them are
// refused up front.
var defaultBlockedDomains = []string{
	"facebook.com",
	"twitter.com",
	"instagram.com",
	"linkedin.com",
	"accounts.google.com",
	"login.yahoo.com",
}

// Blocklist refuses lookups for a set of domains and their subdomains.
type Blocklist struct {
	domains map[string]struct{}
}

// NewBlocklist returns a Blocklist seeded with the default domains.
func NewBlocklist() *Blocklist {
	b := &Blocklist{domains: make(map[string]struct{}, len(defaultBlockedDomains))}
	for _, domain := range defaultBlockedDomains {
		b.Add(domain)
	}
	return b
}

// Add puts domain on the blocklist. Case and surrounding space are
// ignored; empty values are dropped.
func (b *Blocklist) Add(domain string) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return
	}
	b.domains[domain] = struct{}{}
}

// Load merges domains from a TOML file into the blocklist:
//
//	domains = ["example.com", "tracker.example.org"]
func (b *Blocklist) Load(path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, `read blocklist failed`)
	}

	var file struct {
		Domains []string `toml:"domains"`
	}
	if err := toml.Unmarshal(buf, &file); err != nil {
		return errors.Wrap(err, `parse blocklist failed`)
	}

	for _, domain := range file.Domains {
		b.Add(domain)
	}
	return nil
}

// Blocked reports whether host or one of its parent domains is on the
// blocklist. host may carry a port or IPv6 brackets; those and a
// leading www label are ignored.
func (b *Blocklist) Blocked(host string) bool {
	host = strings.ToLower(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return false
	}
	for domain := range b.domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
