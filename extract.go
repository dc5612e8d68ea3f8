// Copyright 2025 Wayback Archiver. All rights reserved.
// Use of this source code is governed by the GNU GPL v3
// license that can be found in the LICENSE file.

package is

import (
	"bytes"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"
	"github.com/wabarc/logger"
)

// Hosts the archive.today family answers from. Lookups bounce between
// mirror TLDs depending on which one fronts the service that day.
var snapshotHosts = map[string]bool{
	"archive.today": true,
	"archive.is":    true,
	"archive.ph":    true,
	"archive.li":    true,
	"archive.md":    true,
	"archive.vn":    true,
	"archive.fo":    true,
}

// Paths on the service that are navigation rather than snapshots.
var reservedPaths = map[string]bool{
	"submit":   true,
	"newest":   true,
	"oldest":   true,
	"offtopic": true,
}

var snapshotCode = regexp.MustCompile(`^[0-9A-Za-z]{3,8}$`)

// outcome tags one decoded lookup response. The response shape is not a
// stable contract, so decoding stays best effort and confined to this
// file; everything else in the package works with the tag alone.
type outcome int

const (
	outcomeRedirect  outcome = iota // request was redirected to a snapshot
	outcomeEmbedded                 // result page references a snapshot
	outcomeNotFound                 // nothing points at a snapshot
	outcomeMalformed                // response is unusable
)

type lookupResult struct {
	kind outcome
	url  string
}

// decodeResponse classifies the service's answer to a lookup. search is
// the URL the request went to and final the one it landed on after
// redirects.
func (arc *Archiver) decodeResponse(search, final *url.URL, header http.Header, body []byte) lookupResult {
	// Redirected off the submission path means the destination is the
	// snapshot itself.
	if dst := arc.snapshotURL(final); dst != "" && final.String() != search.String() {
		return lookupResult{kind: outcomeRedirect, url: dst}
	}

	// The service announces fresh captures with a Refresh header
	// pointing at the snapshot.
	if dst := arc.refreshURL(final, header.Get("Refresh")); dst != "" {
		return lookupResult{kind: outcomeRedirect, url: dst}
	}

	if mtype := mimetype.Detect(body); !mtype.Is("text/html") {
		logger.Debug("[archive.is] unexpected content type: %s", mtype.String())
		return lookupResult{kind: outcomeMalformed}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		logger.Debug("[archive.is] parse result page failed: %v", err)
		return lookupResult{kind: outcomeMalformed}
	}

	var dst string
	doc.Find(`meta[http-equiv]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if equiv, _ := s.Attr("http-equiv"); !strings.EqualFold(equiv, "refresh") {
			return true
		}
		content, _ := s.Attr("content")
		dst = arc.refreshURL(final, content)
		return dst == ""
	})
	if dst != "" {
		return lookupResult{kind: outcomeEmbedded, url: dst}
	}

	doc.Find(`a[href]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		dst = arc.snapshotRef(href)
		return dst == ""
	})
	if dst != "" {
		return lookupResult{kind: outcomeEmbedded, url: dst}
	}

	return lookupResult{kind: outcomeNotFound}
}

// snapshotURL returns u in string form when it plausibly addresses a
// snapshot: a service host and a path that is not plain navigation.
func (arc *Archiver) snapshotURL(u *url.URL) string {
	if u == nil || !arc.snapshotHost(u.Host) {
		return ""
	}
	seg := strings.Trim(u.Path, "/")
	if seg == "" {
		return ""
	}
	first := strings.SplitN(seg, "/", 2)[0]
	if reservedPaths[strings.ToLower(first)] {
		return ""
	}
	return u.String()
}

// snapshotRef is the strict variant used on links scraped out of a
// result page: only short-code paths count, which keeps navigation and
// calendar links out.
func (arc *Archiver) snapshotRef(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil || !arc.snapshotHost(u.Host) {
		return ""
	}
	seg := strings.Trim(u.Path, "/")
	if !snapshotCode.MatchString(seg) || reservedPaths[strings.ToLower(seg)] {
		return ""
	}
	return u.String()
}

// refreshURL extracts the destination of a Refresh header or meta
// refresh value, e.g. "0; url=/wip/AbC12", resolves it against base and
// keeps it only when it addresses a snapshot.
func (arc *Archiver) refreshURL(base *url.URL, content string) string {
	target := refreshTarget(content)
	if target == "" {
		return ""
	}
	ref, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return arc.snapshotURL(base.ResolveReference(ref))
}

func refreshTarget(content string) string {
	for _, part := range strings.Split(content, ";") {
		part = strings.TrimSpace(part)
		if len(part) > 4 && strings.EqualFold(part[:4], "url=") {
			return strings.Trim(part[4:], `'" `)
		}
	}
	return ""
}

func (arc *Archiver) snapshotHost(host string) bool {
	if host == "" {
		return false
	}
	if strings.EqualFold(host, arc.base().Host) {
		return true
	}
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	return snapshotHosts[host]
}
