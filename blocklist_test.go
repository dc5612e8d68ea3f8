// Copyright 2025 Wayback Archiver. All rights reserved.
// Use of this source code is governed by the GNU GPL v3
// license that can be found in the LICENSE file.

package is // import "github.com/wabarc/archive.is"

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBlocklistDefaults(t *testing.T) {
	tests := []struct {
		host    string
		blocked bool
	}{
		{"facebook.com", true},
		{"www.facebook.com", true},
		{"m.facebook.com", true},
		{"facebook.com:443", true},
		{"twitter.com", true},
		{"accounts.google.com", true},
		{"google.com", false},
		{"example.com", false},
		{"notfacebook.com", false},
		{"", false},
	}

	b := NewBlocklist()
	for _, test := range tests {
		if got := b.Blocked(test.host); got != test.blocked {
			t.Errorf("Unexpected verdict for %q, got %t instead of %t", test.host, got, test.blocked)
		}
	}
}

func TestBlocklistAdd(t *testing.T) {
	b := NewBlocklist()
	b.Add(" Example.COM ")

	if !b.Blocked("example.com") {
		t.Error("expected example.com to be blocked")
	}
	if !b.Blocked("sub.example.com") {
		t.Error("expected sub.example.com to be blocked")
	}
	if b.Blocked("example.org") {
		t.Error("expected example.org to pass")
	}
}

func TestBlocklistIPv6(t *testing.T) {
	b := NewBlocklist()
	b.Add("::1")

	if !b.Blocked("[::1]:8080") {
		t.Error("expected [::1]:8080 to be blocked")
	}
	if !b.Blocked("[::1]") {
		t.Error("expected [::1] to be blocked")
	}
	if b.Blocked("[2001:db8::1]:443") {
		t.Error("expected 2001:db8::1 to pass")
	}
}

func TestBlocklistLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocklist.toml")
	content := []byte(`domains = ["tracker.example.com", "ads.example.org"]` + "\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	b := NewBlocklist()
	if err := b.Load(path); err != nil {
		t.Fatal(err)
	}

	if !b.Blocked("tracker.example.com") {
		t.Error("expected tracker.example.com to be blocked")
	}
	if !b.Blocked("sub.ads.example.org") {
		t.Error("expected sub.ads.example.org to be blocked")
	}
	// Defaults survive the merge.
	if !b.Blocked("facebook.com") {
		t.Error("expected facebook.com to stay blocked")
	}
}

func TestBlocklistLoadMissing(t *testing.T) {
	b := NewBlocklist()
	if err := b.Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestBlocklistLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocklist.toml")
	if err := os.WriteFile(path, []byte("domains = [[["), 0o644); err != nil {
		t.Fatal(err)
	}

	b := NewBlocklist()
	if err := b.Load(path); err == nil {
		t.Fatal("expected error for malformed file")
	}
}
