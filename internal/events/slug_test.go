package events

import (
	"strings"
	"testing"
)

const slugTestPubKey = "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"

func TestAppSlugRoundTrip(t *testing.T) {
	t.Parallel()
	slug := AppSlug(slugTestPubKey, "com.example.app")
	if !strings.HasPrefix(slug, "naddr1") {
		t.Fatalf("slug = %q, want naddr form", slug)
	}
	pubkey, dTag, err := ParseAppSlug(slug)
	if err != nil {
		t.Fatalf("ParseAppSlug: %v", err)
	}
	if pubkey != slugTestPubKey || dTag != "com.example.app" {
		t.Fatalf("round trip = (%q, %q)", pubkey, dTag)
	}
}

func TestParseAppSlugLegacyForm(t *testing.T) {
	t.Parallel()
	npub := Npub(slugTestPubKey)
	if !strings.HasPrefix(npub, "npub1") {
		t.Fatalf("npub = %q", npub)
	}
	pubkey, dTag, err := ParseAppSlug(npub + "-com.example.app")
	if err != nil {
		t.Fatalf("ParseAppSlug: %v", err)
	}
	if pubkey != slugTestPubKey || dTag != "com.example.app" {
		t.Fatalf("legacy parse = (%q, %q)", pubkey, dTag)
	}
}

func TestParseAppSlugDTagWithDashes(t *testing.T) {
	t.Parallel()
	npub := Npub(slugTestPubKey)
	_, dTag, err := ParseAppSlug(npub + "-com.example-app.flavor")
	if err != nil {
		t.Fatalf("ParseAppSlug: %v", err)
	}
	if dTag != "com.example-app.flavor" {
		t.Fatalf("dTag = %q, want dashes preserved", dTag)
	}
}

func TestParseAppSlugRejectsGarbage(t *testing.T) {
	t.Parallel()
	for _, slug := range []string{"", "short", "nprofile1qqs-app", "com.example.app"} {
		if _, _, err := ParseAppSlug(slug); err == nil {
			t.Errorf("ParseAppSlug(%q) succeeded, want error", slug)
		}
	}
}

func TestNpubFallsBackToHex(t *testing.T) {
	t.Parallel()
	if got := Npub("not-hex"); got != "not-hex" {
		t.Fatalf("Npub fallback = %q", got)
	}
}
