package fetch_test

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"sightdex/internal/fetch"
	"sightdex/internal/imagehash"
	"sightdex/internal/logging"
	"sightdex/internal/services"
	"sightdex/internal/testsupport"
)

func TestFetchBytesCachesPayload(t *testing.T) {
	var hits atomic.Int64
	payload := []byte("sprite-bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(payload)
	}))
	t.Cleanup(server.Close)

	client := fetch.New(testsupport.NewConfig(t), logging.NewNop())
	t.Cleanup(client.Close)

	first, err := client.FetchBytes(context.Background(), server.URL+"/a.png")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := client.FetchBytes(context.Background(), server.URL+"/a.png")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if !bytes.Equal(first, payload) || !bytes.Equal(second, payload) {
		t.Fatalf("unexpected payloads: %q / %q", first, second)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected one upstream request, got %d", got)
	}

	stats := client.Stats()
	if stats.PayloadEntries != 1 {
		t.Fatalf("expected one cached payload, got %d", stats.PayloadEntries)
	}
	if stats.PayloadHits != 1 || stats.PayloadMisses != 1 {
		t.Fatalf("unexpected hit counters: %+v", stats)
	}
}

func TestFetchBytesSendsBrowserHeaders(t *testing.T) {
	var gotUA, gotAccept, gotReferer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		gotReferer = r.Header.Get("Referer")
		w.Write([]byte("ok"))
	}))
	t.Cleanup(server.Close)

	client := fetch.New(testsupport.NewConfig(t), logging.NewNop())
	t.Cleanup(client.Close)

	target := server.URL + "/sprite.png"
	if _, err := client.FetchBytes(context.Background(), target); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotUA == "" || gotUA == "Go-http-client/1.1" {
		t.Fatalf("expected browser user agent, got %q", gotUA)
	}
	if gotAccept == "" {
		t.Fatal("expected Accept header")
	}
	if gotReferer != target {
		t.Fatalf("expected referer %q, got %q", target, gotReferer)
	}
}

func TestFetchBytesNon200IsNotCached(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	client := fetch.New(testsupport.NewConfig(t), logging.NewNop())
	t.Cleanup(client.Close)

	for i := 0; i < 2; i++ {
		_, err := client.FetchBytes(context.Background(), server.URL)
		if !errors.Is(err, services.ErrUpstreamUnavailable) {
			t.Fatalf("attempt %d: expected upstream classification for 404, got %v", i, err)
		}
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected failures to skip the cache, got %d upstream requests", got)
	}
}

func TestFetchBytesRejectsOversizedPayload(t *testing.T) {
	big := make([]byte, 4096)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(big)
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t)
	cfg.Fetch.MaxBytes = 1024
	client := fetch.New(cfg, logging.NewNop())
	t.Cleanup(client.Close)

	_, err := client.FetchBytes(context.Background(), server.URL)
	if !errors.Is(err, fetch.ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if stats := client.Stats(); stats.PayloadEntries != 0 {
		t.Fatalf("oversized payload must not be cached: %+v", stats)
	}
}

func TestFingerprintCachesAcrossCalls(t *testing.T) {
	var hits atomic.Int64
	sprite := testsupport.SolidSprite(t, 32, color.NRGBA{R: 255, G: 200, B: 0, A: 255})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(sprite)
	}))
	t.Cleanup(server.Close)

	client := fetch.New(testsupport.NewConfig(t), logging.NewNop())
	t.Cleanup(client.Close)

	engine, err := imagehash.NewEngine("phash", 8)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	first, ok := client.Fingerprint(context.Background(), engine, server.URL+"/25.png")
	if !ok {
		t.Fatal("expected fingerprint on first call")
	}
	second, ok := client.Fingerprint(context.Background(), engine, server.URL+"/25.png")
	if !ok {
		t.Fatal("expected fingerprint on second call")
	}
	if first.String() != second.String() {
		t.Fatalf("cached fingerprint mismatch: %q vs %q", first.String(), second.String())
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected one upstream request, got %d", got)
	}

	stats := client.Stats()
	if stats.FingerprintEntries != 1 {
		t.Fatalf("expected one cached fingerprint, got %d", stats.FingerprintEntries)
	}
	if stats.FingerprintHits != 1 || stats.FingerprintMisses != 1 {
		t.Fatalf("unexpected fingerprint counters: %+v", stats)
	}
}

func TestFingerprintReportsUnavailableSprites(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing.png":
			http.NotFound(w, r)
		case "/corrupt.png":
			w.Write([]byte("this is not an image"))
		}
	}))
	t.Cleanup(server.Close)

	client := fetch.New(testsupport.NewConfig(t), logging.NewNop())
	t.Cleanup(client.Close)

	engine, err := imagehash.NewEngine("phash", 8)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	if fp, ok := client.Fingerprint(context.Background(), engine, server.URL+"/missing.png"); ok || fp != nil {
		t.Fatalf("expected absent fingerprint for 404, got %v", fp)
	}
	if fp, ok := client.Fingerprint(context.Background(), engine, server.URL+"/corrupt.png"); ok || fp != nil {
		t.Fatalf("expected absent fingerprint for undecodable payload, got %v", fp)
	}
	if stats := client.Stats(); stats.FingerprintEntries != 0 {
		t.Fatalf("absent sprites must not be cached: %+v", stats)
	}
}

func TestCheckQueryURLSchemes(t *testing.T) {
	secure := fetch.New(testsupport.NewConfig(t, testsupport.WithSecureURLsOnly()), logging.NewNop())
	t.Cleanup(secure.Close)

	if err := secure.CheckQueryURL("https://example.com/a.png"); err != nil {
		t.Fatalf("https should pass: %v", err)
	}
	if err := secure.CheckQueryURL("http://example.com/a.png"); err == nil {
		t.Fatal("plain http should be refused by default")
	}
	if err := secure.CheckQueryURL("ftp://example.com/a.png"); err == nil {
		t.Fatal("ftp should be refused")
	}
	if err := secure.CheckQueryURL("https://"); err == nil {
		t.Fatal("hostless url should be refused")
	}

	relaxed := fetch.New(testsupport.NewConfig(t), logging.NewNop())
	t.Cleanup(relaxed.Close)
	if err := relaxed.CheckQueryURL("http://127.0.0.1:9999/a.png"); err != nil {
		t.Fatalf("http should pass when insecure urls are allowed: %v", err)
	}
}

func TestSanitizeURL(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "https://example.com/a.png", want: "https://example.com/a.png"},
		{input: "@https://example.com/a.png", want: "https://example.com/a.png"},
		{input: "@@<https://example.com/a.png>", want: "https://example.com/a.png"},
		{input: "  'https://example.com/a.png'\r\n", want: "https://example.com/a.png"},
		{input: "\t\"https://example.com\"", want: "https://example.com"},
	}
	for _, tc := range cases {
		if got := fetch.SanitizeURL(tc.input); got != tc.want {
			t.Errorf("SanitizeURL(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
