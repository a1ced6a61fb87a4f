package server_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"sightdex/internal/answer"
	"sightdex/internal/config"
	"sightdex/internal/fetch"
	"sightdex/internal/identify"
	"sightdex/internal/logging"
	"sightdex/internal/pokeapi"
	"sightdex/internal/server"
	"sightdex/internal/testsupport"
)

func newTestConfig(t *testing.T, catalogURL, spriteURL string) *config.Config {
	t.Helper()
	return testsupport.NewConfig(t,
		testsupport.WithCatalogHosts(catalogURL, spriteURL, ""),
		testsupport.WithMirrorSources(false),
		testsupport.WithThreshold(0.99),
	)
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	logger := logging.NewNop()
	fetcher := fetch.New(cfg, logger)
	t.Cleanup(fetcher.Close)
	catalog, err := pokeapi.New(cfg, logger)
	if err != nil {
		t.Fatalf("pokeapi.New: %v", err)
	}
	t.Cleanup(catalog.Close)
	ident, err := identify.New(cfg, fetcher, catalog, logger)
	if err != nil {
		t.Fatalf("identify.New: %v", err)
	}
	answers := answer.New(catalog, logger)

	ts := httptest.NewServer(server.New(cfg, ident, answers, catalog, fetcher, logger).Handler())
	t.Cleanup(ts.Close)
	return ts
}

// identifyFixture stands up a catalog with one creature whose primary sprite
// is byte-identical to the returned query image. The query is also served at
// {spriteURL}/query.png for URL-mode requests.
func identifyFixture(t *testing.T) (ts *httptest.Server, spriteURL string, query []byte) {
	t.Helper()

	query = testsupport.GradientSprite(t, 64, true)
	sprites := testsupport.NewSpriteServer(t, map[string][]byte{
		"/25.png":    query,
		"/query.png": query,
	})
	catalog := testsupport.NewCatalogServer(t, testsupport.FakeCreature{
		ID:         25,
		Name:       "pikachu",
		Types:      []string{"electric"},
		Abilities:  []string{"static"},
		Stats:      map[string]int{"hp": 35, "speed": 90},
		Flavor:     "Stores electricity.",
		SpriteURLs: []string{"https://sprites.example/art/25.png"},
	})
	ts = newTestServer(t, newTestConfig(t, catalog.URL, sprites.URL))
	return ts, sprites.URL, query
}

func multipartUpload(t *testing.T, data []byte, contentType string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if data != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="file"; filename="query.png"`)
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func decodeError(t *testing.T, resp *http.Response) (string, string) {
	t.Helper()

	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload.Error, payload.Detail
}

func TestIdentifyEndpointMultipartUpload(t *testing.T) {
	ts, _, query := identifyFixture(t)

	body, contentType := multipartUpload(t, query, "image/png", nil)
	resp, err := http.Post(ts.URL+"/identify", contentType, body)
	if err != nil {
		t.Fatalf("POST /identify: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Fatalf("content type = %q", ct)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("missing request id header")
	}
	md, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	report := string(md)
	for _, want := range []string{
		"## Pikachu",
		"- Verification: **Likely Accurate**",
		"- Similarity: **1.0000**",
		"Pikachu is a Electric-type Pokémon.",
		"Stores electricity.",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestIdentifyEndpointJSONURL(t *testing.T) {
	ts, spriteURL, _ := identifyFixture(t)

	body := strings.NewReader(`{"url":"` + spriteURL + `/query.png"}`)
	resp, err := http.Post(ts.URL+"/identify", "application/json", body)
	if err != nil {
		t.Fatalf("POST /identify: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	md, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(md), "## Pikachu") {
		t.Fatalf("unexpected report:\n%s", md)
	}
}

func TestIdentifyEndpointRejectsNonImageUpload(t *testing.T) {
	ts, _, query := identifyFixture(t)

	body, contentType := multipartUpload(t, query, "text/plain", nil)
	resp, err := http.Post(ts.URL+"/identify", contentType, body)
	if err != nil {
		t.Fatalf("POST /identify: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if _, detail := decodeError(t, resp); !strings.Contains(detail, "must be an image") {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestIdentifyEndpointRejectsFileAndURL(t *testing.T) {
	ts, _, query := identifyFixture(t)

	body, contentType := multipartUpload(t, query, "image/png", map[string]string{
		"url": "https://example.com/query.png",
	})
	resp, err := http.Post(ts.URL+"/identify", contentType, body)
	if err != nil {
		t.Fatalf("POST /identify: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if _, detail := decodeError(t, resp); !strings.Contains(detail, "not both") {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestIdentifyEndpointRequiresInput(t *testing.T) {
	ts, _, _ := identifyFixture(t)

	resp, err := http.Post(ts.URL+"/identify", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST /identify: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestIdentifyEndpointNoMatchIs404(t *testing.T) {
	sprites := testsupport.NewSpriteServer(t, nil)
	catalog := testsupport.NewCatalogServer(t)
	ts := newTestServer(t, newTestConfig(t, catalog.URL, sprites.URL))

	query := testsupport.GradientSprite(t, 64, true)
	body, contentType := multipartUpload(t, query, "image/png", nil)
	resp, err := http.Post(ts.URL+"/identify", contentType, body)
	if err != nil {
		t.Fatalf("POST /identify: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestChatEndpointQuestion(t *testing.T) {
	catalog := testsupport.NewCatalogServer(t, testsupport.FakeCreature{
		ID:    25,
		Name:  "pikachu",
		Types: []string{"electric"},
	})
	sprites := testsupport.NewSpriteServer(t, nil)
	ts := newTestServer(t, newTestConfig(t, catalog.URL, sprites.URL))

	resp, err := http.Post(ts.URL+"/chat", "application/json",
		strings.NewReader(`{"question":"tell me about pikachu"}`))
	if err != nil {
		t.Fatalf("POST /chat: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	md, _ := io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(md), "## Pikachu ⚡") {
		t.Fatalf("unexpected answer:\n%s", md)
	}
}

func TestChatEndpointMessagesArray(t *testing.T) {
	catalog := testsupport.NewCatalogServer(t)
	catalog.AddResource("move", "thunderbolt", map[string]any{"name": "thunderbolt"})
	sprites := testsupport.NewSpriteServer(t, nil)
	ts := newTestServer(t, newTestConfig(t, catalog.URL, sprites.URL))

	payload := `{"messages":[` +
		`{"role":"system","content":"be terse"},` +
		`{"role":"user","content":"what is the move hyper-beam"},` +
		`{"role":"assistant","content":"..."},` +
		`{"role":"user","content":"what is the move thunderbolt"}]}`
	resp, err := http.Post(ts.URL+"/chat", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /chat: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	md, _ := io.ReadAll(resp.Body)
	if string(md) != "# Thunderbolt\n\nSource: **Move**" {
		t.Fatalf("last user message should win, got:\n%s", md)
	}
}

func TestChatEndpointImageData(t *testing.T) {
	ts, _, query := identifyFixture(t)

	encoded := "data:image/png;base64," + base64.StdEncoding.EncodeToString(query)
	payload, err := json.Marshal(map[string]string{"image_data": encoded})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := http.Post(ts.URL+"/chat", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /chat: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	md, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(md), "- Verification: **Likely Accurate**") {
		t.Fatalf("image attachment should produce an identification report:\n%s", md)
	}
}

func TestChatEndpointValidation(t *testing.T) {
	catalog := testsupport.NewCatalogServer(t)
	sprites := testsupport.NewSpriteServer(t, nil)
	ts := newTestServer(t, newTestConfig(t, catalog.URL, sprites.URL))

	resp, err := http.Post(ts.URL+"/chat", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST /chat: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty body status = %d", resp.StatusCode)
	}

	resp, err = http.Post(ts.URL+"/chat", "application/json", strings.NewReader(`{"question":`))
	if err != nil {
		t.Fatalf("POST /chat: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed json status = %d", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	catalog := testsupport.NewCatalogServer(t)
	sprites := testsupport.NewSpriteServer(t, nil)
	ts := newTestServer(t, newTestConfig(t, catalog.URL, sprites.URL))

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if payload["status"] != "ok" || payload["version"] == "" || payload["uptime"] == "" {
		t.Fatalf("unexpected health payload: %v", payload)
	}

	post, err := http.Post(ts.URL+"/healthz", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /healthz: %v", err)
	}
	post.Body.Close()
	if post.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("POST status = %d", post.StatusCode)
	}
}

func TestStatusEndpointEchoesConfig(t *testing.T) {
	catalog := testsupport.NewCatalogServer(t)
	sprites := testsupport.NewSpriteServer(t, nil)
	ts := newTestServer(t, newTestConfig(t, catalog.URL, sprites.URL))

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status: %v", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Version string `json:"version"`
		Hash    struct {
			Method string `json:"method"`
			Size   int    `json:"size"`
		} `json:"hash"`
		Match struct {
			SimilarityThreshold float64 `json:"similarity_threshold"`
			TopK                int     `json:"top_k"`
		} `json:"match"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if payload.Hash.Method != "phash" || payload.Hash.Size != 8 {
		t.Fatalf("unexpected hash echo: %+v", payload.Hash)
	}
	if payload.Match.SimilarityThreshold != 0.99 || payload.Match.TopK != 50 {
		t.Fatalf("unexpected match echo: %+v", payload.Match)
	}
	if payload.Version == "" {
		t.Fatal("missing version")
	}
}

func TestCORSMiddleware(t *testing.T) {
	catalog := testsupport.NewCatalogServer(t)
	sprites := testsupport.NewSpriteServer(t, nil)
	cfg := newTestConfig(t, catalog.URL, sprites.URL)
	cfg.Server.CORSOrigins = []string{"https://app.example"}
	ts := newTestServer(t, cfg)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/identify", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Origin", "https://app.example")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS /identify: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("allow origin = %q", got)
	}

	req, err = http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Origin", "https://evil.example")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("disallowed origin got header %q", got)
	}
}
