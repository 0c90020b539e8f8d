package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/lexread/lexread/internal/ai"
	"github.com/lexread/lexread/internal/config"
	"github.com/lexread/lexread/internal/extract"
	"github.com/lexread/lexread/internal/protocol"
	"github.com/lexread/lexread/internal/store"
)

type fakeAIService struct {
	mu             sync.Mutex
	explainCalls   int
	translateCalls int
	err            error
}

func (f *fakeAIService) ExplainWord(ctx context.Context, word, sentence string) (string, string, error) {
	f.mu.Lock()
	f.explainCalls++
	f.mu.Unlock()
	if f.err != nil {
		return "", "", f.err
	}
	return "含义:" + word, "解释:" + sentence, nil
}

func (f *fakeAIService) TranslateText(ctx context.Context, text string) (string, error) {
	f.mu.Lock()
	f.translateCalls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return "译文:" + text, nil
}

func (f *fakeAIService) Probe(ctx context.Context) error {
	return f.err
}

func newTestService(t *testing.T, fake *fakeAIService) *service {
	t.Helper()

	cfg := config.Default()
	cfg.Server.UploadsDir = t.TempDir()
	cfg.AI.Provider = "deepseek"
	cfg.AI.APIKey = "sk-test-key"
	cfg.AI.ModelName = "deepseek-chat"

	db, err := store.Open(filepath.Join(t.TempDir(), "lexread.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return &service{
		cfg:       cfg,
		db:        db,
		extractor: extract.NewExtractor(),
		newAI: func(protocol.AIConfig) (ai.Service, error) {
			return fake, nil
		},
	}
}

func newTestHTTPServer(t *testing.T, fake *fakeAIService) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(buildRouter(newTestService(t, fake)))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	srv := newTestHTTPServer(t, &fakeAIService{})
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestServerInfo(t *testing.T) {
	srv := newTestHTTPServer(t, &fakeAIService{})
	resp, err := http.Get(srv.URL + "/api/server-info")
	if err != nil {
		t.Fatal(err)
	}
	info := decodeBody[map[string]string](t, resp)
	if info["name"] != "lexread" || info["version"] == "" {
		t.Fatalf("info = %v", info)
	}
}

func uploadFile(t *testing.T, url, filename string, content []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url+"/upload-file", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestUploadTextFile(t *testing.T) {
	srv := newTestHTTPServer(t, &fakeAIService{})
	resp := uploadFile(t, srv.URL, "notes.txt", []byte("I run fast. She stops."))
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	got := decodeBody[protocol.UploadResponse](t, resp)
	if got.SourceType != "text" {
		t.Errorf("source_type = %q", got.SourceType)
	}
	if len(got.Sentences) != 2 {
		t.Fatalf("sentences = %d, want 2", len(got.Sentences))
	}
	if got.Sentences[0].Tokens[0].Text != "I" {
		t.Errorf("first token = %q", got.Sentences[0].Tokens[0].Text)
	}
}

func TestUploadUnsupportedFormat(t *testing.T) {
	srv := newTestHTTPServer(t, &fakeAIService{})
	resp := uploadFile(t, srv.URL, "binary.exe", []byte{0x4d, 0x5a})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	got := decodeBody[protocol.ErrorResponse](t, resp)
	if got.Detail != "unsupported file format" {
		t.Errorf("detail = %q", got.Detail)
	}
}

func TestUploadMissingFileField(t *testing.T) {
	srv := newTestHTTPServer(t, &fakeAIService{})
	resp, err := http.Post(srv.URL+"/upload-file", "multipart/form-data; boundary=x", strings.NewReader("--x--\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestParseText(t *testing.T) {
	srv := newTestHTTPServer(t, &fakeAIService{})
	resp := postJSON(t, srv.URL+"/parse-text", protocol.ParseTextRequest{Text: "One two. Three four."})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decodeBody[protocol.UploadResponse](t, resp)
	if len(got.Sentences) != 2 {
		t.Fatalf("sentences = %d, want 2", len(got.Sentences))
	}
}

func TestParseTextEmpty(t *testing.T) {
	srv := newTestHTTPServer(t, &fakeAIService{})
	resp := postJSON(t, srv.URL+"/parse-text", protocol.ParseTextRequest{Text: "   "})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestExplainTokenCachesAcrossCalls(t *testing.T) {
	fake := &fakeAIService{}
	srv := newTestHTTPServer(t, fake)

	req := protocol.ExplainRequest{TokenID: "sent-0-token-1", Word: "run", Sentence: "I run fast."}
	resp := postJSON(t, srv.URL+"/explain-token", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	first := decodeBody[protocol.ExplainResponse](t, resp)
	if first.MeaningZH != "含义:run" || first.Confidence != 0.95 {
		t.Fatalf("first = %+v", first)
	}

	resp = postJSON(t, srv.URL+"/explain-token", req)
	second := decodeBody[protocol.ExplainResponse](t, resp)
	if second.MeaningZH != first.MeaningZH {
		t.Fatalf("cached reply differs: %+v", second)
	}
	if fake.explainCalls != 1 {
		t.Fatalf("model calls = %d, want 1", fake.explainCalls)
	}
}

func TestExplainTokenConfigChangesCacheKey(t *testing.T) {
	fake := &fakeAIService{}
	srv := newTestHTTPServer(t, fake)

	base := protocol.ExplainRequest{Word: "run", Sentence: "I run fast."}
	postJSON(t, srv.URL+"/explain-token", base).Body.Close()

	other := base
	other.AIConfig = protocol.AIConfig{Provider: "qwen", APIKey: "k", ModelName: "qwen-turbo"}
	postJSON(t, srv.URL+"/explain-token", other).Body.Close()

	if fake.explainCalls != 2 {
		t.Fatalf("model calls = %d, want 2", fake.explainCalls)
	}
}

func TestExplainTokenModelFailure(t *testing.T) {
	fake := &fakeAIService{err: errors.New("model unavailable")}
	srv := newTestHTTPServer(t, fake)

	resp := postJSON(t, srv.URL+"/explain-token", protocol.ExplainRequest{Word: "run", Sentence: "I run fast."})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
	got := decodeBody[protocol.ErrorResponse](t, resp)
	if !strings.Contains(got.Detail, "model unavailable") {
		t.Errorf("detail = %q", got.Detail)
	}
}

func TestExplainTokenMissingWord(t *testing.T) {
	srv := newTestHTTPServer(t, &fakeAIService{})
	resp := postJSON(t, srv.URL+"/explain-token", protocol.ExplainRequest{Sentence: "I run fast."})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestTranslateText(t *testing.T) {
	fake := &fakeAIService{}
	srv := newTestHTTPServer(t, fake)

	resp := postJSON(t, srv.URL+"/translate-text", protocol.TranslateRequest{Text: "I run fast."})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decodeBody[protocol.TranslateResponse](t, resp)
	if got.TranslationZH != "译文:I run fast." {
		t.Errorf("translation = %q", got.TranslationZH)
	}
}

func TestTranslateTextFailure(t *testing.T) {
	fake := &fakeAIService{err: errors.New("quota exceeded")}
	srv := newTestHTTPServer(t, fake)

	resp := postJSON(t, srv.URL+"/translate-text", protocol.TranslateRequest{Text: "Some text."})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
}

func TestProvidersList(t *testing.T) {
	srv := newTestHTTPServer(t, &fakeAIService{})
	resp, err := http.Get(srv.URL + "/api/config/providers")
	if err != nil {
		t.Fatal(err)
	}
	got := decodeBody[protocol.ProvidersResponse](t, resp)
	ids := map[string]bool{}
	for _, p := range got.Providers {
		ids[p.ID] = true
	}
	for _, want := range []string{"doubao", "qwen", "deepseek", "openai", "gemini", "moonshot", "zhipu", "custom"} {
		if !ids[want] {
			t.Errorf("provider %q missing", want)
		}
	}
}

func TestCurrentConfigMasksKey(t *testing.T) {
	srv := newTestHTTPServer(t, &fakeAIService{})
	resp, err := http.Get(srv.URL + "/api/config/current")
	if err != nil {
		t.Fatal(err)
	}
	got := decodeBody[protocol.AIConfig](t, resp)
	if got.APIKey == "sk-test-key" {
		t.Error("api key should be masked")
	}
	if !strings.Contains(got.APIKey, "****") {
		t.Errorf("masked key = %q", got.APIKey)
	}
}

func TestUpdateConfig(t *testing.T) {
	srv := newTestHTTPServer(t, &fakeAIService{})
	resp := postJSON(t, srv.URL+"/api/config/update", protocol.AIConfig{
		Provider: "moonshot", APIKey: "mk", ModelName: "moonshot-v1-8k",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	cur, err := http.Get(srv.URL + "/api/config/current")
	if err != nil {
		t.Fatal(err)
	}
	got := decodeBody[protocol.AIConfig](t, cur)
	if got.Provider != "moonshot" {
		t.Errorf("provider = %q", got.Provider)
	}
}

func TestConfigTest(t *testing.T) {
	srv := newTestHTTPServer(t, &fakeAIService{})
	resp := postJSON(t, srv.URL+"/api/config/test", protocol.ConfigTestRequest{})
	got := decodeBody[protocol.ConfigTestResponse](t, resp)
	if !got.OK {
		t.Fatalf("probe should pass: %+v", got)
	}
}

func TestConfigTestFailure(t *testing.T) {
	fake := &fakeAIService{err: errors.New("API key not valid")}
	srv := newTestHTTPServer(t, fake)
	resp := postJSON(t, srv.URL+"/api/config/test", protocol.ConfigTestRequest{})
	got := decodeBody[protocol.ConfigTestResponse](t, resp)
	if got.OK || !strings.Contains(got.Detail, "API key not valid") {
		t.Fatalf("got %+v", got)
	}
}
