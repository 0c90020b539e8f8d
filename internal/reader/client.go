package reader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lexread/lexread/internal/protocol"
)

// Client talks to the reader backend over its JSON HTTP API. It satisfies
// Backend for the controller and additionally covers upload and
// configuration calls.
type Client struct {
	mu      sync.Mutex
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// SetBaseURL repoints the client at another server. In-flight requests keep
// the address they started with.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	c.baseURL = strings.TrimRight(baseURL, "/")
	c.mu.Unlock()
}

func (c *Client) base() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baseURL
}

func (c *Client) ExplainToken(ctx context.Context, req protocol.ExplainRequest) (protocol.ExplainResponse, error) {
	var resp protocol.ExplainResponse
	err := c.postJSON(ctx, "/explain-token", req, &resp)
	return resp, err
}

func (c *Client) TranslateText(ctx context.Context, req protocol.TranslateRequest) (protocol.TranslateResponse, error) {
	var resp protocol.TranslateResponse
	err := c.postJSON(ctx, "/translate-text", req, &resp)
	return resp, err
}

func (c *Client) ParseText(ctx context.Context, text string) (protocol.UploadResponse, error) {
	var resp protocol.UploadResponse
	err := c.postJSON(ctx, "/parse-text", protocol.ParseTextRequest{Text: text}, &resp)
	return resp, err
}

func (c *Client) Providers(ctx context.Context) (protocol.ProvidersResponse, error) {
	var resp protocol.ProvidersResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base()+"/api/config/providers", nil)
	if err != nil {
		return resp, err
	}
	err = c.do(req, &resp)
	return resp, err
}

func (c *Client) TestConfig(ctx context.Context, cfg protocol.AIConfig) (protocol.ConfigTestResponse, error) {
	var resp protocol.ConfigTestResponse
	err := c.postJSON(ctx, "/api/config/test", protocol.ConfigTestRequest{AIConfig: cfg}, &resp)
	return resp, err
}

// UploadFile sends a document as the multipart form field "file" and returns
// the parsed result.
func (c *Client) UploadFile(ctx context.Context, filename string, content io.Reader) (protocol.UploadResponse, error) {
	var resp protocol.UploadResponse

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return resp, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return resp, fmt.Errorf("copy upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return resp, fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base()+"/upload-file", &body)
	if err != nil {
		return resp, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	err = c.do(req, &resp)
	return resp, err
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base()+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var detail protocol.ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if json.Unmarshal(data, &detail) == nil && strings.TrimSpace(detail.Detail) != "" {
			return fmt.Errorf("backend: %s", detail.Detail)
		}
		return fmt.Errorf("backend: unexpected status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
