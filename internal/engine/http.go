package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

const (
	maxResponseBytes      = 10 << 20  // 10 MB
	maxErrorResponseBytes = 1 << 20   // 1 MB
	maxArtifactBytes      = 200 << 20 // 200 MB
)

// HTTPClient talks to the assessment engine's REST surface.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient creates an engine client for the given base URL.
// apiKey may be empty when the engine requires no authentication.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// StartAudit submits the test script via multipart form and opens a session.
func (c *HTTPClient) StartAudit(ctx context.Context, selectedModel string, script File) (*StartAuditResult, error) {
	body, contentType, err := encodeMultipart(
		map[string]string{"selected_model": selectedModel},
		"test_script", []File{script})
	if err != nil {
		return nil, NewError(ErrInvalidUsage, fmt.Sprintf("failed to encode script upload: %v", err), "")
	}

	data, err := c.post(ctx, "/start-audit", contentType, body, maxResponseBytes)
	if err != nil {
		return nil, err
	}
	return parseStartAudit(data)
}

// UploadEvidence submits one round of evidence files via multipart form.
func (c *HTTPClient) UploadEvidence(ctx context.Context, sessionID string, files []File) (*UploadEvidenceResult, error) {
	body, contentType, err := encodeMultipart(
		map[string]string{"session_id": sessionID},
		"evidence_files", files)
	if err != nil {
		return nil, NewError(ErrInvalidUsage, fmt.Sprintf("failed to encode evidence upload: %v", err), "")
	}

	data, err := c.post(ctx, "/upload-evidence", contentType, body, maxResponseBytes)
	if err != nil {
		return nil, err
	}
	return parseUploadEvidence(data)
}

// GenerateWorkpaper asks the engine to produce the workpaper.
func (c *HTTPClient) GenerateWorkpaper(ctx context.Context, sessionID string, force bool) (*GenerateResult, error) {
	form := url.Values{}
	form.Set("session_id", sessionID)
	form.Set("force_generate", fmt.Sprintf("%t", force))

	data, err := c.post(ctx, "/generate-workpaper",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()), maxResponseBytes)
	if err != nil {
		return nil, err
	}
	return parseGenerate(data)
}

// DownloadWorkpaper fetches the generated artifact bytes.
// downloadURL is the engine-issued path from GenerateResult (absolute URLs
// are accepted as-is).
func (c *HTTPClient) DownloadWorkpaper(ctx context.Context, downloadURL string) ([]byte, error) {
	target := downloadURL
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		if !strings.HasPrefix(target, "/") {
			target = "/" + target
		}
		target = c.baseURL + target
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, NewError(ErrInvalidUsage, fmt.Sprintf("invalid download URL: %v", err), "")
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.mapTransportError("workpaper download", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readErrorPayload(resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes))
	if err != nil {
		return nil, NewError(ErrEngineHTTP, fmt.Sprintf("failed to read workpaper: %v", err), "")
	}
	return data, nil
}

// post issues a POST to path and returns the response body on HTTP 200.
func (c *HTTPClient) post(ctx context.Context, path, contentType string, body io.Reader, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, NewError(ErrInvalidUsage, fmt.Sprintf("failed to create request: %v", err), "")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.mapTransportError(path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readErrorPayload(resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, NewError(ErrEngineHTTP, fmt.Sprintf("failed to read engine response: %v", err), "")
	}
	return data, nil
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *HTTPClient) mapTransportError(op string, err error) error {
	if code, isNet := MapNetworkError(err); isNet {
		if code == ErrEngineTimeout {
			return NewError(code, fmt.Sprintf("engine timed out on %s: %v", op, err),
				"Retry, or raise engine.timeoutSeconds in the config")
		}
		return NewError(code, fmt.Sprintf("engine unreachable on %s: %v", op, err),
			"Check that the assessment engine is running and engine.baseUrl is correct")
	}
	return NewError(ErrEngineHTTP, fmt.Sprintf("engine request failed on %s: %v", op, err), "")
}

// readErrorPayload normalizes a non-200 response into a single-string error.
// Engines answer with {"error": "..."} or {"detail": "..."} (either key);
// anything else degrades to the raw body snippet.
func readErrorPayload(resp *http.Response) error {
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorResponseBytes))

	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	message := ""
	if err := json.Unmarshal(respBody, &payload); err == nil {
		if payload.Error != "" {
			message = payload.Error
		} else if payload.Detail != "" {
			message = payload.Detail
		}
	}
	if message == "" {
		message = strings.TrimSpace(string(respBody))
	}
	if message == "" {
		message = fmt.Sprintf("engine returned HTTP %d", resp.StatusCode)
	}
	return NewError(ErrEngineHTTP, message, "")
}

// encodeMultipart builds a multipart/form-data body with the given text
// fields followed by one file part per file under fileField.
func encodeMultipart(fields map[string]string, fileField string, files []File) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", key, err)
		}
	}

	for _, f := range files {
		if f.Filename == "" {
			return nil, "", fmt.Errorf("file part without filename")
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(fileField), escapeQuotes(f.Filename)))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", f.Filename, err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", f.Filename, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
