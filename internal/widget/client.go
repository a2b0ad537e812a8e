package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// DefaultTimeout bounds one upload round trip.
const DefaultTimeout = 60 * time.Second

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// APIError is a non-200 answer from the upload endpoint.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upload endpoint returned %d: %s", e.Status, e.Message)
}

// Client posts files to the upload endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a Client for baseURL (e.g. "http://localhost:8080").
// A nil httpClient gets one with DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/api/upload",
		http:     httpClient,
	}
}

// Upload sends f as the "file" field and returns the stored object's URL.
func (c *Client) Upload(ctx context.Context, f File) (string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+quoteEscaper.Replace(f.Name)+`"`)
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return "", fmt.Errorf("write form part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("post upload: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var payload struct {
		URL   string `json:"url"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil && resp.StatusCode == http.StatusOK {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := payload.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", &APIError{Status: resp.StatusCode, Message: msg}
	}
	if payload.URL == "" {
		return "", fmt.Errorf("decode response: missing url")
	}
	return payload.URL, nil
}
