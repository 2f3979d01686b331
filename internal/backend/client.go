package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/justsurfingit/jobhunter/internal/dtos"
)

// Client talks to the JobHunter backend API.
type Client struct {
	BaseURL *url.URL
	HTTP    *http.Client
}

// APIError is returned when the backend answers with a status >= 300.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// IsAPIError reports whether err carries an HTTP-level failure.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// FilePart is a file attached to a multipart request.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// New builds a client for baseURL. A zero timeout means requests are only
// bounded by their context.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}
	return &Client{
		BaseURL: u,
		HTTP:    &http.Client{Timeout: timeout},
	}, nil
}

// Connect builds the client and reports whether the backend is reachable.
// An unhealthy backend is only logged: pages still render and every call
// reports its own failure.
func Connect(ctx context.Context, baseURL string, timeout time.Duration) (*Client, error) {
	c, err := New(baseURL, timeout)
	if err != nil {
		return nil, err
	}

	hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	health, err := c.Health(hctx)
	if err != nil {
		slog.Warn("backend health check failed", "url", c.BaseURL.String(), "error", err)
		return c, nil
	}
	slog.Info("backend connection established", "url", c.BaseURL.String(), "status", health.Status)
	return c, nil
}

func (c *Client) Health(ctx context.Context) (*dtos.HealthResponse, error) {
	var out dtos.HealthResponse
	if err := c.get(ctx, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListResumes calls GET /api/resumes.
func (c *Client) ListResumes(ctx context.Context) (*dtos.ResumeListResponse, error) {
	var out dtos.ResumeListResponse
	if err := c.get(ctx, "/api/resumes", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadResume calls POST /api/upload-resume. The success body is
// arbitrary, so a body that is not the expected JSON yields an empty
// response rather than an error.
func (c *Client) UploadResume(ctx context.Context, fields url.Values, file FilePart) (*dtos.UploadResponse, error) {
	body, contentType, err := encodeMultipart(fields, &file)
	if err != nil {
		return nil, err
	}
	raw, err := c.send(ctx, http.MethodPost, "/api/upload-resume", nil, body, contentType)
	if err != nil {
		return nil, err
	}
	var out dtos.UploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		slog.Debug("upload response is not json", "error", err)
	}
	return &out, nil
}

// GetJobs calls GET /api/jobs with the query forwarded verbatim.
func (c *Client) GetJobs(ctx context.Context, query url.Values) (*dtos.JobListResponse, error) {
	var out dtos.JobListResponse
	if err := c.get(ctx, "/api/jobs", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitApplication calls POST /api/apply with the form fields as a
// multipart body.
func (c *Client) SubmitApplication(ctx context.Context, fields url.Values) (*dtos.ApplicationResponse, error) {
	body, contentType, err := encodeMultipart(fields, nil)
	if err != nil {
		return nil, err
	}
	raw, err := c.send(ctx, http.MethodPost, "/api/apply", nil, body, contentType)
	if err != nil {
		return nil, err
	}
	var out dtos.ApplicationResponse
	if err := decode(raw, &out); err != nil {
		return nil, fmt.Errorf("decode /api/apply response: %w", err)
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	raw, err := c.send(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return err
	}
	if err := decode(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.BaseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode >= 300 {
		var e dtos.ErrorResponse
		_ = json.Unmarshal(raw, &e)
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: e.Message()}
	}
	return raw, nil
}

func decode(raw []byte, out any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(fields url.Values, file *FilePart) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range fields[k] {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
	}

	if file != nil {
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(file.Field), quoteEscaper.Replace(file.Filename)))
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
