package httpclient

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

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/contract-admin/internal/core/domain/apierr"
	"github.com/avatarctic/contract-admin/internal/core/ports"
)

const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second
	// RequestIDHeader carries the per-request correlation id.
	RequestIDHeader = "X-Request-ID"

	maxErrorBody = 64 << 10
)

// TokenSource returns the bearer token to attach to a request. An empty
// token leaves the request unauthenticated.
type TokenSource func(ctx context.Context) (string, error)

// Client is the transport to the contract admin API.
type Client struct {
	baseURL *url.URL
	client  *http.Client
	logger  *logrus.Logger
	token   TokenSource
}

var _ ports.APIClient = (*Client)(nil)

// ClientOptions are the options for the Client.
type ClientOptions struct {
	// BaseURL is the API base address, e.g. https://api.example.com/api/v1.
	BaseURL string
	// Client is the HTTP client to use.
	// If nil, defaults to a client with DefaultTimeout.
	Client *http.Client
	// Logger receives one debug line per request. If nil, the standard logrus logger is used.
	Logger *logrus.Logger
	// TokenSource, when set, attaches an Authorization header. Requests are
	// unauthenticated by default.
	TokenSource TokenSource
}

// NewClient creates a new Client.
func NewClient(opts ClientOptions) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme and host are required", opts.BaseURL)
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		baseURL: base,
		client:  client,
		logger:  logger,
		token:   opts.TokenSource,
	}, nil
}

func (c *Client) Get(ctx context.Context, path string, cfg *ports.RequestConfig) (*ports.Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, cfg)
}

func (c *Client) Post(ctx context.Context, path string, body any, cfg *ports.RequestConfig) (*ports.Response, error) {
	return c.do(ctx, http.MethodPost, path, body, cfg)
}

func (c *Client) Put(ctx context.Context, path string, body any, cfg *ports.RequestConfig) (*ports.Response, error) {
	return c.do(ctx, http.MethodPut, path, body, cfg)
}

func (c *Client) Patch(ctx context.Context, path string, body any, cfg *ports.RequestConfig) (*ports.Response, error) {
	return c.do(ctx, http.MethodPatch, path, body, cfg)
}

func (c *Client) Delete(ctx context.Context, path string, cfg *ports.RequestConfig) (*ports.Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil, cfg)
}

// AssetURL resolves path against the base address without issuing a request.
func (c *Client) AssetURL(path string) string {
	return c.resolve(path, nil)
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, body any, cfg *ports.RequestConfig) (*ports.Response, error) {
	if cfg == nil {
		cfg = &ports.RequestConfig{}
	}

	payload, contentType, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path, cfg.Query), payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, vv := range cfg.Header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
		req.Header.Set(RequestIDHeader, requestID)
	}
	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s %s: resolve token: %w", method, path, err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"method":     method,
			"path":       path,
			"request_id": requestID,
		}).WithError(err).Debug("API request failed")
		return nil, &apierr.TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apierr.TransportError{Method: method, Path: path, Err: fmt.Errorf("read response body: %w", err)}
	}

	c.logger.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode,
		"duration":   time.Since(start).String(),
		"request_id": requestID,
	}).Debug("API request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return nil, &apierr.HTTPError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       data,
			Message:    errorMessage(data),
		}
	}

	return &ports.Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *ports.MultipartForm:
		if b == nil {
			return nil, "", nil
		}
		return encodeMultipart(b)
	case ports.MultipartForm:
		return encodeMultipart(&b)
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func encodeMultipart(form *ports.MultipartForm) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range form.Fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("encode form field %s: %w", name, err)
		}
	}
	for _, f := range form.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.FileName))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("encode form file %s: %w", f.Field, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("encode form file %s: %w", f.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("encode form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// errorMessage extracts the server message from a JSON error body.
func errorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
