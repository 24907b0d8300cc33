package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// APIClient is the single transport to the remote API. Implementations
// must not retry and must not touch any cache.
type APIClient interface {
	Get(ctx context.Context, path string, cfg *RequestConfig) (*Response, error)
	Post(ctx context.Context, path string, body any, cfg *RequestConfig) (*Response, error)
	Put(ctx context.Context, path string, body any, cfg *RequestConfig) (*Response, error)
	Patch(ctx context.Context, path string, body any, cfg *RequestConfig) (*Response, error)
	Delete(ctx context.Context, path string, cfg *RequestConfig) (*Response, error)
	// AssetURL resolves path against the API base address without issuing a request.
	AssetURL(path string) string
}

// RequestConfig carries per-request extras. A nil config is valid.
type RequestConfig struct {
	Query  url.Values
	Header http.Header
}

// Response is a 2xx answer from the API.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// MultipartForm is a request body sent as multipart/form-data.
type MultipartForm struct {
	Fields map[string]string
	Files  []FormFile
}

type FormFile struct {
	Field       string
	FileName    string
	ContentType string
	Data        []byte
}
