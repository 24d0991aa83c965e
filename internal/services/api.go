// API service for making raw HTTP requests to the Vorplay API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/desertthunder/vorplay/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL  = "http://localhost:4000/api"
	requestIDHeader = "X-Request-ID"
)

// APIService provides methods for making raw HTTP requests to the Vorplay API.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewAPIService creates a new API service instance for the Vorplay API.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// WithRateLimit throttles requests to rps per second with the given burst. A non-positive rps disables throttling.
func (a *APIService) WithRateLimit(rps float64, burst int) *APIService {
	if rps <= 0 {
		a.limiter = nil
		return a
	}
	if burst < 1 {
		burst = 1
	}
	a.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return a
}

// BaseURL returns the URL every request path is appended to.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
	RequestID  string
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	return nil
}

// Err returns an [*APIError] for non-success responses and nil otherwise.
func (r *APIResponse) Err() error {
	if r.OK() {
		return nil
	}
	return newAPIError(r)
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path, credential string) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, nil, credential)
}

// Do performs a request with an optional JSON body.
//
// A non-empty credential is sent as a bearer token.
func (a *APIService) Do(ctx context.Context, method, path string, body any, credential string) (*APIResponse, error) {
	var reader io.Reader
	var contentType string
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	return a.send(ctx, method, path, reader, contentType, credential)
}

// Upload sends r as a multipart/form-data file field.
func (a *APIService) Upload(ctx context.Context, path, field, filename string, r io.Reader, credential string) (*APIResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return a.send(ctx, http.MethodPost, path, &buf, mw.FormDataContentType(), credential)
}

func (a *APIService) send(ctx context.Context, method, path string, body io.Reader, contentType, credential string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := shared.GenerateID()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	resp, err := a.client(credential).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrServiceUnavailable, err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
		RequestID:  requestID,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// client returns the HTTP client for a call, wrapping the transport with a bearer token source when a credential is given.
func (a *APIService) client(credential string) *http.Client {
	if credential == "" {
		return a.httpClient
	}

	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: credential, TokenType: "Bearer"}),
			Base:   a.httpClient.Transport,
		},
		CheckRedirect: a.httpClient.CheckRedirect,
		Jar:           a.httpClient.Jar,
		Timeout:       a.httpClient.Timeout,
	}
}

// APIError is a non-success response from the API.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
	Kind       error
}

// Error returns the server message, or the status text when the body carried none.
func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", http.StatusText(e.StatusCode), e.StatusCode)
}

// Unwrap exposes the error category for [errors.Is].
func (e *APIError) Unwrap() error { return e.Kind }

// ServerMessage returns the human-readable message from the response body.
func (e *APIError) ServerMessage() string { return e.Message }

// AsAPIError returns the [*APIError] in err's chain, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

func newAPIError(r *APIResponse) *APIError {
	apiErr := &APIError{StatusCode: r.StatusCode, RequestID: r.RequestID, Kind: statusKind(r.StatusCode)}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(r.Body, &body); err == nil {
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			apiErr.Message = body.Error
		}
	}
	return apiErr
}

func statusKind(status int) error {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return shared.ErrInvalidInput
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return shared.ErrNotAuthenticated
	case status == http.StatusNotFound:
		return shared.ErrNotFound
	case status == http.StatusConflict:
		return shared.ErrConflict
	case status >= 500:
		return shared.ErrServiceUnavailable
	default:
		return shared.ErrAPIRequest
	}
}
