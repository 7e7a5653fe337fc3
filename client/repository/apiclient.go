package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ponyo877/vivachat/client/logger"
	"github.com/ponyo877/vivachat/client/metrics"
	"github.com/ponyo877/vivachat/client/usecase"
	"github.com/ponyo877/vivachat/client/wire"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	_ usecase.Repository = (*APIClient)(nil)
	_ usecase.RoomAPI    = (*APIClient)(nil)
	_ usecase.MessageAPI = (*APIClient)(nil)
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend answered %d", e.StatusCode)
	}
	return fmt.Sprintf("backend answered %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

// APIClient handles all communication with the chat backend.
type APIClient struct {
	BaseURL    string
	HTTPClient *http.Client

	tokens   usecase.CredentialStore
	metrics  *metrics.Metrics
	validate *validator.Validate
	log      *slog.Logger
}

// New returns a client for baseURL. tokens supplies the bearer credential;
// a nil store sends anonymous requests.
func New(baseURL string, tokens usecase.CredentialStore, m *metrics.Metrics) *APIClient {
	return &APIClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		metrics:    m,
		validate:   validator.New(),
		log:        logger.With("apiclient"),
	}
}

type request struct {
	method      string
	route       string // metrics label, e.g. /rooms/{id}/details
	path        string
	body        io.Reader
	contentType string
	anonymous   bool
}

// do is the single helper every endpoint goes through.
func (c *APIClient) do(ctx context.Context, r request) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, r.method, c.BaseURL+r.path, r.body)
	if err != nil {
		return nil, fmt.Errorf("failed to create API request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if !r.anonymous && c.tokens != nil {
		cred, err := c.tokens.Load(ctx)
		if err == nil && cred.AccessToken != "" {
			req.Header.Set("Authorization", cred.Bearer())
		}
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	c.metrics.ObserveAPI(r.method, r.route, status, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("backend unavailable: %w", err)
	}
	c.log.Debug("api request", "method", r.method, "path", r.path, "status", resp.StatusCode)
	return resp, nil
}

// jsonBody validates and encodes a request payload.
func (c *APIClient) jsonBody(in any) (io.Reader, error) {
	if err := c.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return bytes.NewReader(b), nil
}

// call performs r and unwraps the response envelope into T.
func call[T any](ctx context.Context, c *APIClient, r request) (T, error) {
	var zero T
	resp, err := c.do(ctx, r)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("failed to read response: %w", err)
	}

	var env wire.Response[T]
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: env.Message}
		if decodeErr != nil {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return zero, apiErr
	}
	if decodeErr != nil {
		return zero, fmt.Errorf("cannot decode %s response: %w", r.route, decodeErr)
	}
	if !env.Success && env.Message != "" {
		return zero, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	return env.Data, nil
}
