package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPService performs HTTP requests on behalf of action and trigger
// nodes. Responses that decode as JSON are returned structured.
type HTTPService struct {
	client  *http.Client
	retries int
	delay   time.Duration
}

// NewHTTPFactory creates the factory for the "http" capability. Config
// keys: "retries" (attempts, default 1) and "retry_delay" (seconds).
func NewHTTPFactory() Factory { return &httpFactory{} }

type httpFactory struct{}

func (*httpFactory) ID() string { return "http" }

func (*httpFactory) Create(config map[string]any) (Service, error) {
	retries := 1
	if v, ok := config["retries"].(float64); ok && v >= 1 {
		retries = int(v)
	}

	var delay time.Duration
	if v, ok := config["retry_delay"].(float64); ok && v > 0 {
		delay = time.Duration(v) * time.Second
	}

	return &HTTPService{
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		retries: retries,
		delay:   delay,
	}, nil
}

func (*HTTPService) Initialize(_ context.Context) error { return nil }

// Fetch performs a GET against config["url"] and seeds the body as
// trigger data.
func (s *HTTPService) Fetch(ctx context.Context, config map[string]any) (map[string]any, error) {
	url, _ := config["url"].(string)
	if url == "" {
		return nil, fmt.Errorf("http fetch requires a url")
	}

	result, err := s.request(ctx, http.MethodGet, url, nil, "")
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *HTTPService) Execute(ctx context.Context, operation string, params map[string]any, _ *models.ExecutionContext) (any, error) {
	url, _ := params["url"].(string)
	if url == "" {
		return nil, fmt.Errorf("http %s requires a url", operation)
	}

	method := strings.ToUpper(operation)

	switch method {
	case "", "REQUEST":
		method = http.MethodGet
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return nil, fmt.Errorf("http capability has no operation %q", operation)
	}

	body, _ := params["body"].(string)

	headers := make(map[string]string)
	if raw, ok := params["headers"].(map[string]any); ok {
		for k, v := range raw {
			if str, ok := v.(string); ok {
				headers[k] = str
			}
		}
	}

	var lastErr error

	for attempt := 1; attempt <= s.retries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.delay):
			}
		}

		result, err := s.requestWithHeaders(ctx, method, url, headers, body)
		if err == nil {
			return result, nil
		}

		lastErr = err
	}

	return nil, lastErr
}

func (s *HTTPService) request(ctx context.Context, method, url string, headers map[string]string, body string) (map[string]any, error) {
	return s.requestWithHeaders(ctx, method, url, headers, body)
}

func (s *HTTPService) requestWithHeaders(ctx context.Context, method, url string, headers map[string]string, body string) (map[string]any, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	result := map[string]any{
		"status_code": resp.StatusCode,
	}

	var decoded any
	if json.Unmarshal(raw, &decoded) == nil {
		result["body"] = decoded
	} else {
		result["body"] = string(raw)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return result, fmt.Errorf("http request returned status %d", resp.StatusCode)
	}

	return result, nil
}
