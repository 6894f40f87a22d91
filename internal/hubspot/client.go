package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultPageSize is the page size used when no limit is given.
	DefaultPageSize = 100

	// MaxPageSize is the largest page the CRM objects API returns.
	MaxPageSize = 100
)

// Client is a HubSpot CRM API client.
type Client struct {
	// apiKey is the private app access token.
	apiKey string

	// baseURL is the base URL for API requests.
	baseURL string

	// httpClient is the HTTP client for making requests.
	httpClient *http.Client

	// logger receives warnings for partial failures.
	logger *slog.Logger
}

// NewClient creates a new HubSpot API client.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("API key is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    o.baseURL,
		httpClient: httpClient,
		logger:     o.logger,
	}, nil
}

// AccountInfo returns details of the portal the API key belongs to.
func (c *Client) AccountInfo(ctx context.Context) (*AccountInfo, error) {
	reqURL := fmt.Sprintf("%s/account-info/v3/details", c.baseURL)

	var info AccountInfo
	if err := c.doRequest(ctx, http.MethodGet, reqURL, nil, &info); err != nil {
		return nil, fmt.Errorf("getting account info: %w", err)
	}

	return &info, nil
}

// List returns one page of records of the given type.
// The limit is clamped to [1, MaxPageSize]; after is the cursor from a previous page.
func (c *Client) List(ctx context.Context, objectType ObjectType, limit int, after string) (*Page, error) {
	profile, err := profileFor(objectType)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(clampLimit(limit)))
	params.Set("properties", strings.Join(profile.properties, ","))
	params.Set("archived", "false")
	if after != "" {
		params.Set("after", after)
	}

	reqURL := fmt.Sprintf("%s/crm/v3/objects/%s?%s", c.baseURL, objectType, params.Encode())

	var page Page
	if err := c.doRequest(ctx, http.MethodGet, reqURL, nil, &page); err != nil {
		return nil, fmt.Errorf("listing %s: %w", objectType, err)
	}

	return &page, nil
}

// Object returns a single record by ID.
func (c *Client) Object(ctx context.Context, objectType ObjectType, id string) (*Object, error) {
	profile, err := profileFor(objectType)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("properties", strings.Join(profile.properties, ","))

	reqURL := fmt.Sprintf("%s/crm/v3/objects/%s/%s?%s", c.baseURL, objectType, url.PathEscape(id), params.Encode())

	var obj Object
	if err := c.doRequest(ctx, http.MethodGet, reqURL, nil, &obj); err != nil {
		return nil, fmt.Errorf("getting %s %s: %w", objectType.Singular(), id, err)
	}

	return &obj, nil
}

// clampLimit bounds a page size to what the API accepts.
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPageSize
	case limit > MaxPageSize:
		return MaxPageSize
	default:
		return limit
	}
}

// doRequest executes an HTTP request with authentication and JSON encoding.
func (c *Client) doRequest(ctx context.Context, method string, reqURL string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return parseAPIError(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

// parseAPIError builds an APIError from a response status and body.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr = &APIError{Message: strings.TrimSpace(string(body))}
	}
	apiErr.StatusCode = statusCode
	return apiErr
}
