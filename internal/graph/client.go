package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Client is a Microsoft Graph external connections client.
type Client struct {
	// baseURL is the base URL for API requests.
	baseURL string

	// httpClient is the HTTP client for making requests.
	httpClient *http.Client

	// tokenManager handles access token acquisition.
	tokenManager *tokenManager
}

// Config holds the required configuration for creating a Client.
type Config struct {
	// ClientID is the Azure AD application (client) ID.
	ClientID string

	// ClientSecret is the Azure AD application secret.
	ClientSecret string

	// TenantID is the Azure AD tenant ID.
	TenantID string
}

// validate checks that all required Config fields are set.
func (c *Config) validate() error {
	var errs []error
	if c.ClientID == "" {
		errs = append(errs, errors.New("client ID is required"))
	}
	if c.ClientSecret == "" {
		errs = append(errs, errors.New("client secret is required"))
	}
	if c.TenantID == "" {
		errs = append(errs, errors.New("tenant ID is required"))
	}
	return errors.Join(errs...)
}

// NewClient creates a new Microsoft Graph client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
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
		baseURL:      o.baseURL,
		httpClient:   httpClient,
		tokenManager: newTokenManager(cfg, o.tokenURL, httpClient),
	}, nil
}

// AccessToken returns a valid Graph access token.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	return c.tokenManager.AccessToken(ctx)
}

// Connection returns the external connection with the given ID.
func (c *Client) Connection(ctx context.Context, connectionID string) (*Connection, error) {
	reqURL := c.connectionURL(connectionID)

	var result Connection
	if err := c.doRequest(ctx, http.MethodGet, reqURL, nil, &result); err != nil {
		return nil, fmt.Errorf("getting connection: %w", err)
	}

	return &result, nil
}

// CreateConnection registers a new external connection.
func (c *Client) CreateConnection(ctx context.Context, conn *Connection) (*Connection, error) {
	reqURL := fmt.Sprintf("%s/external/connections", c.baseURL)

	var result Connection
	if err := c.doRequest(ctx, http.MethodPost, reqURL, conn, &result); err != nil {
		return nil, fmt.Errorf("creating connection: %w", err)
	}

	return &result, nil
}

// CreateSchema registers the property schema for a connection.
// Graph provisions schemas asynchronously; success means the request was accepted.
func (c *Client) CreateSchema(ctx context.Context, connectionID string, schema *Schema) error {
	reqURL := c.connectionURL(connectionID) + "/schema"

	if err := c.doRequest(ctx, http.MethodPost, reqURL, schema, nil); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	return nil
}

// DeleteConnection removes an external connection and all of its items.
func (c *Client) DeleteConnection(ctx context.Context, connectionID string) error {
	if err := c.doRequest(ctx, http.MethodDelete, c.connectionURL(connectionID), nil, nil); err != nil {
		return fmt.Errorf("deleting connection: %w", err)
	}

	return nil
}

// UpdateConnection updates the name and description of an existing connection.
// Graph answers PATCH with no content, so the returned connection echoes the request.
func (c *Client) UpdateConnection(ctx context.Context, connectionID string, conn *Connection) (*Connection, error) {
	body := &Connection{
		Description: conn.Description,
		Name:        conn.Name,
	}

	var result Connection
	if err := c.doRequest(ctx, http.MethodPatch, c.connectionURL(connectionID), body, &result); err != nil {
		return nil, fmt.Errorf("updating connection: %w", err)
	}

	if result.ID == "" {
		result = Connection{
			Description: conn.Description,
			ID:          connectionID,
			Name:        conn.Name,
			State:       conn.State,
		}
	}

	return &result, nil
}

// UpsertItem creates or replaces an item in a connection.
func (c *Client) UpsertItem(ctx context.Context, connectionID string, item *ExternalItem) error {
	if item == nil || item.ID == "" {
		return errors.New("item ID is required")
	}

	reqURL := fmt.Sprintf("%s/items/%s", c.connectionURL(connectionID), url.PathEscape(item.ID))

	if err := c.doRequest(ctx, http.MethodPut, reqURL, item, nil); err != nil {
		return fmt.Errorf("upserting item %s: %w", item.ID, err)
	}

	return nil
}

// connectionURL returns the resource URL of a connection.
func (c *Client) connectionURL(connectionID string) string {
	return fmt.Sprintf("%s/external/connections/%s", c.baseURL, url.PathEscape(connectionID))
}

// doRequest executes an HTTP request with authentication and JSON encoding.
// Empty response bodies leave result untouched.
func (c *Client) doRequest(ctx context.Context, method string, reqURL string, body any, result any) error {
	accessToken, err := c.tokenManager.AccessToken(ctx)
	if err != nil {
		return err
	}

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

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, respBody)
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
