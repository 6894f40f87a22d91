package graph

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// defaultScope is the application permission scope for Microsoft Graph.
	defaultScope = "https://graph.microsoft.com/.default"

	// defaultTokenDuration is used when the token endpoint doesn't return an expiry time.
	defaultTokenDuration = 60 * time.Minute

	// tokenExpiryBuffer is the time before expiry to trigger a refresh.
	tokenExpiryBuffer = 5 * time.Minute

	// tokenURLFormat is the Microsoft identity platform token endpoint for a tenant.
	tokenURLFormat = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
)

// tokenSource fetches a new token from the identity platform.
type tokenSource interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// tokenManager handles client-credentials token acquisition and caching.
type tokenManager struct {
	// accessToken is the current cached access token.
	accessToken string

	// expiresAt is when the current access token expires.
	expiresAt time.Time

	// httpClient is the HTTP client for token requests.
	httpClient *http.Client

	// mu protects access token state.
	mu sync.RWMutex

	// source issues new tokens.
	source tokenSource
}

// AccessToken returns a valid access token, acquiring a new one if necessary.
func (tm *tokenManager) AccessToken(ctx context.Context) (string, error) {
	if token, ok := tm.cachedToken(); ok {
		return token, nil
	}
	return tm.acquireToken(ctx)
}

// acquireToken requests a new token from the token source.
func (tm *tokenManager) acquireToken(ctx context.Context) (string, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	// Double-check after acquiring write lock.
	if tm.isTokenValid() {
		return tm.accessToken, nil
	}

	if tm.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, tm.httpClient)
	}

	token, err := tm.source.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrAuthentication)
	}

	tm.accessToken = token.AccessToken
	if !token.Expiry.IsZero() {
		tm.expiresAt = token.Expiry
	} else {
		tm.expiresAt = time.Now().Add(defaultTokenDuration)
	}

	return tm.accessToken, nil
}

// cachedToken returns the cached access token if valid, or false if a new one is needed.
func (tm *tokenManager) cachedToken() (string, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	if tm.isTokenValid() {
		return tm.accessToken, true
	}
	return "", false
}

// isTokenValid checks if the current access token is valid and not near expiry.
// Must be called with at least a read lock held.
func (tm *tokenManager) isTokenValid() bool {
	return tm.accessToken != "" && time.Now().Before(tm.expiresAt.Add(-tokenExpiryBuffer))
}

// newTokenManager creates a token manager for the client-credentials grant.
func newTokenManager(cfg Config, tokenURL string, httpClient *http.Client) *tokenManager {
	if tokenURL == "" {
		tokenURL = fmt.Sprintf(tokenURLFormat, cfg.TenantID)
	}

	return &tokenManager{
		httpClient: httpClient,
		source: &clientcredentials.Config{
			AuthStyle:    oauth2.AuthStyleInParams,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       []string{defaultScope},
			TokenURL:     tokenURL,
		},
	}
}
