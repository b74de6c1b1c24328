package facebook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// GraphExplorerURL is the token tool the credential recovery flow drives.
const GraphExplorerURL = "https://developers.facebook.com/tools/explorer"

const (
	loginEmailSelector    = "#email"
	loginPasswordSelector = "#pass"
	tokenOutputSelector   = `input[name="access_token"]`

	keyEnter = "\n"
)

const clickGetTokenScript = `(function() {
	var button = document.querySelector('a[data-testid="get_token_button"], button[data-testid="get_token_button"]');
	if (button === null) { return false; }
	button.click();
	return true;
})()`

// TokenCache holds one access token per credential-owner identity, so
// repeated runs under the same identity skip re-authentication. Writes are
// last-writer-wins; a token is only removed on an explicit remote auth
// error, never proactively expired.
type TokenCache struct {
	mu     sync.RWMutex
	tokens map[string]string
}

func NewTokenCache() *TokenCache {
	return &TokenCache{tokens: make(map[string]string)}
}

func (c *TokenCache) Get(identity string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	token, ok := c.tokens[identity]
	return token, ok
}

func (c *TokenCache) Put(identity, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[identity] = token
}

func (c *TokenCache) Invalidate(identity string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, identity)
}

// scrapeAccessToken drives the Graph API Explorer to obtain a fresh access
// token: log in if a login form is present, trigger token generation and
// read the resulting token field.
func scrapeAccessToken(ctx context.Context, browser Browser, email, password string) (string, error) {
	if err := browser.Navigate(ctx, GraphExplorerURL); err != nil {
		return "", fmt.Errorf("failed to open token tool: %w", err)
	}

	emailInput, err := browser.FindElement(ctx, loginEmailSelector)
	switch {
	case err == nil:
		if err := emailInput.SendKeys(ctx, email); err != nil {
			return "", fmt.Errorf("failed to fill in email: %w", err)
		}
		passwordInput, err := browser.FindElement(ctx, loginPasswordSelector)
		if err != nil {
			return "", fmt.Errorf("login form has no password field: %w", err)
		}
		if err := passwordInput.SendKeys(ctx, password+keyEnter); err != nil {
			return "", fmt.Errorf("failed to submit login form: %w", err)
		}
	case errors.Is(err, ErrElementNotFound):
		slog.Debug("No login form detected, assuming an active session")
	default:
		return "", fmt.Errorf("failed to inspect login form: %w", err)
	}

	url, err := browser.CurrentURL(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read current URL: %w", err)
	}
	if !strings.HasPrefix(url, GraphExplorerURL) {
		return "", &AuthError{Message: "email or password seem to be incorrect"}
	}

	var clicked bool
	if err := browser.ExecuteScript(ctx, clickGetTokenScript, &clicked); err != nil {
		return "", fmt.Errorf("failed to trigger token generation: %w", err)
	}
	if !clicked {
		return "", fmt.Errorf("token tool has no token generation button")
	}

	output, err := browser.FindElement(ctx, tokenOutputSelector)
	if err != nil {
		return "", fmt.Errorf("token output field not found: %w", err)
	}
	token, err := output.Attribute(ctx, "value")
	if err != nil {
		return "", fmt.Errorf("failed to read token output: %w", err)
	}
	if token == "" {
		return "", fmt.Errorf("token tool produced an empty token")
	}

	return token, nil
}
