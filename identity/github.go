package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultGitHubURL is the public GitHub REST API.
const DefaultGitHubURL = "https://api.github.com"

// GitHubResolver resolves GitHub handles through the users endpoint of the
// GitHub REST API.
type GitHubResolver struct {
	// BaseURL defaults to DefaultGitHubURL.
	BaseURL string
	// Client defaults to an http.Client with a 30s timeout.
	Client *http.Client
	// UserAgent is sent with every request; GitHub rejects requests
	// without one. Defaults to the handle being resolved.
	UserAgent string
	Logger    *zap.Logger
}

type githubUser struct {
	ID *uint64 `json:"id"`
}

// ResolveHandle returns the numeric account id of handle.
func (r *GitHubResolver) ResolveHandle(ctx context.Context, handle string) (uint64, error) {
	base := r.BaseURL
	if base == "" {
		base = DefaultGitHubURL
	}
	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	userAgent := r.UserAgent
	if userAgent == "" {
		userAgent = handle
	}

	reqURL := strings.TrimSuffix(base, "/") + "/users/" + url.PathEscape(handle)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to create request: %v", ErrIdentityLookupFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: request failed: %v", ErrIdentityLookupFailed, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Debug("failed to close response body", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("%w: provider returned status %d: %s", ErrIdentityLookupFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var user githubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return 0, fmt.Errorf("%w: failed to parse response: %v", ErrIdentityLookupFailed, err)
	}
	if user.ID == nil {
		return 0, fmt.Errorf("%w: field `id` doesn't exist", ErrIdentityLookupFailed)
	}

	logger.Debug("resolved handle", zap.String("handle", handle), zap.Uint64("id", *user.ID))
	return *user.ID, nil
}
