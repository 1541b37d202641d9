// SPDX-License-Identifier: EUPL-1.2

package etm

import (
	"context"
	"fmt"
	"time"
)

// Token scopes issued by the engine's authorization server.
const (
	ScopePublic          = "public"
	ScopeOpenID          = "openid"
	ScopeScenariosRead   = "scenarios:read"
	ScopeScenariosWrite  = "scenarios:write"
	ScopeScenariosDelete = "scenarios:delete"
)

// TokenInfo describes the personal access token in use.
type TokenInfo struct {
	ResourceOwnerID any      `json:"resource_owner_id"`
	Scopes          []string `json:"scope"`
	ExpiresIn       *int64   `json:"expires_in"`
	CreatedAt       int64    `json:"created_at"`
}

// HasScope reports whether the token carries the given scope.
func (t *TokenInfo) HasScope(scope string) bool {
	for _, s := range t.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// CreatedTime returns the token creation time.
func (t *TokenInfo) CreatedTime() time.Time {
	return time.Unix(t.CreatedAt, 0).UTC()
}

// ExpiresAt returns the expiry time, or false for tokens that never expire.
func (t *TokenInfo) ExpiresAt() (time.Time, bool) {
	if t.ExpiresIn == nil {
		return time.Time{}, false
	}
	return t.CreatedTime().Add(time.Duration(*t.ExpiresIn) * time.Second), true
}

// UserInfo identifies the token owner.
type UserInfo struct {
	Sub   string `json:"sub"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// TokenInfo fetches scope and expiry details of the configured token.
func (c *Client) TokenInfo(ctx context.Context) (*TokenInfo, error) {
	if !c.Authenticated() {
		return nil, &EngineError{Sentinel: ErrUnauthorized, Operation: "fetch token info",
			Err: fmt.Errorf("no personal access token assigned")}
	}

	var info TokenInfo
	if err := c.getJSON(ctx, "fetch token info", "/oauth/token/info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// User fetches details about the token owner. The token needs the openid
// scope.
func (c *Client) User(ctx context.Context) (*UserInfo, error) {
	if err := c.requireScope(ctx, ScopeOpenID); err != nil {
		return nil, err
	}

	var user UserInfo
	if err := c.getJSON(ctx, "fetch user", "/oauth/userinfo", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// TransitionPaths fetches the transition path documents of the connected
// engine.
func (c *Client) TransitionPaths(ctx context.Context) ([]map[string]any, error) {
	var paths []map[string]any
	if err := c.getJSON(ctx, "fetch transition paths", "/transition_paths", nil, &paths); err != nil {
		return nil, err
	}
	return paths, nil
}

// requireScope fails fast when the token is missing or lacks a scope, before
// any write is attempted.
func (c *Client) requireScope(ctx context.Context, scope string) error {
	info, err := c.TokenInfo(ctx)
	if err != nil {
		return err
	}
	if !info.HasScope(scope) {
		return &EngineError{Sentinel: ErrForbidden, Operation: "validate token scope",
			Err: fmt.Errorf("token has no %q permission", scope)}
	}
	return nil
}
