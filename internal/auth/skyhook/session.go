package skyhook

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// ScopeType selects whose grants a scope request targets.
type ScopeType string

const (
	// ScopeTypeTeam requests scopes on the team account.
	ScopeTypeTeam ScopeType = "team"
	// ScopeTypeUser requests scopes on the individual user account.
	ScopeTypeUser ScopeType = "user"
)

// ScopeRequest describes the API permissions an authorization attempt asks
// for and whether previously granted scopes should be unioned in.
type ScopeRequest struct {
	ScopeType            ScopeType `json:"type"`
	Scopes               []string  `json:"scopes"`
	IncludeGrantedScopes bool      `json:"include_granted"`
}

// scopeString returns the space-joined scope list for the authorization URL.
func (r *ScopeRequest) scopeString() string {
	return strings.Join(r.Scopes, " ")
}

// AuthSession is one in-flight PKCE authorization attempt. It lives from the
// Authorize call until its redirect is handled or a newer attempt supersedes
// it. The legacy token flow never carries a session.
type AuthSession struct {
	// ScopeRequest is the optional scope selection for this attempt.
	ScopeRequest *ScopeRequest
	// PKCE holds the attempt's verifier and challenge. Never persisted.
	PKCE *PKCECodes
	// State is the composite CSRF token bound to this attempt.
	State string
	// TokenAccessType is always "offline": the exchange returns a refresh
	// token alongside the short-lived access token.
	TokenAccessType string
	// ResponseType is always "code".
	ResponseType string
}

// NewAuthSession builds a session with fresh PKCE parameters and the
// composite state string binding them.
func NewAuthSession(scopeRequest *ScopeRequest) (*AuthSession, error) {
	pkce, err := GeneratePKCECodes()
	if err != nil {
		return nil, err
	}
	state, err := composeState(pkce, tokenAccessTypeOffline, scopeRequest)
	if err != nil {
		return nil, err
	}
	return &AuthSession{
		ScopeRequest:    scopeRequest,
		PKCE:            pkce,
		State:           state,
		TokenAccessType: tokenAccessTypeOffline,
		ResponseType:    responseTypeCode,
	}, nil
}

// composeState binds the challenge, challenge method, token access type and
// the serialized scope request into one opaque CSRF token. Tampering with
// any component breaks the round-trip comparison against the persisted slot.
func composeState(pkce *PKCECodes, accessType string, scopeRequest *ScopeRequest) (string, error) {
	parts := []string{pkce.CodeChallenge, pkce.CodeChallengeMethod, accessType}
	if scopeRequest != nil {
		raw, err := json.Marshal(scopeRequest)
		if err != nil {
			return "", fmt.Errorf("failed to serialize scope request: %w", err)
		}
		parts = append(parts, base64.RawURLEncoding.EncodeToString(raw))
	}
	return statePrefix + strings.Join(parts, ":"), nil
}
