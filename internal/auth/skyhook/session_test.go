package skyhook

import (
	"encoding/base64"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestNewAuthSessionWithoutScopes(t *testing.T) {
	t.Parallel()

	session, err := NewAuthSession(nil)
	if err != nil {
		t.Fatalf("NewAuthSession() error = %v", err)
	}
	if session.TokenAccessType != "offline" {
		t.Errorf("TokenAccessType = %q, want offline", session.TokenAccessType)
	}
	if session.ResponseType != "code" {
		t.Errorf("ResponseType = %q, want code", session.ResponseType)
	}
	if !strings.HasPrefix(session.State, statePrefix) {
		t.Fatalf("state %q missing prefix %q", session.State, statePrefix)
	}

	parts := strings.Split(strings.TrimPrefix(session.State, statePrefix), ":")
	if len(parts) != 3 {
		t.Fatalf("state has %d segments, want 3 (challenge, method, access type)", len(parts))
	}
	if parts[0] != session.PKCE.CodeChallenge {
		t.Errorf("state challenge segment = %q, want %q", parts[0], session.PKCE.CodeChallenge)
	}
	if parts[1] != CodeChallengeMethodS256 {
		t.Errorf("state method segment = %q, want S256", parts[1])
	}
	if parts[2] != "offline" {
		t.Errorf("state access-type segment = %q, want offline", parts[2])
	}
}

func TestNewAuthSessionWithScopeRequest(t *testing.T) {
	t.Parallel()

	request := &ScopeRequest{
		ScopeType:            ScopeTypeUser,
		Scopes:               []string{"files.read", "files.write"},
		IncludeGrantedScopes: true,
	}
	session, err := NewAuthSession(request)
	if err != nil {
		t.Fatalf("NewAuthSession() error = %v", err)
	}

	parts := strings.Split(strings.TrimPrefix(session.State, statePrefix), ":")
	if len(parts) != 4 {
		t.Fatalf("state has %d segments, want 4 with a scope request", len(parts))
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[3])
	if err != nil {
		t.Fatalf("scope segment is not base64url: %v", err)
	}
	var decoded ScopeRequest
	if err = json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("scope segment is not JSON: %v", err)
	}
	if !reflect.DeepEqual(&decoded, request) {
		t.Errorf("scope round-trip = %+v, want %+v", decoded, request)
	}
}

func TestScopeString(t *testing.T) {
	t.Parallel()

	request := &ScopeRequest{Scopes: []string{"files.read", "sharing.read"}}
	if got := request.scopeString(); got != "files.read sharing.read" {
		t.Errorf("scopeString() = %q", got)
	}
}

func TestSessionStatesDiffer(t *testing.T) {
	t.Parallel()

	first, err := NewAuthSession(nil)
	if err != nil {
		t.Fatalf("NewAuthSession() error = %v", err)
	}
	second, err := NewAuthSession(nil)
	if err != nil {
		t.Fatalf("NewAuthSession() error = %v", err)
	}
	if first.State == second.State {
		t.Error("two sessions produced identical state strings")
	}
}
