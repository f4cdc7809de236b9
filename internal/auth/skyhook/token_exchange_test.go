package skyhook

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/skyhookhq/skyhook-auth/internal/config"
	sdkauth "github.com/skyhookhq/skyhook-auth/sdk/auth"
)

func newExchangeServer(t *testing.T, handler http.HandlerFunc) *HTTPTokenExchange {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	exchange := NewHTTPTokenExchange(&config.Config{})
	exchange.tokenURL = server.URL
	return exchange
}

func TestExchangeSendsCodeGrantPayload(t *testing.T) {
	t.Parallel()
	var body []byte
	var contentType string
	exchange := newExchangeServer(t, func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"access_token":"tok","uid":"u1"}`))
	})

	_, err := exchange.Exchange(context.Background(), "CODE", "VERIFIER", "abc123", "en_US", "skh-abc123://2/token")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}

	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}
	if !gjson.ValidBytes(body) {
		t.Fatalf("payload is not JSON: %s", body)
	}
	checks := map[string]string{
		"grant_type":    "authorization_code",
		"code":          "CODE",
		"code_verifier": "VERIFIER",
		"client_id":     "abc123",
		"locale":        "en_US",
		"redirect_uri":  "skh-abc123://2/token",
	}
	for key, want := range checks {
		if got := gjson.GetBytes(body, key).String(); got != want {
			t.Errorf("payload %s = %q, want %q", key, got, want)
		}
	}
}

func TestExchangeMapsSuccessResponse(t *testing.T) {
	t.Parallel()
	exchange := newExchangeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"tok","uid":"u1","refresh_token":"ref","expires_in":14400}`))
	})

	before := time.Now().Unix()
	token, err := exchange.Exchange(context.Background(), "CODE", "V", "abc123", "en_US", "skh-abc123://2/token")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}

	if token.AccessToken != "tok" || token.UID != "u1" || token.RefreshToken != "ref" {
		t.Errorf("token = %+v", token)
	}
	want := before + 14400
	if token.TokenExpirationTimestamp < want || token.TokenExpirationTimestamp > want+5 {
		t.Errorf("expiration = %d, want about %d", token.TokenExpirationTimestamp, want)
	}
	if !token.ShortLived() {
		t.Error("token with expiration should be short-lived")
	}
}

func TestExchangeNoExpirationMeansLongLived(t *testing.T) {
	t.Parallel()
	exchange := newExchangeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"tok","uid":"u1"}`))
	})

	token, err := exchange.Exchange(context.Background(), "CODE", "V", "abc123", "en_US", "r")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if token.ShortLived() {
		t.Error("token without expiration should be long-lived")
	}
}

func TestExchangeMapsOAuthError(t *testing.T) {
	t.Parallel()
	exchange := newExchangeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"server_error","error_description":"code expired"}`))
	})

	_, err := exchange.Exchange(context.Background(), "CODE", "V", "abc123", "en_US", "r")
	var oauthErr *sdkauth.OAuth2Error
	if !errors.As(err, &oauthErr) {
		t.Fatalf("err = %v, want *OAuth2Error", err)
	}
	if oauthErr.Code != sdkauth.ErrorServerError || oauthErr.Description != "code expired" {
		t.Errorf("oauth error = %+v", oauthErr)
	}
}

func TestExchangeUnrecognizedErrorCodeMapsToUnknown(t *testing.T) {
	t.Parallel()
	exchange := newExchangeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	})

	_, err := exchange.Exchange(context.Background(), "CODE", "V", "abc123", "en_US", "r")
	var oauthErr *sdkauth.OAuth2Error
	if !errors.As(err, &oauthErr) {
		t.Fatalf("err = %v, want *OAuth2Error", err)
	}
	if oauthErr.Code != sdkauth.ErrorUnknown {
		t.Errorf("code = %q, want unknown", oauthErr.Code)
	}
}

func TestExchangeNonJSONFailureIsPlainError(t *testing.T) {
	t.Parallel()
	exchange := newExchangeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	})

	_, err := exchange.Exchange(context.Background(), "CODE", "V", "abc123", "en_US", "r")
	if err == nil {
		t.Fatal("expected error")
	}
	if sdkauth.IsOAuth2Error(err) {
		t.Errorf("err = %v, want plain error for non-OAuth body", err)
	}
}

func TestExchangeMissingFields(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
	}{
		{"no uid", `{"access_token":"tok"}`},
		{"no access token", `{"uid":"u1"}`},
		{"empty object", `{}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			exchange := newExchangeServer(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			if _, err := exchange.Exchange(context.Background(), "CODE", "V", "abc123", "en_US", "r"); err == nil {
				t.Error("expected error for incomplete response")
			}
		})
	}
}

func TestExchangeHonorsContext(t *testing.T) {
	t.Parallel()
	exchange := newExchangeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"tok","uid":"u1"}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := exchange.Exchange(ctx, "CODE", "V", "abc123", "en_US", "r"); err == nil {
		t.Error("expected error for cancelled context")
	}
}
