package skyhook

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/net/proxy"

	"github.com/skyhookhq/skyhook-auth/internal/config"
	sdkauth "github.com/skyhookhq/skyhook-auth/sdk/auth"
)

// HTTPTokenExchange is the thin request/response mapper for the
// authorization-code exchange endpoint. It implements the TokenExchanger
// contract over a proxy-aware HTTP client.
type HTTPTokenExchange struct {
	httpClient *http.Client
	tokenURL   string
}

// NewHTTPTokenExchange creates the exchange transport, honoring the
// configured proxy for the outbound request.
func NewHTTPTokenExchange(cfg *config.Config) *HTTPTokenExchange {
	client := &http.Client{Timeout: 30 * time.Second}
	if cfg != nil && cfg.ProxyURL != "" {
		client = setProxy(cfg.ProxyURL, client)
	}
	return &HTTPTokenExchange{httpClient: client, tokenURL: TokenURL}
}

// Exchange trades an authorization code and its PKCE verifier for a
// credential. Server-reported OAuth failures come back as *OAuth2Error;
// transport and decoding failures as plain errors.
func (t *HTTPTokenExchange) Exchange(ctx context.Context, code, verifier, appKey, locale, redirectURI string) (*sdkauth.AccessToken, error) {
	payload, err := buildExchangePayload(code, verifier, appKey, locale, redirectURI)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.tokenURL, strings.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange request failed: %w", err)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.Errorf("failed to close response body: %v", errClose)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if errCode := gjson.GetBytes(body, "error"); errCode.Exists() {
			return nil, sdkauth.NewOAuth2Error(errCode.String(), gjson.GetBytes(body, "error_description").String())
		}
		return nil, fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	accessToken := gjson.GetBytes(body, "access_token").String()
	uid := gjson.GetBytes(body, "uid").String()
	if accessToken == "" || uid == "" {
		return nil, fmt.Errorf("token response missing access_token or uid")
	}
	token := &sdkauth.AccessToken{
		AccessToken:  accessToken,
		UID:          uid,
		RefreshToken: gjson.GetBytes(body, "refresh_token").String(),
	}
	if expiresIn := gjson.GetBytes(body, "expires_in").Int(); expiresIn > 0 {
		token.TokenExpirationTimestamp = time.Now().Add(time.Duration(expiresIn) * time.Second).Unix()
	}
	return token, nil
}

// buildExchangePayload assembles the JSON exchange request body.
func buildExchangePayload(code, verifier, appKey, locale, redirectURI string) (string, error) {
	payload := "{}"
	var err error
	fields := []struct{ key, value string }{
		{"grant_type", "authorization_code"},
		{"code", code},
		{"code_verifier", verifier},
		{"client_id", appKey},
		{"locale", locale},
		{"redirect_uri", redirectURI},
	}
	for _, field := range fields {
		if payload, err = sjson.Set(payload, field.key, field.value); err != nil {
			return "", fmt.Errorf("failed to build exchange payload: %w", err)
		}
	}
	return payload, nil
}

// setProxy routes the client through the configured proxy server. SOCKS5,
// HTTP and HTTPS proxies are supported; on configuration errors the client
// is returned unchanged.
func setProxy(proxyURL string, httpClient *http.Client) *http.Client {
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		log.Errorf("failed to parse proxy URL %q: %v", proxyURL, err)
		return httpClient
	}
	var transport *http.Transport
	switch parsed.Scheme {
	case "socks5":
		var proxyAuth *proxy.Auth
		if parsed.User != nil {
			password, _ := parsed.User.Password()
			proxyAuth = &proxy.Auth{User: parsed.User.Username(), Password: password}
		}
		dialer, errSOCKS5 := proxy.SOCKS5("tcp", parsed.Host, proxyAuth, proxy.Direct)
		if errSOCKS5 != nil {
			log.Errorf("create SOCKS5 dialer failed: %v", errSOCKS5)
			return httpClient
		}
		transport = &http.Transport{
			DialContext: func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			},
		}
	case "http", "https":
		transport = &http.Transport{Proxy: http.ProxyURL(parsed)}
	default:
		log.Errorf("unsupported proxy scheme %q", parsed.Scheme)
		return httpClient
	}
	httpClient.Transport = transport
	return httpClient
}
