package skyhook

import (
	"context"
	"errors"
	"net/url"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/skyhookhq/skyhook-auth/internal/config"
	sdkauth "github.com/skyhookhq/skyhook-auth/sdk/auth"
)

// AuthorizeOptions selects the flow variant for one authorization attempt.
type AuthorizeOptions struct {
	// UsePKCE selects the Authorization Code Flow with PKCE. When false the
	// legacy implicit token flow is used instead.
	UsePKCE bool
	// ScopeRequest optionally narrows the requested permissions. Only
	// meaningful with UsePKCE.
	ScopeRequest *ScopeRequest
}

// Manager orchestrates the authorization flows: flow selection, URL
// construction, redirect validation, code exchange, and credential
// persistence. One manager serves one app registration; at most one
// authorization attempt is live per manager, and starting a new one discards
// the previous session without cancelling its in-flight work.
//
// All methods are intended to be called from a single goroutine (the host
// app's UI-affine context). The store handle is injected rather than
// ambient, so multiple managers (team + personal) can coexist against one
// process-wide store; their CSRF slots are namespaced by app key.
type Manager struct {
	appKey            string
	locale            string
	registeredSchemes []string

	store        sdkauth.SecureStore
	reachability sdkauth.Reachability
	exchanger    sdkauth.TokenExchanger

	// presenter is the platform surface of the live flow, captured by
	// Authorize so later loading signals reach the same host surface.
	presenter sdkauth.Presenter

	// session is the live PKCE attempt, nil in legacy token-flow mode.
	session *AuthSession
}

// NewManager wires a manager from its collaborators.
func NewManager(cfg *config.Config, store sdkauth.SecureStore, reachability sdkauth.Reachability, exchanger sdkauth.TokenExchanger) *Manager {
	return &Manager{
		appKey:            cfg.AppKey,
		locale:            cfg.Locale,
		registeredSchemes: cfg.RegisteredSchemes,
		store:             store,
		reachability:      reachability,
		exchanger:         exchanger,
	}
}

// AppScheme returns the app's custom redirect URL scheme.
func (m *Manager) AppScheme() string {
	return SchemePrefix + "-" + m.appKey
}

func (m *Manager) csrfSlotKey() string {
	return csrfSlotPrefix + m.appKey
}

// RedirectURL returns the fixed per-app redirect target of the web channel.
func (m *Manager) RedirectURL() *url.URL {
	return &url.URL{Scheme: m.AppScheme(), Host: webRedirectHost, Path: tokenRedirectPath}
}

// Authorize starts an authorization attempt. Preconditions are checked in
// order and each failure takes its own presentation path; once they pass the
// flow-specific authorization URL is built, its CSRF state persisted, and
// the request dispatched through the companion app when available or the
// embedded browser channel otherwise. The outcome arrives later through
// HandleRedirectURL.
func (m *Manager) Authorize(presenter sdkauth.Presenter, opts AuthorizeOptions) {
	if presenter == nil {
		presenter = defaultPresenter{}
	}
	m.presenter = presenter

	if !m.reachability.IsConnected() {
		log.Warn("authorize aborted: network unreachable")
		presenter.PresentErrorWithRetry(
			sdkauth.ErrNetworkUnavailable.Message,
			"Couldn't connect",
			func() { m.sendCancelNotification() },
			func() { m.Authorize(presenter, opts) },
		)
		return
	}
	if !m.schemeRegistered() {
		log.Errorf("authorize aborted: app is not registered for URL scheme %q", m.AppScheme())
		presenter.PresentError(sdkauth.ErrAppNotRegistered.Message, "App misconfigured")
		return
	}

	var authURL *url.URL
	var state string
	if opts.UsePKCE {
		session, err := NewAuthSession(opts.ScopeRequest)
		if err != nil {
			log.Errorf("failed to construct auth session: %v", err)
			presenter.PresentError(sdkauth.UserFacingMessage(err), "Authorization failed")
			return
		}
		m.session = session
		state = session.State
		authURL = m.buildAuthorizationURL(session, "")
	} else {
		m.session = nil
		state = uuid.NewString()
		authURL = m.buildAuthorizationURL(nil, state)
	}

	if !m.store.SetRaw(m.csrfSlotKey(), state) {
		log.Warnf("failed to persist CSRF state for app %s", m.appKey)
	}

	if companion := m.companionAuthURL(state); presenter.CanPresentExternalApp(companion) && presenter.PresentPlatformAuth(companion) {
		log.Debug("authorization handed off to companion app")
		return
	}
	presenter.PresentAuthChannel(authURL, m.IsKnownRedirectURL, func() { m.sendCancelNotification() })
}

// schemeRegistered reports whether the host app declared the redirect scheme
// it derives from its own app key.
func (m *Manager) schemeRegistered() bool {
	scheme := m.AppScheme()
	for _, registered := range m.registeredSchemes {
		if registered == scheme {
			return true
		}
	}
	return false
}

// buildAuthorizationURL assembles the authorization request. session is nil
// for the legacy token flow, in which case tokenState carries the fresh
// nonce.
func (m *Manager) buildAuthorizationURL(session *AuthSession, tokenState string) *url.URL {
	q := url.Values{}
	q.Set("client_id", m.appKey)
	q.Set("redirect_uri", m.RedirectURL().String())
	q.Set("locale", m.locale)
	q.Set("disable_signup", "true")
	if session != nil {
		q.Set("code_challenge", session.PKCE.CodeChallenge)
		q.Set("code_challenge_method", session.PKCE.CodeChallengeMethod)
		q.Set("token_access_type", session.TokenAccessType)
		q.Set("response_type", session.ResponseType)
		if scopeRequest := session.ScopeRequest; scopeRequest != nil {
			if len(scopeRequest.Scopes) > 0 {
				q.Set("scope", scopeRequest.scopeString())
			}
			if scopeRequest.IncludeGrantedScopes {
				q.Set("include_granted_scopes", string(scopeRequest.ScopeType))
			}
		}
		q.Set("state", session.State)
	} else {
		q.Set("response_type", responseTypeToken)
		q.Set("state", tokenState)
	}
	return &url.URL{Scheme: "https", Host: AuthorizeHost, Path: AuthorizePath, RawQuery: q.Encode()}
}

// IsKnownRedirectURL reports whether the manager recognizes u as one of its
// redirect or cancel URLs. Hosts use it as the interception predicate for
// the embedded browser channel.
func (m *Manager) IsKnownRedirectURL(u *url.URL) bool {
	if u == nil {
		return false
	}
	return m.isCancelURL(u) || m.isAppRedirect(u) || m.isWebRedirect(u)
}

func (m *Manager) isCancelURL(u *url.URL) bool {
	return u.Scheme == m.AppScheme() &&
		(u.Host == appRedirectHost || u.Host == webRedirectHost) &&
		u.Path == cancelPath
}

func (m *Manager) isAppRedirect(u *url.URL) bool {
	return u.Scheme == m.AppScheme() && u.Host == appRedirectHost
}

func (m *Manager) isWebRedirect(u *url.URL) bool {
	return u.Scheme == m.AppScheme() && u.Host == webRedirectHost && u.Path == tokenRedirectPath
}

// HandleRedirectURL is the redirect-handling state machine. It returns false
// without invoking completion when u does not belong to this manager, so the
// host can offer the URL to other handlers. For recognized URLs it delivers
// exactly one result to completion: cancel, an OAuth error, or a credential
// (persisted to the store before delivery).
func (m *Manager) HandleRedirectURL(ctx context.Context, u *url.URL, completion sdkauth.CompletionFunc) bool {
	if u == nil || completion == nil {
		return false
	}
	if m.isCancelURL(u) {
		log.Debugf("authorization cancelled via %s", u.Redacted())
		completion(sdkauth.CancelResult())
		return true
	}
	switch {
	case m.isAppRedirect(u):
		// The companion app reports completion on /connect; any other path
		// means the user backed out of the handoff.
		if u.Path != connectPath {
			completion(sdkauth.CancelResult())
			return true
		}
	case m.isWebRedirect(u):
	default:
		return false
	}
	m.finishFlow(ctx, flattenQuery(u), completion)
	return true
}

// flattenQuery decodes the query into a single-valued map, keeping the last
// value of duplicated keys.
func flattenQuery(u *url.URL) map[string]string {
	params := make(map[string]string)
	for key, values := range u.Query() {
		if len(values) > 0 {
			params[key] = values[len(values)-1]
		}
	}
	return params
}

// finishFlow validates a recognized redirect and terminates the flow. Every
// branch ends in exactly one completion delivery.
func (m *Manager) finishFlow(ctx context.Context, params map[string]string, completion sdkauth.CompletionFunc) {
	if errCode, ok := params["error"]; ok {
		if errCode == string(sdkauth.ErrorAccessDenied) {
			completion(sdkauth.ErrorResult(sdkauth.ErrorAccessDenied, params["error_description"]))
			return
		}
		// Every non-access_denied server error code is downgraded to a user
		// cancellation. Longstanding behavior that callers depend on.
		log.Debugf("downgrading oauth error %q to cancellation", errCode)
		completion(sdkauth.CancelResult())
		return
	}

	stored := m.store.GetRaw(m.csrfSlotKey())
	state := params["state"]
	if stored == "" || state == "" || stored != state {
		log.Warnf("redirect state mismatch for app %s", m.appKey)
		completion(sdkauth.ErrorResult(sdkauth.ErrorInconsistentState, "Auth flow failed because of inconsistent state."))
		return
	}
	// The slot is one-time use: consumed on match, before the exchange
	// outcome is known. A failed exchange requires a fresh Authorize.
	m.store.DeleteRaw(m.csrfSlotKey())

	if m.session != nil {
		if code := params["code"]; code != "" {
			m.exchangeCode(ctx, code, completion)
			return
		}
	}
	if accessToken, uid := params["access_token"], params["uid"]; accessToken != "" && uid != "" {
		m.session = nil
		m.persistAndDeliver(&sdkauth.AccessToken{AccessToken: accessToken, UID: uid}, completion)
		return
	}
	completion(sdkauth.ErrorResult(sdkauth.ErrorUnknown, "Invalid response."))
}

// exchangeCode trades the authorization code for a credential using the live
// session's verifier. Loading signals fire exactly once each around the
// exchange, success or failure.
func (m *Manager) exchangeCode(ctx context.Context, code string, completion sdkauth.CompletionFunc) {
	session := m.session
	m.session = nil

	presenter := m.presenterOrDefault()
	presenter.PresentLoading()
	token, err := m.exchanger.Exchange(ctx, code, session.PKCE.CodeVerifier, m.appKey, m.locale, m.RedirectURL().String())
	presenter.DismissLoading()

	if err != nil {
		var oauthErr *sdkauth.OAuth2Error
		if errors.As(err, &oauthErr) {
			completion(&sdkauth.AuthResult{Err: oauthErr})
			return
		}
		log.Errorf("token exchange failed: %v", err)
		completion(sdkauth.ErrorResult(sdkauth.ErrorUnknown, err.Error()))
		return
	}
	m.persistAndDeliver(token, completion)
}

// persistAndDeliver writes the credential and completes the flow. A failed
// write is logged but does not retract the already-decided success.
func (m *Manager) persistAndDeliver(token *sdkauth.AccessToken, completion sdkauth.CompletionFunc) {
	if !m.store.Set(token.UID, token) {
		log.Warnf("credential write failed for uid %s", token.UID)
	}
	completion(sdkauth.SuccessResult(token))
}

func (m *Manager) presenterOrDefault() sdkauth.Presenter {
	if m.presenter != nil {
		return m.presenter
	}
	return defaultPresenter{}
}
