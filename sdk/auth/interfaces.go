package auth

import (
	"context"
	"net/url"
)

// Presenter is the platform surface the manager drives. Host apps implement
// it to show browser UI, hand off to a companion app, and display dialogs
// and loading indicators. All methods are invoked from the flow's calling
// goroutine.
type Presenter interface {
	// PresentError shows a non-retryable error dialog.
	PresentError(message, title string)

	// PresentErrorWithRetry shows an error dialog with Cancel and Retry
	// actions; exactly one of the two callbacks fires.
	PresentErrorWithRetry(message, title string, onCancel, onRetry func())

	// PresentPlatformAuth asks the platform layer to deliver the
	// authorization request through a native handoff channel (for example a
	// cooperating installed app). It returns true when the handoff was
	// accepted, in which case the flow completes out-of-band via
	// HandleRedirectURL.
	PresentPlatformAuth(u *url.URL) bool

	// PresentAuthChannel displays the authorization URL in an embedded
	// browser channel. shouldIntercept is consulted for every navigation;
	// matching URLs must be routed back into HandleRedirectURL by the host.
	// onCancel fires when the user dismisses the channel without completing.
	PresentAuthChannel(u *url.URL, shouldIntercept func(*url.URL) bool, onCancel func())

	// PresentExternalApp opens a URL in an external application, best effort.
	PresentExternalApp(u *url.URL)

	// CanPresentExternalApp reports whether an external application is
	// available to handle the URL.
	CanPresentExternalApp(u *url.URL) bool

	// PresentLoading shows a loading indicator.
	PresentLoading()

	// DismissLoading hides the loading indicator. Always paired with a
	// preceding PresentLoading.
	DismissLoading()
}

// Reachability gates flows on network availability so they fail fast with a
// retryable dialog instead of a browser error page.
type Reachability interface {
	IsConnected() bool
}

// TokenExchanger performs the authorization-code-for-token exchange against
// the provider's token endpoint. Implementations block until the exchange
// completes or ctx is done.
type TokenExchanger interface {
	Exchange(ctx context.Context, code, verifier, appKey, locale, redirectURI string) (*AccessToken, error)
}

// SecureStore is the key-value credential store contract, backed by an
// OS-level secure store scoped to the app. Boolean returns report whether
// the mutation took effect; failures never panic.
//
// Raw slots hold small opaque strings (the persisted CSRF state) next to the
// structured credential records.
type SecureStore interface {
	// Set writes or overwrites the credential record under key.
	Set(key string, token *AccessToken) bool
	// Get reads the record under key, nil when absent. Implementations must
	// tolerate the legacy bare-string serialization format.
	Get(key string) *AccessToken
	// GetAll returns every stored record keyed by user identifier.
	GetAll() map[string]*AccessToken
	// Keys lists the keys of all stored records.
	Keys() []string
	// Delete removes the record under key.
	Delete(key string) bool
	// Clear removes all credential records.
	Clear() bool

	// SetRaw writes an opaque string slot.
	SetRaw(key, value string) bool
	// GetRaw reads an opaque string slot, empty when absent.
	GetRaw(key string) string
	// DeleteRaw clears an opaque string slot.
	DeleteRaw(key string) bool
}
