// Package skyhook implements the client-side OAuth 2.0 authorization flow
// for the Skyhook storage API. It coordinates the legacy implicit token
// flow, the Authorization Code Flow with PKCE, and the platform-native
// companion-app handoff behind one state machine, and persists resulting
// credentials through the secure store contract.
package skyhook

// OAuth configuration constants for Skyhook.
const (
	// AuthorizeHost serves the interactive authorization page.
	AuthorizeHost = "www.skyhookcloud.com"
	// AuthorizePath is the path of the authorization endpoint.
	AuthorizePath = "/oauth2/authorize"
	// TokenURL is the authorization-code exchange endpoint.
	TokenURL = "https://api.skyhookcloud.com/oauth2/token"

	// SchemePrefix derives the app's custom redirect URL scheme as
	// "<SchemePrefix>-<appKey>".
	SchemePrefix = "skh"
	// CompanionScheme is the inter-app URL scheme of the installed Skyhook
	// companion app used for the platform-native delegated flow.
	CompanionScheme = "skyhook-api"
)

// Redirect URL shape. Hosts distinguish the transport that produced the
// redirect: "2" is the web/browser channel, "1" the companion-app channel.
const (
	webRedirectHost = "2"
	appRedirectHost = "1"

	tokenRedirectPath = "/token"
	connectPath       = "/connect"
	cancelPath        = "/cancel"
)

// Protocol constants for the code flow.
const (
	tokenAccessTypeOffline = "offline"
	responseTypeCode       = "code"
	responseTypeToken      = "token"

	// statePrefix marks a composite PKCE state string, binding challenge,
	// method, access type and the serialized scope request into one
	// anti-tampering CSRF token.
	statePrefix = "oauth2code:"
)

// csrfSlotPrefix namespaces the persisted CSRF slot per app key so team and
// personal account managers sharing one store do not clobber each other.
const csrfSlotPrefix = "csrf-state:"
