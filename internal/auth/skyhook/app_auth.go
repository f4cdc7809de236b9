package skyhook

import (
	"net/url"
)

// companionAuthURL builds the leaner inter-app authorization request used
// for the platform-native handoff: the app key under "k", the reserved empty
// "s" field, and the same CSRF state the web flow would carry folded into a
// single opaque parameter. The companion app replies on the app redirect
// host ("1"), and its response flows through the same validation and
// exchange path as a web redirect.
func (m *Manager) companionAuthURL(state string) *url.URL {
	q := url.Values{}
	q.Set("k", m.appKey)
	q.Set("s", "")
	q.Set("state", state)
	return &url.URL{
		Scheme:   CompanionScheme,
		Host:     appRedirectHost,
		Path:     connectPath,
		RawQuery: q.Encode(),
	}
}

// sendCancelNotification tells the authorization channel that the user
// dismissed the flow. Best effort over the same URL-based channel; it does
// not abort an exchange already in flight.
func (m *Manager) sendCancelNotification() {
	u := &url.URL{Scheme: m.AppScheme(), Host: webRedirectHost, Path: cancelPath}
	m.presenterOrDefault().PresentExternalApp(u)
}
