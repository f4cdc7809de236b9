package skyhook

import (
	"net/url"

	log "github.com/sirupsen/logrus"
)

// defaultPresenter is the capability object used when the caller passes no
// presenter: dialogs become log lines, the loading indicator a debug trace,
// and no browser or companion channel is available. It keeps the manager's
// loading start/stop pairing intact even for headless callers.
type defaultPresenter struct{}

func (defaultPresenter) PresentError(message, title string) {
	log.Errorf("%s: %s", title, message)
}

func (defaultPresenter) PresentErrorWithRetry(message, title string, onCancel, _ func()) {
	log.Errorf("%s: %s", title, message)
	if onCancel != nil {
		onCancel()
	}
}

func (defaultPresenter) PresentPlatformAuth(*url.URL) bool { return false }

func (defaultPresenter) PresentAuthChannel(u *url.URL, _ func(*url.URL) bool, _ func()) {
	log.Warnf("no presenter attached; authorization URL: %s", u.Redacted())
}

func (defaultPresenter) PresentExternalApp(u *url.URL) {
	log.Debugf("dropping external app URL %s: no presenter attached", u.Redacted())
}

func (defaultPresenter) CanPresentExternalApp(*url.URL) bool { return false }

func (defaultPresenter) PresentLoading() { log.Debug("exchange started") }

func (defaultPresenter) DismissLoading() { log.Debug("exchange finished") }
