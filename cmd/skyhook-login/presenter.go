package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/skyhookhq/skyhook-auth/internal/auth/skyhook"
	"github.com/skyhookhq/skyhook-auth/internal/browser"
	"github.com/skyhookhq/skyhook-auth/internal/config"
	"github.com/skyhookhq/skyhook-auth/internal/logging"
	sdkauth "github.com/skyhookhq/skyhook-auth/sdk/auth"
)

// consolePresenter adapts the authorization flow's presentation contract to a
// terminal. The authorization page opens in the system browser; the redirect
// comes back either through the local HTTP bridge (GET /redirect?url=...) or
// pasted onto stdin.
type consolePresenter struct {
	cfg        *config.Config
	manager    *skyhook.Manager
	completion sdkauth.CompletionFunc
	noBrowser  bool

	mu        sync.Mutex
	server    *http.Server
	stdinUsed bool
}

func newConsolePresenter(cfg *config.Config, manager *skyhook.Manager, completion sdkauth.CompletionFunc) *consolePresenter {
	return &consolePresenter{cfg: cfg, manager: manager, completion: completion}
}

func (p *consolePresenter) PresentError(message, title string) {
	fmt.Printf("%s: %s\n", title, message)
	log.Errorf("%s: %s", title, message)
	// Error dialogs are terminal for a CLI run; unblock the caller.
	p.completion(sdkauth.ErrorResult(sdkauth.ErrorUnknown, message))
}

func (p *consolePresenter) PresentErrorWithRetry(message, title string, onCancel, onRetry func()) {
	fmt.Printf("%s: %s\n", title, message)
	fmt.Print("Retry? [y/N]: ")
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	if strings.EqualFold(strings.TrimSpace(answer), "y") {
		onRetry()
		return
	}
	onCancel()
	p.completion(sdkauth.CancelResult())
}

// PresentPlatformAuth would hand the flow to an installed companion app. A
// terminal has no such channel, so the flow always falls back to the browser.
func (p *consolePresenter) PresentPlatformAuth(*url.URL) bool { return false }

func (p *consolePresenter) CanPresentExternalApp(*url.URL) bool { return browser.IsAvailable() }

func (p *consolePresenter) PresentExternalApp(u *url.URL) {
	log.Debugf("external app notification: %s", u.Redacted())
	if err := browser.OpenURL(u.String()); err != nil {
		log.Debugf("external app handoff failed: %v", err)
	}
}

func (p *consolePresenter) PresentAuthChannel(u *url.URL, shouldIntercept func(*url.URL) bool, onCancel func()) {
	p.startBridge(shouldIntercept)
	p.readRedirectFromStdin(shouldIntercept, onCancel)

	if p.noBrowser {
		fmt.Printf("Open this URL to authorize:\n\n  %s\n\n", u.String())
	} else {
		fmt.Println("Opening the authorization page in your browser...")
		if err := browser.OpenURL(u.String()); err != nil {
			log.Warnf("failed to open browser: %v", err)
			fmt.Printf("Open this URL to authorize:\n\n  %s\n\n", u.String())
		}
	}
	fmt.Printf("Waiting for the redirect on http://localhost:%d/redirect or paste the redirect URL here.\n", p.cfg.CallbackPort)
}

func (p *consolePresenter) PresentLoading() {
	fmt.Println("Exchanging the authorization code...")
}

func (p *consolePresenter) DismissLoading() {}

// startBridge runs the local HTTP endpoint that accepts the forwarded
// redirect URL. It is idempotent across retries of the flow.
func (p *consolePresenter) startBridge(shouldIntercept func(*url.URL) bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.server != nil {
		return
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(logging.GinLogrusLogger(), logging.GinLogrusRecovery())
	engine.GET("/redirect", func(c *gin.Context) {
		raw := c.Query("url")
		redirectURL, err := url.Parse(raw)
		if err != nil || raw == "" {
			c.String(http.StatusBadRequest, "missing or invalid url parameter")
			return
		}
		if !shouldIntercept(redirectURL) {
			c.String(http.StatusBadRequest, "unrecognized redirect URL")
			return
		}
		if !p.manager.HandleRedirectURL(c.Request.Context(), redirectURL, p.completion) {
			c.String(http.StatusBadRequest, "redirect URL was not handled")
			return
		}
		log.WithField("request_id", logging.GetRequestID(c.Request.Context())).
			Info("authorization redirect received")
		c.String(http.StatusOK, "Authorization received. You can close this window.")
	})

	p.server = &http.Server{
		Addr:              fmt.Sprintf("localhost:%d", p.cfg.CallbackPort),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func(server *http.Server) {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warnf("redirect bridge stopped: %v", err)
		}
	}(p.server)
}

// readRedirectFromStdin accepts a pasted redirect URL as the fallback channel
// when no helper forwards it to the bridge. An empty line cancels.
func (p *consolePresenter) readRedirectFromStdin(shouldIntercept func(*url.URL) bool, onCancel func()) {
	p.mu.Lock()
	if p.stdinUsed {
		p.mu.Unlock()
		return
	}
	p.stdinUsed = true
	p.mu.Unlock()

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				onCancel()
				p.completion(sdkauth.CancelResult())
				return
			}
			redirectURL, err := url.Parse(line)
			if err != nil || !shouldIntercept(redirectURL) {
				fmt.Println("That does not look like a redirect URL for this app; try again or press Enter to cancel.")
				continue
			}
			if p.manager.HandleRedirectURL(context.Background(), redirectURL, p.completion) {
				return
			}
		}
	}()
}

func (p *consolePresenter) shutdown() {
	p.mu.Lock()
	server := p.server
	p.server = nil
	p.mu.Unlock()
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
}
