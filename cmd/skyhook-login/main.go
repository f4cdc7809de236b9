// Package main provides the skyhook-login command line tool. It drives the
// Skyhook authorization flows from a terminal: the browser-based code flow
// with PKCE, the legacy implicit token flow, and keystore maintenance
// (listing and removing stored credentials).
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/skyhookhq/skyhook-auth/internal/auth/skyhook"
	"github.com/skyhookhq/skyhook-auth/internal/config"
	"github.com/skyhookhq/skyhook-auth/internal/logging"
	"github.com/skyhookhq/skyhook-auth/internal/reachability"
	sdkauth "github.com/skyhookhq/skyhook-auth/sdk/auth"
)

var (
	Version           = "dev"
	Commit            = "none"
	BuildDate         = "unknown"
	DefaultConfigPath = "config.yaml"
)

// loginTimeout bounds how long the command waits for the redirect after the
// authorization page has been opened.
const loginTimeout = 5 * time.Minute

func init() {
	logging.SetupBaseLogger()
}

func main() {
	fmt.Printf("skyhook-login Version: %s, Commit: %s, BuiltAt: %s\n", Version, Commit, BuildDate)

	var (
		configPath   string
		login        bool
		legacyFlow   bool
		noBrowser    bool
		callbackPort int
		scopes       string
		scopeType    string
		includeAll   bool
		whoami       bool
		logout       string
		logoutAll    bool
	)

	flag.StringVar(&configPath, "config", DefaultConfigPath, "Configuration file path")
	flag.BoolVar(&login, "login", false, "Start an authorization flow")
	flag.BoolVar(&legacyFlow, "legacy-token-flow", false, "Use the legacy implicit token flow instead of PKCE")
	flag.BoolVar(&noBrowser, "no-browser", false, "Don't open the browser automatically; print the URL instead")
	flag.IntVar(&callbackPort, "callback-port", 0, "Override the local redirect bridge port")
	flag.StringVar(&scopes, "scopes", "", "Comma-separated permission scopes to request")
	flag.StringVar(&scopeType, "scope-type", "user", "Scope type: user or team")
	flag.BoolVar(&includeAll, "include-granted-scopes", false, "Also keep previously granted scopes")
	flag.BoolVar(&whoami, "whoami", false, "List stored credentials")
	flag.StringVar(&logout, "logout", "", "Remove the stored credential for the given uid")
	flag.BoolVar(&logoutAll, "logout-all", false, "Remove all stored credentials")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("failed to load .env file: %v", err)
	}
	if envPath := os.Getenv("SKYHOOK_CONFIG"); envPath != "" && configPath == DefaultConfigPath {
		configPath = envPath
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if callbackPort > 0 {
		cfg.CallbackPort = callbackPort
	}
	if err = logging.ConfigureLogOutput(cfg); err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}

	stopWatch, err := config.WatchConfig(configPath, func(updated *config.Config) {
		log.Infof("configuration file changed; new settings apply on the next run")
	})
	if err != nil {
		log.Debugf("config watcher unavailable: %v", err)
	} else {
		defer stopWatch()
	}

	store, err := sdkauth.NewFileKeystore(cfg.AuthDir)
	if err != nil {
		log.Fatalf("failed to open keystore at %s: %v", cfg.AuthDir, err)
	}

	switch {
	case whoami:
		runWhoami(store)
	case logoutAll:
		runLogoutAll(store)
	case logout != "":
		runLogout(store, logout)
	case login:
		runLogin(cfg, store, loginOptions{
			legacyFlow: legacyFlow,
			noBrowser:  noBrowser,
			scopes:     splitScopes(scopes),
			scopeType:  scopeType,
			includeAll: includeAll,
		})
	default:
		flag.Usage()
		os.Exit(2)
	}
}

type loginOptions struct {
	legacyFlow bool
	noBrowser  bool
	scopes     []string
	scopeType  string
	includeAll bool
}

func runLogin(cfg *config.Config, store sdkauth.SecureStore, opts loginOptions) {
	manager := skyhook.NewManager(cfg, store, reachability.NewChecker(), skyhook.NewHTTPTokenExchange(cfg))

	done := make(chan *sdkauth.AuthResult, 1)
	completion := func(result *sdkauth.AuthResult) {
		select {
		case done <- result:
		default:
		}
	}

	presenter := newConsolePresenter(cfg, manager, completion)
	defer presenter.shutdown()

	authorizeOpts := skyhook.AuthorizeOptions{UsePKCE: !opts.legacyFlow}
	if len(opts.scopes) > 0 || opts.includeAll {
		authorizeOpts.ScopeRequest = &skyhook.ScopeRequest{
			ScopeType:            parseScopeType(opts.scopeType),
			Scopes:               opts.scopes,
			IncludeGrantedScopes: opts.includeAll,
		}
	}
	presenter.noBrowser = opts.noBrowser

	manager.Authorize(presenter, authorizeOpts)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case result := <-done:
		reportResult(result)
	case <-sigCh:
		fmt.Println("\nAuthorization aborted.")
		os.Exit(1)
	case <-time.After(loginTimeout):
		fmt.Println("Timed out waiting for the authorization redirect.")
		os.Exit(1)
	}
}

func reportResult(result *sdkauth.AuthResult) {
	switch {
	case result.Canceled:
		fmt.Println("Authorization was cancelled.")
		os.Exit(1)
	case result.Err != nil:
		fmt.Printf("Authorization failed: %s\n", sdkauth.UserFacingMessage(result.Err))
		log.Debugf("authorization error detail: %v", result.Err)
		os.Exit(1)
	case result.Token != nil:
		lifetime := "long-lived"
		if result.Token.ShortLived() {
			lifetime = "short-lived"
		}
		fmt.Printf("Authorized as uid %s (%s token).\n", result.Token.UID, lifetime)
	default:
		fmt.Println("Authorization produced no result.")
		os.Exit(1)
	}
}

func runWhoami(store sdkauth.SecureStore) {
	records := store.GetAll()
	if len(records) == 0 {
		fmt.Println("No stored credentials.")
		return
	}
	for uid, token := range records {
		lifetime := "long-lived"
		if token.TokenExpirationTimestamp > 0 {
			lifetime = "expires " + time.Unix(token.TokenExpirationTimestamp, 0).Format(time.RFC3339)
		} else if token.ShortLived() {
			lifetime = "short-lived"
		}
		refresh := ""
		if token.RefreshToken != "" {
			refresh = ", refreshable"
		}
		fmt.Printf("%s (%s%s)\n", uid, lifetime, refresh)
	}
}

func runLogout(store sdkauth.SecureStore, uid string) {
	if !store.Delete(uid) {
		fmt.Printf("No credential stored for uid %s.\n", uid)
		os.Exit(1)
	}
	fmt.Printf("Removed credential for uid %s.\n", uid)
}

func runLogoutAll(store sdkauth.SecureStore) {
	if !store.Clear() {
		log.Error("failed to clear the keystore")
		os.Exit(1)
	}
	fmt.Println("Removed all stored credentials.")
}

func splitScopes(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	scopes := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			scopes = append(scopes, trimmed)
		}
	}
	return scopes
}

func parseScopeType(raw string) skyhook.ScopeType {
	if strings.EqualFold(raw, "team") {
		return skyhook.ScopeTypeTeam
	}
	return skyhook.ScopeTypeUser
}
