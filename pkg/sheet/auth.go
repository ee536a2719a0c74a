package sheet

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

// Scope grants read/write access to spreadsheets.
const Scope = sheets.SpreadsheetsScope

// AuthConfig locates the Google credentials.
type AuthConfig struct {
	// CredentialsFile is either a service account key or an OAuth client
	// secret for an installed application.
	CredentialsFile string
	// TokenFile caches the user token of the installed-application flow.
	TokenFile string
	// OpenURL hands the consent URL to the user. Defaults to printing it on
	// stderr.
	OpenURL func(url string) error
}

type credentialsKind struct {
	Type string `json:"type"`
}

// Authorize returns an HTTP client authorized for Scope. A service account key
// is used directly; otherwise the cached user token is loaded, running the
// interactive consent flow and caching the result when it is missing.
func Authorize(ctx context.Context, cfg AuthConfig) (*http.Client, error) {
	if cfg.CredentialsFile == "" {
		return nil, errors.New("credentials file is not configured")
	}
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var kind credentialsKind
	if err := json.Unmarshal(data, &kind); err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", cfg.CredentialsFile, err)
	}

	if kind.Type == "service_account" {
		jwt, err := google.JWTConfigFromJSON(data, Scope)
		if err != nil {
			return nil, fmt.Errorf("load service account: %w", err)
		}
		slog.DebugContext(ctx, "using service account", "email", jwt.Email)
		return jwt.Client(ctx), nil
	}

	oc, err := google.ConfigFromJSON(data, Scope)
	if err != nil {
		return nil, fmt.Errorf("load oauth client: %w", err)
	}
	tok, err := userToken(ctx, oc, cfg)
	if err != nil {
		return nil, err
	}
	return oc.Client(ctx, tok), nil
}

func userToken(ctx context.Context, oc *oauth2.Config, cfg AuthConfig) (*oauth2.Token, error) {
	if cfg.TokenFile != "" {
		tok, err := LoadToken(cfg.TokenFile)
		if err == nil {
			return tok, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			slog.WarnContext(ctx, "ignoring unreadable token cache", "path", cfg.TokenFile, "err", err)
		}
	}

	tok, err := consent(ctx, oc, cfg.OpenURL)
	if err != nil {
		return nil, err
	}
	if cfg.TokenFile != "" {
		if err := SaveToken(cfg.TokenFile, tok); err != nil {
			return nil, err
		}
	}
	return tok, nil
}

// consent runs the installed-application flow against a loopback listener on
// a random port.
func consent(ctx context.Context, oc *oauth2.Config, open func(string) error) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("start oauth listener: %w", err)
	}
	cfg := *oc
	cfg.RedirectURL = "http://" + ln.Addr().String() + "/"

	state := rand.Text()
	codes := make(chan string, 1)
	failures := make(chan error, 1)

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		case q.Get("error") != "":
			http.Error(w, "authorization denied", http.StatusForbidden)
			select {
			case failures <- fmt.Errorf("authorization denied: %s", q.Get("error")):
			default:
			}
			return
		}
		fmt.Fprintln(w, "Authorization received, you can close this window.")
		select {
		case codes <- q.Get("code"):
		default:
		}
	})}
	go srv.Serve(ln)
	defer srv.Close()

	if open == nil {
		open = printURL
	}
	if err := open(cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)); err != nil {
		return nil, fmt.Errorf("open consent page: %w", err)
	}

	select {
	case code := <-codes:
		tok, err := cfg.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("exchange authorization code: %w", err)
		}
		return tok, nil
	case err := <-failures:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func printURL(url string) error {
	_, err := fmt.Fprintf(os.Stderr, "Open this URL in a browser to authorize access:\n\n  %s\n\n", url)
	return err
}

// LoadToken reads a cached OAuth token.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token %s: %w", path, err)
	}
	return &tok, nil
}

// SaveToken writes tok to path, readable by the owner only.
func SaveToken(path string, tok *oauth2.Token) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token dir: %w", err)
		}
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write token %s: %w", path, err)
	}
	return nil
}
