package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/browser"

	"github.com/owleyeart/bba/pkg/gettoken/acquire"
)

// AuthCodeRequest describes one authorization code round trip through a
// loopback listener.
type AuthCodeRequest struct {
	// RedirectURL has the same meaning as OIDCConfig.RedirectURL.
	RedirectURL string
	// AuthURL builds the authorization endpoint URL for the redirect URL
	// the listener ended up on. State and PKCE parameters are added to it.
	AuthURL func(ctx context.Context, redirectURL string) (string, error)
	// OpenURL defaults to OpenBrowser.
	OpenURL func(string) error
	// Out defaults to stdout.
	Out io.Writer
}

// AuthCode is what the browser brought back.
type AuthCode struct {
	Code        string
	Verifier    string
	RedirectURL string
}

// AuthorizeLoopback sends the user to the authorization endpoint and waits
// for the redirect. An error redirect is returned as *acquire.ProviderError.
func AuthorizeLoopback(ctx context.Context, req AuthCodeRequest) (*AuthCode, error) {
	if req.AuthURL == nil {
		return nil, errors.New("authorization URL builder is required")
	}
	verifier, challenge, err := newPKCEPair()
	if err != nil {
		return nil, err
	}
	state, err := randomToken(24)
	if err != nil {
		return nil, err
	}

	listener, redirectURL, callbackPath, err := listenLoopback(req.RedirectURL)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = listener.Close()
	}()

	rawURL, err := req.AuthURL(ctx, redirectURL)
	if err != nil {
		return nil, err
	}
	authURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid authorization url: %w", err)
	}
	q := authURL.Query()
	q.Set("state", state)
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "S256")
	authURL.RawQuery = q.Encode()

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	fail := func(err error) {
		select {
		case errCh <- err:
		default:
		}
	}

	server := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != callbackPath {
				http.NotFound(w, r)
				return
			}
			query := r.URL.Query()
			if query.Get("state") != state {
				fail(errors.New("invalid state in callback"))
				http.Error(w, "invalid state", http.StatusBadRequest)
				return
			}
			if code := query.Get("error"); code != "" {
				fail(&acquire.ProviderError{Code: code, Description: query.Get("error_description")})
				_, _ = fmt.Fprintln(w, "Authentication failed. You can close this window.")
				return
			}
			code := query.Get("code")
			if code == "" {
				fail(errors.New("missing code in callback"))
				http.Error(w, "missing code", http.StatusBadRequest)
				return
			}
			_, _ = fmt.Fprintln(w, "Authentication complete. You can close this window.")
			select {
			case codeCh <- code:
			default:
			}
		}),
	}
	go func() {
		_ = server.Serve(listener)
	}()
	defer func() {
		_ = server.Close()
	}()

	out := req.Out
	if out == nil {
		out = os.Stdout
	}
	open := req.OpenURL
	if open == nil {
		open = OpenBrowser
	}
	_, _ = fmt.Fprintf(out, "Open the following URL in your browser:\n%s\n", authURL.String())
	_ = open(authURL.String())

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-errCh:
		return nil, err
	case code := <-codeCh:
		return &AuthCode{Code: code, Verifier: verifier, RedirectURL: redirectURL}, nil
	}
}

// OpenBrowser opens u in the system browser unless GETTOKEN_NO_BROWSER=true.
func OpenBrowser(u string) error {
	if strings.EqualFold(os.Getenv("GETTOKEN_NO_BROWSER"), "true") {
		return nil
	}
	return browser.OpenURL(u)
}

// listenLoopback returns the listener, the redirect URL to register with
// the provider and the path the callback arrives on.
func listenLoopback(redirect string) (net.Listener, string, string, error) {
	host, port, path := "127.0.0.1", "0", "/callback"
	if redirect != "" {
		u, err := url.Parse(redirect)
		if err != nil {
			return nil, "", "", fmt.Errorf("invalid redirect uri: %w", err)
		}
		if u.Scheme != "http" {
			return nil, "", "", fmt.Errorf("redirect uri must be an http loopback address: %s", redirect)
		}
		host = u.Hostname()
		if p := u.Port(); p != "" {
			port = p
		}
		path = u.Path
		if path == "" {
			path = "/"
		}
	}
	listener, err := net.Listen("tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to start callback listener: %w", err)
	}
	_, actualPort, _ := net.SplitHostPort(listener.Addr().String())
	return listener, fmt.Sprintf("http://%s%s", net.JoinHostPort(host, actualPort), path), path, nil
}
