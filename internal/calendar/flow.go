package calendar

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/Reshurum/gcal-discord-poster/internal/config"
	"github.com/Reshurum/gcal-discord-poster/internal/logger"
)

// NewCredentials obtains new Google access credentials via the interactive
// OAuth2 authorization flow.
//
// The client secrets file at clientIDPath is the "installed app" JSON
// downloaded from the Google Cloud console. The call blocks until the user
// completes authorization in the browser or the flow fails; flow errors
// (user denial, bind failure on the redirect port, provider errors)
// propagate to the caller. On success with save set, the resulting record
// is stashed into cfg and the config is persisted.
func (a *AuthManager) NewCredentials(ctx context.Context, cfg *config.Config, clientIDPath string, save bool) (*oauth2.Token, error) {
	data, err := os.ReadFile(clientIDPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secrets file %q: %w", clientIDPath, err)
	}

	oauthCfg, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secrets file: %w", err)
	}

	token, err := a.runLocalFlow(ctx, oauthCfg)
	if err != nil {
		return nil, err
	}

	if save {
		Stash(cfg, oauthCfg, token)
		if err := config.Save(cfg); err != nil {
			return nil, err
		}
	}

	return token, nil
}

type callbackResult struct {
	code string
	err  error
}

// runLocalFlow serves exactly one redirect callback on the fixed loopback
// port, then exchanges the authorization code for a token.
func (a *AuthManager) runLocalFlow(ctx context.Context, oauthCfg *oauth2.Config) (*oauth2.Token, error) {
	addr := fmt.Sprintf("%s:%d", redirectHost, redirectPort)

	// The port must match the OAuth client's authorized redirect URI, so a
	// bind failure is fatal rather than an excuse to pick another port.
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	oauthCfg.RedirectURL = fmt.Sprintf("http://%s/", addr)
	state := uuid.New().String()
	authURL := oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline)

	results := make(chan callbackResult, 1)
	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := handleCallback(w, r, state)
		select {
		case results <- res:
		default:
			// A second callback landed after the first; nothing to do.
		}
	})}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			logger.Warn("failed to close redirect listener", "error", closeErr)
		}
	}()

	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Warn("redirect listener stopped", "error", serveErr)
		}
	}()

	fmt.Printf(authPromptMessage, authURL)
	if err := openBrowser(authURL); err != nil {
		logger.Warn("failed to open browser, visit the URL manually", "error", err)
	}

	var res callbackResult
	select {
	case res = <-results:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.err != nil {
		return nil, res.err
	}

	// Route the code exchange through the manager's HTTP client.
	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	token, err := oauthCfg.Exchange(exchangeCtx, res.code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	return token, nil
}

// handleCallback validates a single redirect request and writes the
// user-facing response.
func handleCallback(w http.ResponseWriter, r *http.Request, state string) callbackResult {
	q := r.URL.Query()

	if errCode := q.Get("error"); errCode != "" {
		http.Error(w, "Authorization failed: "+errCode, http.StatusBadRequest)
		return callbackResult{err: fmt.Errorf("authorization failed: %s", errCode)}
	}
	if q.Get("state") != state {
		http.Error(w, "State mismatch.", http.StatusBadRequest)
		return callbackResult{err: errors.New("redirect state parameter mismatch")}
	}
	code := q.Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code.", http.StatusBadRequest)
		return callbackResult{err: errors.New("redirect is missing the authorization code")}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, authSuccessMessage)
	return callbackResult{code: code}
}

func openBrowser(rawURL string) error {
	targetURL := strings.TrimSpace(rawURL)
	if targetURL == "" {
		return errors.New("url is required")
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", targetURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", targetURL)
	default:
		cmd = exec.Command("xdg-open", targetURL)
	}
	return cmd.Start()
}
