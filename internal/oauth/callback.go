// Package oauth runs a short-lived local HTTP server that receives the
// Google OAuth redirect and exchanges the authorization code for a session.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/besofuls/EVTrade/internal/api"
	"github.com/besofuls/EVTrade/internal/models"
)

// ErrDenied is returned when the provider redirects back with an error
// instead of a code, typically because the user cancelled consent.
var ErrDenied = errors.New("authorization was denied")

const shutdownGrace = 3 * time.Second

// CallbackServer listens on a loopback address for the OAuth redirect.
type CallbackServer struct {
	client *api.Client
	addr   string
}

// NewCallbackServer creates a callback server bound to addr.
func NewCallbackServer(client *api.Client, addr string) *CallbackServer {
	return &CallbackServer{client: client, addr: addr}
}

type result struct {
	resp *models.LoginResponse
	err  error
}

// Wait serves /oauth/callback until one redirect arrives, exchanges the code
// for a session, and shuts the server down. It returns when the exchange
// finishes or ctx is cancelled.
func (s *CallbackServer) Wait(ctx context.Context) (*models.LoginResponse, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("starting callback listener on %s: %w", s.addr, err)
	}

	results := make(chan result, 1)

	router := mux.NewRouter()
	router.HandleFunc("/oauth/callback", func(w http.ResponseWriter, r *http.Request) {
		s.handleCallback(r.Context(), w, r, results)
	}).Methods(http.MethodGet)

	server := &http.Server{Handler: router}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			results <- result{err: fmt.Errorf("callback server: %w", err)}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("OAuth callback server shutdown: %v", err)
		}
	}()

	log.Printf("Waiting for Google sign-in redirect on http://%s/oauth/callback", listener.Addr())

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		return res.resp, res.err
	}
}

func (s *CallbackServer) handleCallback(ctx context.Context, w http.ResponseWriter, r *http.Request, results chan<- result) {
	query := r.URL.Query()

	if denied := query.Get("error"); denied != "" {
		http.Error(w, "Sign-in was cancelled. You can close this window.", http.StatusBadRequest)
		deliver(results, result{err: fmt.Errorf("%w: %s", ErrDenied, denied)})
		return
	}

	code := query.Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code.", http.StatusBadRequest)
		deliver(results, result{err: errors.New("callback arrived without an authorization code")})
		return
	}

	resp, err := s.client.GoogleCodeLogin(ctx, code)
	if err != nil {
		http.Error(w, "Sign-in failed. Check the terminal for details.", http.StatusBadGateway)
		deliver(results, result{err: err})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<html><body><p>Signed in as %s. You can close this window.</p></body></html>", resp.Username)
	deliver(results, result{resp: resp})
}

// deliver ignores results past the first; only one redirect wins.
func deliver(results chan<- result, res result) {
	select {
	case results <- res:
	default:
	}
}
