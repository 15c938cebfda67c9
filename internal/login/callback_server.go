package login

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"satori/pkg/logging"
)

// CallbackTimeout is how long to wait for the browser to hit the callback listener.
const CallbackTimeout = 15 * time.Minute

// Exchanger trades an authorization code and verifier for a bearer token.
type Exchanger interface {
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error)
}

// CallbackServer is a temporary local HTTP server receiving the authorization
// redirect. It validates the callback against the session, exchanges the
// code and fills the session's token slot.
type CallbackServer struct {
	port      int
	session   *Session
	exchanger Exchanger
	finishURL string

	server   *http.Server
	listener net.Listener
	group    *errgroup.Group
	cancel   context.CancelFunc
}

// NewCallbackServer creates a callback server. Port 0 picks an ephemeral port.
func NewCallbackServer(port int, session *Session, exchanger Exchanger, finishURL string) *CallbackServer {
	return &CallbackServer{
		port:      port,
		session:   session,
		exchanger: exchanger,
		finishURL: finishURL,
	}
}

// Start binds 127.0.0.1 and serves in the background until Stop is called
// or ctx is cancelled. It returns the redirect URI to put in the
// authorization URL.
func (s *CallbackServer) Start(ctx context.Context) (string, error) {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to start callback server on %s: %w", addr, err)
	}
	s.listener = listener
	s.port = listener.Addr().(*net.TCPAddr).Port

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, s.cancel = context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)
	s.group = group

	group.Go(func() error {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	})

	logging.Debug("Login", "Callback server listening on %s", listener.Addr())
	return s.RedirectURI(), nil
}

// Stop shuts the server down and waits for it to exit.
func (s *CallbackServer) Stop() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	return s.group.Wait()
}

// RedirectURI returns the redirect URI for the authorization request.
func (s *CallbackServer) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// Handler returns the callback handler. Only the root path is routed.
func (s *CallbackServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleCallback)
	return mux
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")

	query := r.URL.Query()

	if err := s.session.CheckState(query.Get("state")); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrExpectedStateNotSet) {
			status = http.StatusInternalServerError
		}
		s.reject(w, status, err)
		return
	}

	verifier, ok := s.session.Verifier()
	if !ok {
		s.reject(w, http.StatusInternalServerError, ErrCodeVerifierNotSet)
		return
	}

	code := query.Get("code")
	if code == "" {
		s.reject(w, http.StatusBadRequest, ErrCodeNotFound)
		return
	}

	token, err := s.exchanger.ExchangeCode(r.Context(), code, verifier)
	if err != nil {
		s.reject(w, http.StatusBadGateway, err)
		return
	}

	if !s.session.Offer(token) {
		logging.Debug("Login", "Token already received, discarding token from repeated callback")
	}

	http.Redirect(w, r, s.finishURL, http.StatusFound)
}

func (s *CallbackServer) reject(w http.ResponseWriter, status int, err error) {
	logging.Error("Login", err, "Rejected authorization callback")
	http.Error(w, err.Error(), status)
}
