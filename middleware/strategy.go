package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	goSessions "github.com/MrEthical07/goSessions"
	"github.com/MrEthical07/goSessions/session"
)

// ErrStrategyRejected is returned by every [Strategy] when the request does
// not authenticate. Callers translate it to 401; the reason stays server-side.
var ErrStrategyRejected = errors.New("authentication rejected")

// DefaultSessionCookie is the cookie the [RefreshStrategy] reads the session
// ID from when no override is configured.
const DefaultSessionCookie = "sid"

// Strategy authenticates one HTTP request and resolves it to an [Identity]
// or a failure. Every guard route is driven by exactly one Strategy; there
// is no partial success.
type Strategy interface {
	Authenticate(r *http.Request) (*goSessions.Identity, error)
}

/*
====================================
LOGIN STRATEGY
====================================
*/

// LoginStrategy authenticates a JSON credential body against the engine's
// user provider. It verifies credentials only; the handler behind it calls
// [goSessions.Engine.Authorize] to establish the session.
type LoginStrategy struct {
	Engine *goSessions.Engine
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Authenticate implements [Strategy].
func (s *LoginStrategy) Authenticate(r *http.Request) (*goSessions.Identity, error) {
	if s.Engine == nil {
		return nil, ErrStrategyRejected
	}

	var body loginBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, ErrStrategyRejected
	}
	if body.Email == "" || body.Password == "" {
		return nil, ErrStrategyRejected
	}

	identity, err := s.Engine.ValidateUser(r.Context(), body.Email, body.Password)
	if err != nil {
		return nil, ErrStrategyRejected
	}

	return identity, nil
}

/*
====================================
ACCESS TOKEN STRATEGY
====================================
*/

// AccessTokenStrategy authenticates a bearer access token. Stateless: no
// Redis round trip.
type AccessTokenStrategy struct {
	Engine *goSessions.Engine
}

// Authenticate implements [Strategy].
func (s *AccessTokenStrategy) Authenticate(r *http.Request) (*goSessions.Identity, error) {
	if s.Engine == nil {
		return nil, ErrStrategyRejected
	}

	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return nil, ErrStrategyRejected
	}

	identity, err := s.Engine.ValidateAccess(r.Context(), token)
	if err != nil {
		return nil, ErrStrategyRejected
	}

	return identity, nil
}

/*
====================================
REFRESH STRATEGY
====================================
*/

// RefreshStrategy authenticates the refresh route from the session cookie.
// It resolves the session blob, verifies the stored session token's
// signature and liveness, and confirms the user still exists. Any failure
// after the session resolves tears the session down (record marked Expired)
// before rejecting, so a session that fails refresh once can never be
// replayed.
type RefreshStrategy struct {
	Engine *goSessions.Engine

	// CookieName overrides [DefaultSessionCookie].
	CookieName string
}

// Authenticate implements [Strategy].
func (s *RefreshStrategy) Authenticate(r *http.Request) (*goSessions.Identity, error) {
	if s.Engine == nil {
		return nil, ErrStrategyRejected
	}

	sessionID, ok := s.sessionID(r)
	if !ok {
		return nil, ErrStrategyRejected
	}

	sess, err := s.Engine.Session(r.Context(), sessionID)
	if err != nil {
		return nil, ErrStrategyRejected
	}
	if sess.RefreshToken == "" {
		return nil, ErrStrategyRejected
	}

	claims, err := s.Engine.ParseSessionToken(sess.RefreshToken)
	if err != nil {
		return nil, s.reject(r, sessionID)
	}

	live, err := s.Engine.ValidateSessionToken(r.Context(), sessionID, sess.RefreshToken)
	if err != nil || !live {
		return nil, s.reject(r, sessionID)
	}

	identity, err := s.Engine.UserByID(r.Context(), claims.Subject)
	if err != nil {
		return nil, s.reject(r, sessionID)
	}

	return identity, nil
}

// SessionID exposes the session ID resolution used by Authenticate so
// refresh handlers can feed the same value to [goSessions.Engine.Refresh].
func (s *RefreshStrategy) SessionID(r *http.Request) (string, bool) {
	return s.sessionID(r)
}

func (s *RefreshStrategy) sessionID(r *http.Request) (string, bool) {
	name := s.CookieName
	if name == "" {
		name = DefaultSessionCookie
	}

	cookie, err := r.Cookie(name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func (s *RefreshStrategy) reject(r *http.Request, sessionID string) error {
	// Best effort teardown; the reject dominates any cleanup error. The
	// token was presented on a refresh path, so the record is retired as
	// consumed.
	_ = s.Engine.InvalidateSession(r.Context(), sessionID, goSessions.InvalidateOptions{
		Status:  session.StatusExpired,
		Consume: true,
	})
	return ErrStrategyRejected
}
