package middleware

import (
	"context"
	"net/http"
	"strings"

	goSessions "github.com/MrEthical07/goSessions"
)

type identityContextKey struct{}

func IdentityFromContext(ctx context.Context) (*goSessions.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*goSessions.Identity)
	return id, ok
}

// Guard wraps a handler with a [Strategy]. A rejected request is answered
// with 401 and never reaches the handler; an authenticated one carries its
// [goSessions.Identity] in the request context.
func Guard(strategy Strategy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strategy == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := strategy.Authenticate(r)
			if err != nil || identity == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAccessToken guards a route with an [AccessTokenStrategy].
func RequireAccessToken(engine *goSessions.Engine) func(http.Handler) http.Handler {
	return Guard(&AccessTokenStrategy{Engine: engine})
}

// RequireRefreshSession guards a route with a [RefreshStrategy] using the
// default session cookie.
func RequireRefreshSession(engine *goSessions.Engine) func(http.Handler) http.Handler {
	return Guard(&RefreshStrategy{Engine: engine})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
