package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/inkpress/apiserver/internal/policy"
	"github.com/inkpress/apiserver/internal/services"
	"github.com/inkpress/apiserver/internal/store"
	"github.com/inkpress/apiserver/internal/token"
)

// Authenticate resolves the bearer credential on every request and
// stores the identity in the request context. The policy is
// deliberately asymmetric: a missing header is anonymous, a forged or
// malformed token hard-fails with 401, and an expired token degrades
// to anonymous so endpoints that tolerate guests stay reachable.
func Authenticate(users *services.UserService, tokens *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.TrimSpace(r.Header.Get("Authorization")) == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw, err := bearerToken(r)
			if err != nil {
				writeFailure(w, http.StatusUnauthorized, "Invalid authorization header.")
				return
			}

			claims, err := tokens.Verify(r.Context(), raw, token.UseAccess)
			if err != nil {
				if errors.Is(err, token.ErrTokenExpired) {
					next.ServeHTTP(w, r)
					return
				}
				writeFailure(w, http.StatusUnauthorized, "Invalid token.")
				return
			}

			user, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeFailure(w, http.StatusUnauthorized, "Token contained no recognizable user identification.")
					return
				}
				writeFailure(w, http.StatusInternalServerError, "A server error occurred.")
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), &user)))
		})
	}
}

// Require gates a route on a policy predicate, translating denials to
// 401 (no usable credential) or 403 (credential lacks the role).
func Require(p policy.Predicate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := p(identityFromContext(r.Context()))
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, policy.ErrUnauthorized):
				writeFailure(w, http.StatusUnauthorized, "Authentication required.")
			default:
				writeFailure(w, http.StatusForbidden, "Permission denied.")
			}
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return "", errors.New("invalid authorization")
	}
	return tokenString, nil
}
