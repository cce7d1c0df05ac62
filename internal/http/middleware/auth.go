package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/docpoint/platform/internal/identity"
)

// ActorClaims are the JWT claims issued by the upstream auth service. The
// core only consumes them; issuance lives elsewhere.
type ActorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// RequireAuth enforces an HMAC-signed bearer token and resolves the verified
// actor into the request context.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "auth disabled", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := ActorClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			actor := identity.Actor{
				Role:      identity.Role(claims.Role),
				SubjectID: claims.Subject,
			}
			if !actor.Role.Valid() || actor.SubjectID == "" {
				http.Error(w, "invalid token claims", http.StatusUnauthorized)
				return
			}

			ctx := identity.WithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose actor does not carry one of the given
// roles. Must run after RequireAuth.
func RequireRole(roles ...identity.Role) func(http.Handler) http.Handler {
	allowed := make(map[identity.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := identity.ActorFromContext(r.Context())
			if !ok {
				http.Error(w, "missing actor", http.StatusUnauthorized)
				return
			}
			if _, ok := allowed[actor.Role]; !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
