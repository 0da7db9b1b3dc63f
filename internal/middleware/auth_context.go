package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"rasd-api/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// AuthContext:
// - With a verifier and a Bearer token, attempts Verify() and stores claims.
// - Without a verifier (dev mode) the X-Debug-* headers stand in for a token.
// - Requests without claims continue unchanged; handlers decide whether to
//   require authentication.
func AuthContext(verifier auth.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				if claims, ok := debugClaims(r); ok {
					next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				// Not a hard stop; the handler returns 401 if it needs auth.
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

func withClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// debugClaims builds claims from request headers for local development:
// X-Debug-User-ID, X-Debug-Email, X-Debug-Org-ID, X-Debug-Groups (CSV),
// X-Debug-Given-Name, X-Debug-Family-Name.
func debugClaims(r *http.Request) (auth.Claims, bool) {
	rawID := strings.TrimSpace(r.Header.Get("X-Debug-User-ID"))
	if rawID == "" {
		return auth.Claims{}, false
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return auth.Claims{}, false
	}

	claims := auth.Claims{
		UserID:     userID,
		Email:      strings.TrimSpace(r.Header.Get("X-Debug-Email")),
		GivenName:  strings.TrimSpace(r.Header.Get("X-Debug-Given-Name")),
		FamilyName: strings.TrimSpace(r.Header.Get("X-Debug-Family-Name")),
	}
	if rawOrg := strings.TrimSpace(r.Header.Get("X-Debug-Org-ID")); rawOrg != "" {
		if orgID, err := uuid.Parse(rawOrg); err == nil {
			claims.OrganisationID = orgID
		}
	}
	for _, part := range strings.Split(r.Header.Get("X-Debug-Groups"), ",") {
		if g := auth.ParseGroup(strings.TrimSpace(part)); g != "" {
			claims.Groups = append(claims.Groups, g)
		}
	}
	return claims, true
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
