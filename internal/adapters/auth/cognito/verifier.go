// Package cognito verifies AWS Cognito access and id tokens against the user
// pool's JWKS endpoint.
package cognito

import (
	"context"
	"fmt"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"rasd-api/internal/ports/auth"
)

// Verifier validates JWTs issued by a Cognito user pool. The JWKS is fetched
// from the pool's well-known endpoint and refreshed in the background.
type Verifier struct {
	keys   keyfunc.Keyfunc
	issuer string
}

// New builds a Verifier for the given user pool. issuer is the pool's issuer
// URL, e.g. https://cognito-idp.<region>.amazonaws.com/<pool-id>.
func New(ctx context.Context, issuer string) (*Verifier, error) {
	issuer = strings.TrimRight(strings.TrimSpace(issuer), "/")
	if issuer == "" {
		return nil, fmt.Errorf("cognito: issuer is required")
	}

	keys, err := keyfunc.NewDefaultCtx(ctx, []string{issuer + "/.well-known/jwks.json"})
	if err != nil {
		return nil, fmt.Errorf("cognito: loading jwks: %w", err)
	}

	return &Verifier{keys: keys, issuer: issuer}, nil
}

// tokenClaims is the Cognito claim layout this service relies on.
type tokenClaims struct {
	jwt.RegisteredClaims

	Email          string   `json:"email"`
	GivenName      string   `json:"given_name"`
	FamilyName     string   `json:"family_name"`
	OrganisationID string   `json:"custom:organisation_id"`
	Groups         []string `json:"cognito:groups"`
}

func (v *Verifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, v.keys.Keyfunc,
		jwt.WithIssuer(v.issuer),
		jwt.WithValidMethods([]string{"RS256"}),
	)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("cognito: parsing token: %w", err)
	}
	if !parsed.Valid {
		return auth.Claims{}, fmt.Errorf("cognito: invalid token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("cognito: token subject is not a uuid: %w", err)
	}

	out := auth.Claims{
		UserID:     userID,
		Email:      claims.Email,
		GivenName:  claims.GivenName,
		FamilyName: claims.FamilyName,
	}
	if raw := strings.TrimSpace(claims.OrganisationID); raw != "" {
		orgID, err := uuid.Parse(raw)
		if err != nil {
			return auth.Claims{}, fmt.Errorf("cognito: organisation claim is not a uuid: %w", err)
		}
		out.OrganisationID = orgID
	}
	for _, raw := range claims.Groups {
		if g := auth.ParseGroup(raw); g != "" {
			out.Groups = append(out.Groups, g)
		}
	}
	return out, nil
}
