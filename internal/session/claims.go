package session

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Dton04/hoterier-cli/internal/models"
)

// IdentityFromToken recovers user id and role from the bearer token's claims.
// The client has no signing secret; verification is the server's job, so the
// token is parsed unverified purely for display and filtering purposes.
func IdentityFromToken(token string) (models.Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return models.Identity{}, fmt.Errorf("parsing bearer token: %w", err)
	}

	identity := models.Identity{Token: token, Role: models.RoleUser}
	for _, key := range []string{"userID", "userId", "sub", "id"} {
		if v, ok := claims[key].(string); ok && v != "" {
			identity.UserID = v
			break
		}
	}
	if v, ok := claims["role"].(string); ok && v != "" {
		identity.Role = models.Role(v)
	}
	if identity.UserID == "" {
		return models.Identity{}, fmt.Errorf("bearer token carries no user id claim")
	}
	return identity, nil
}
