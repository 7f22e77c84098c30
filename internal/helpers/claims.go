package helpers

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// AuthUser is the signed-in user as stored on the gin context.
type AuthUser struct {
	*CustomClaims
	UserID uuid.UUID `json:"id"`
	Email  string    `json:"email,omitempty"`
	Name   string    `json:"name,omitempty"`
}

func NewAuthUser(claims *CustomClaims) (*AuthUser, error) {
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "invalid subject %q", claims.Subject), ErrInvalidToken)
	}
	return &AuthUser{
		CustomClaims: claims,
		UserID:       id,
		Email:        claims.Email,
		Name:         displayName(claims.UserMetadata),
	}, nil
}

// displayName reads the name Google puts in the user metadata.
func displayName(meta map[string]interface{}) string {
	for _, key := range []string{"full_name", "name"} {
		if v, ok := meta[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func (u *AuthUser) Provider() string {
	if u.CustomClaims == nil {
		return ""
	}
	return u.AppMetadata.Provider
}
