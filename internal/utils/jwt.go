package utils // package utils provides helpers for issuing bearer tokens

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/location-checkin/internal/model"
)

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for id.  The token carries
// sub, email, name, a space separated scope, exp and iat; it is what
// middleware.JWTAuth expects.  Production tokens come from the identity
// provider; this is used for local development and tests.
func NewAccessToken(secret string, id model.Identity, scopes []string, ttl time.Duration) (AccessToken, error) {
	if secret == "" {
		return AccessToken{}, errors.New("empty signing secret")
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":   id.ID,
		"email": id.Email,
		"name":  id.Name,
		"scope": strings.Join(scopes, " "),
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
