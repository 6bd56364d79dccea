package api

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload of the session token issued by the identity
// service.
type SessionClaims struct {
	UserID   uint   `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SessionVerifier checks HS256 session tokens against a shared secret.
type SessionVerifier struct {
	secret []byte
}

func NewSessionVerifier(secret string) *SessionVerifier {
	return &SessionVerifier{secret: []byte(secret)}
}

func (v *SessionVerifier) keyFunc(*jwt.Token) (interface{}, error) {
	return v.secret, nil
}

// Parse validates token and returns its claims. Expired tokens and tokens
// without a user id are rejected.
func (v *SessionVerifier) Parse(token string) (*SessionClaims, error) {
	var claims SessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, v.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, errors.New("token has no user id")
	}
	return &claims, nil
}
