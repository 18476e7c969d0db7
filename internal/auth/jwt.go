package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims is the access token payload: user id, session public id, expiry,
// per §4.F ("The access token is a signed bearer whose payload includes
// user-id, session public id, expiry").
type Claims struct {
	UserID    uint64 `json:"userId"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and parses access tokens with a single HMAC secret.
// The teacher's JWTClaim/TokenDetails pair is generalized here to carry the
// session public id instead of a separate access/refresh uuid pair, since
// sessions already carry their own expiry and revocation state.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

func (i *TokenIssuer) Issue(userID uint64, sessionPublicID string, expiresAt time.Time) (string, error) {
	claims := Claims{
		UserID:    userID,
		SessionID: sessionPublicID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Parse validates signature and expiry and returns the claims. Callers must
// additionally check the referenced session is non-revoked (revocation is
// not encoded in the token itself).
func (i *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
