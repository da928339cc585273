// internal/middleware/jwt.go
package middleware

import (
	"errors"
	"fmt"
	"time"
	"vidshare/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token lifetime is fixed; there is no refresh flow.
const tokenExpiration = 3 * time.Hour

// Identity is the authenticated caller as carried by a token.
type Identity struct {
	UserID   uuid.UUID
	Username string
}

// TokenService issues and verifies HS256 bearer tokens.
type TokenService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenService(secret, issuer string) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// Issue signs a token for the identity.
func (ts *TokenService) Issue(identity Identity) (string, error) {
	if identity.UserID == uuid.Nil {
		return "", utils.NewInvalidInputError("cannot issue a token without a user id")
	}

	now := ts.now()
	claims := jwt.MapClaims{
		"userId":   identity.UserID.String(),
		"username": identity.Username,
		"sub":      identity.UserID.String(),
		"iat":      jwt.NewNumericDate(now),
		"exp":      jwt.NewNumericDate(now.Add(tokenExpiration)),
	}
	if ts.issuer != "" {
		claims["iss"] = ts.issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, expiry and, when configured, the
// issuer, then resolves the user id. Every failure is reported as
// utils.ErrInvalidToken.
func (ts *TokenService) Verify(tokenString string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ts.issuer))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return ts.secret, nil
		},
		opts...,
	)
	if err != nil {
		return Identity{}, utils.NewAppError(utils.ErrInvalidToken, "Invalid or expired token", err)
	}

	userID, err := userIDFromClaims(claims)
	if err != nil {
		return Identity{}, utils.NewAppError(utils.ErrInvalidToken, "Invalid or expired token", err)
	}

	username, _ := claims["username"].(string)
	return Identity{UserID: userID, Username: username}, nil
}

// userIDFromClaims accepts the id under userId, id or _id, in that order.
// Older tokens used the latter two keys.
func userIDFromClaims(claims jwt.MapClaims) (uuid.UUID, error) {
	for _, key := range []string{"userId", "id", "_id"} {
		raw, ok := claims[key].(string)
		if !ok || raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, fmt.Errorf("malformed %s claim: %w", key, err)
		}
		return id, nil
	}
	return uuid.Nil, errors.New("token carries no user id")
}
