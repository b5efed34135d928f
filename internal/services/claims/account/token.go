package account

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/reimburse/internal/platform/errors"
)

// tokenIssuer is the iss claim of every session token.
const tokenIssuer = "reimburse"

// minSecretLength is the shortest accepted HS256 signing secret.
const minSecretLength = 32

// TokenClaims captures validated session token claims.
type TokenClaims struct {
	UserID    string
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// sessionClaims is the internal claims type used for JWT parsing.
type sessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// Tokens signs and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

// NewTokens returns a signer for secret.
func NewTokens(secret []byte, now func() time.Time) (*Tokens, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d bytes", minSecretLength)
	}
	if now == nil {
		now = time.Now
	}
	return &Tokens{secret: append([]byte(nil), secret...), now: now}, nil
}

// Issue signs a token naming the user and session.
func (t *Tokens) Issue(userID, sessionID string, expiresAt time.Time) (string, error) {
	now := t.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt.UTC()),
		},
		SessionID: sessionID,
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, issuer and expiry of token and returns its
// claims. Every failure is a CodeUnauthenticated or CodeSessionExpired error.
func (t *Tokens) Verify(token string) (TokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return TokenClaims{}, apperrors.New(apperrors.CodeUnauthenticated, "session token is required")
	}

	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return TokenClaims{}, mapJWTError(err)
	}
	if strings.TrimSpace(parsed.Subject) == "" || strings.TrimSpace(parsed.SessionID) == "" {
		return TokenClaims{}, apperrors.New(apperrors.CodeUnauthenticated, "session token is missing sub or sid")
	}

	claims := TokenClaims{
		UserID:    parsed.Subject,
		SessionID: parsed.SessionID,
		ExpiresAt: parsed.ExpiresAt.Time.UTC(),
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return apperrors.Wrap(apperrors.CodeSessionExpired, "session has expired", err)
	}
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "session token signature is invalid", err)
	}
	if errors.Is(err, jwt.ErrTokenMalformed) {
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "session token is malformed", err)
	}
	return apperrors.Wrap(apperrors.CodeUnauthenticated, "session token is invalid", err)
}
