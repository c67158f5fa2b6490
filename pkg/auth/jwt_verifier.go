package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks a raw token and returns its claims.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// JWTVerifier validates HMAC-signed JWTs.
type JWTVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTVerifier builds a verifier for HS256/384/512 tokens. A non-empty
// issuer is enforced on the iss claim.
func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithLeeway(5 * time.Second),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &JWTVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(opts...),
	}
}

// Verify implements Verifier. Errors are classified into the rejection reasons.
func (v *JWTVerifier) Verify(_ context.Context, token string) (*Claims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, reject(ErrMalformedCredential, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, reject(ErrExpiredCredential, err)
	default:
		return nil, reject(ErrInvalidSignature, err)
	}
}

// Issuer signs session tokens with the same secret the verifier checks.
// It backs the dev token command and the tests.
type Issuer struct {
	secret []byte
	issuer string
}

func NewIssuer(secret, issuer string) *Issuer {
	return &Issuer{secret: []byte(secret), issuer: issuer}
}

// Issue signs a token for userID valid for ttl. A non-positive ttl yields an
// already expired token.
func (i *Issuer) Issue(userID, role, email, tokenID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:  role,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.issuer,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if ttl <= 0 {
		claims.IssuedAt = jwt.NewNumericDate(now.Add(ttl - time.Hour))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// stripBearer accepts both "Bearer <token>" and a bare token.
func stripBearer(credential string) string {
	credential = strings.TrimSpace(credential)
	if len(credential) >= 6 && strings.EqualFold(credential[:6], "bearer") &&
		(len(credential) == 6 || credential[6] == ' ') {
		return strings.TrimSpace(credential[6:])
	}
	return credential
}
