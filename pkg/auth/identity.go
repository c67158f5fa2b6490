package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"club-notification-service/pkg/errno"
)

// Identity is the result of a successful handshake.
type Identity struct {
	UserID    string
	Role      string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// Claims is the signed payload of a session token. The user identifier may be
// carried by sub, userId or id; the first non-empty one wins.
type Claims struct {
	UserID string `json:"userId,omitempty"`
	ID     string `json:"id,omitempty"`
	Role   string `json:"role,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserIdentifier resolves the user identifier of the claims.
func (c *Claims) UserIdentifier() string {
	for _, v := range []string{c.RegisteredClaims.Subject, c.UserID, c.ID} {
		if v != "" {
			return v
		}
	}
	return ""
}

// Rejection reasons. Every error returned by Gate.Authenticate matches
// errno.ErrAuth and exactly one of these.
var (
	ErrMissingCredential   = errors.New("credential missing")
	ErrMalformedCredential = errors.New("credential malformed")
	ErrExpiredCredential   = errors.New("credential expired")
	ErrInvalidSignature    = errors.New("credential signature or issuer invalid")
	ErrMissingSubject      = errors.New("credential carries no user id")
	ErrRevokedCredential   = errors.New("credential revoked")
)

func reject(reason error, cause error) error {
	if cause == nil {
		cause = reason
	} else {
		cause = errors.Join(reason, cause)
	}
	return errno.NewSimpleBizError(errno.ErrAuth, cause, reason.Error())
}
