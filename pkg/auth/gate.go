package auth

import (
	"context"
	"errors"

	"club-notification-service/pkg/errno"
)

// RevocationChecker reports whether a token id was revoked before expiry.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Gate authenticates a connection once, at handshake time. It never registers
// anything; callers register the connection after a successful result.
type Gate struct {
	verifier    Verifier
	revocations RevocationChecker
}

type GateOption func(*Gate)

// WithRevocations enables the revocation check for tokens carrying a jti.
func WithRevocations(rc RevocationChecker) GateOption {
	return func(g *Gate) { g.revocations = rc }
}

func NewGate(v Verifier, opts ...GateOption) *Gate {
	g := &Gate{verifier: v}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authenticate validates credential and extracts the caller identity. All
// failures match errno.ErrAuth.
func (g *Gate) Authenticate(ctx context.Context, credential string) (*Identity, error) {
	token := stripBearer(credential)
	if token == "" {
		return nil, reject(ErrMissingCredential, nil)
	}

	claims, err := g.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, errno.ErrAuth) {
			return nil, err
		}
		return nil, reject(ErrInvalidSignature, err)
	}

	userID := claims.UserIdentifier()
	if userID == "" {
		return nil, reject(ErrMissingSubject, nil)
	}

	if g.revocations != nil && claims.RegisteredClaims.ID != "" {
		revoked, err := g.revocations.IsRevoked(ctx, claims.RegisteredClaims.ID)
		if err != nil {
			// fail closed
			return nil, reject(ErrRevokedCredential, err)
		}
		if revoked {
			return nil, reject(ErrRevokedCredential, nil)
		}
	}

	id := &Identity{
		UserID:  userID,
		Role:    claims.Role,
		Email:   claims.Email,
		TokenID: claims.RegisteredClaims.ID,
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}
