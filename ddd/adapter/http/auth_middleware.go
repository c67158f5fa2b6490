package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"club-notification-service/pkg/auth"
	"club-notification-service/pkg/errno"
	"club-notification-service/pkg/restapi"
)

const identityKey = "identity"

// Authenticator validates a bearer credential.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (*auth.Identity, error)
}

// AuthRequired authenticates the Authorization header, or the token query
// parameter for clients that cannot set headers (EventSource).
func AuthRequired(gate Authenticator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		credential := ctx.GetHeader("Authorization")
		if credential == "" {
			credential = ctx.Query("token")
		}
		identity, err := gate.Authenticate(ctx.Request.Context(), credential)
		if err != nil {
			restapi.Failed(ctx, err)
			return
		}
		ctx.Set(identityKey, identity)
		ctx.Next()
	}
}

func identityFrom(ctx *gin.Context) (*auth.Identity, error) {
	v, ok := ctx.Get(identityKey)
	if !ok {
		return nil, errno.ErrUnauthorized
	}
	identity, ok := v.(*auth.Identity)
	if !ok || identity.UserID == "" {
		return nil, errno.ErrUnauthorized
	}
	return identity, nil
}
