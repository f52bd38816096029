package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/payoutpilot/mentorchat/internal/api/handler/v1/response"
	"github.com/payoutpilot/mentorchat/internal/pkg/idtoken"
)

// Context keys populated after successful verification.
const (
	ContextKeyUID      = "uid"
	ContextKeyEmail    = "email"
	ContextKeyUserName = "user_name"
)

var errMissingToken = errors.New("missing bearer token")

type Authenticator struct {
	verifier idtoken.Verifier
}

func NewAuthenticator(verifier idtoken.Verifier) *Authenticator {
	return &Authenticator{
		verifier: verifier,
	}
}

// VerifyIDToken authenticates the request against the identity provider.
// The token comes from the Authorization header, or from the "token" query
// parameter for WebSocket clients that cannot set headers.
func (a *Authenticator) VerifyIDToken() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raw := extractToken(ctx)
		if raw == "" {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			ctx.Abort()

			return
		}

		identity, err := a.verifier.Verify(ctx.Request.Context(), raw)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(err))
			ctx.Abort()

			return
		}

		ctx.Set(ContextKeyUID, identity.Subject)
		ctx.Set(ContextKeyEmail, identity.Email)
		ctx.Set(ContextKeyUserName, identity.Name)

		ctx.Next()
	}
}

func extractToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	return ctx.Query("token")
}
