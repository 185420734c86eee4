package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"room-booking/policy"
	"room-booking/services"
	"room-booking/utils"
)

const actorKey = "actor"

// TokenResolver maps a bearer token to its actor.
type TokenResolver interface {
	Resolve(ctx context.Context, key string) (policy.Actor, error)
}

// Authenticate resolves the Authorization header ("Bearer <key>" or
// "Token <key>") into an actor. Requests without the header continue as
// anonymous; a header that does not resolve is rejected with 401.
func Authenticate(r TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Set(actorKey, policy.Anonymous)
			c.Next()
			return
		}

		scheme, key, ok := strings.Cut(header, " ")
		key = strings.TrimSpace(key)
		if !ok || key == "" || !(strings.EqualFold(scheme, "Bearer") || strings.EqualFold(scheme, "Token")) {
			unauthorized(c, "malformed authorization header")
			return
		}

		actor, err := r.Resolve(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, services.ErrUnauthenticated) {
				unauthorized(c, "invalid token")
				return
			}
			_ = c.Error(err)
			utils.AbortJSONError(c, http.StatusInternalServerError, "internal", "internal server error")
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ActorFrom(c).IsAuthenticated() {
			unauthorized(c, services.ErrUnauthenticated.Error())
			return
		}
		c.Next()
	}
}

// ActorFrom returns the actor set by Authenticate, or the anonymous actor.
func ActorFrom(c *gin.Context) policy.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(policy.Actor); ok {
			return a
		}
	}
	return policy.Anonymous
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	utils.AbortJSONError(c, http.StatusUnauthorized, "unauthenticated", msg)
}
