package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
)

// actorIDKey is the key used to store the acting identity in the Gin context.
const actorIDKey = contextKey("actorID")

// actorHeader names the header callers use to identify themselves. There is
// no session management here; upstream layers own authentication and forward
// the identity for the audit trail.
const actorHeader = "X-Actor-ID"

// ActorMiddleware stores the caller identity from the X-Actor-ID header in
// the context, defaulting to the system actor when absent.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := c.GetHeader(actorHeader)
		if actorID == "" {
			actorID = domain.SystemActor
		}
		c.Set(string(actorIDKey), actorID)
		c.Next()
	}
}

// GetActorIDFromContext retrieves the acting identity from the Gin context.
func GetActorIDFromContext(c *gin.Context) string {
	actorIDVal, exists := c.Get(string(actorIDKey))
	if !exists {
		return domain.SystemActor
	}
	actorID, ok := actorIDVal.(string)
	if !ok || actorID == "" {
		return domain.SystemActor
	}
	return actorID
}
