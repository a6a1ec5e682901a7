package mw

import (
	"github.com/gin-gonic/gin"

	"ac-maintenance-backend/internal/workflow"
)

// Identity headers set by the fronting gateway. Authentication itself is
// out of scope here; the workflow still enforces role preconditions on
// whatever identity arrives.
const (
	HeaderActorNIK  = "X-Actor-Nik"
	HeaderActorName = "X-Actor-Name"
	HeaderActorRole = "X-Actor-Role"
)

const actorKey = "actor"

// Actor extracts the acting identity from the request headers and stores
// it on the context.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(actorKey, workflow.Actor{
			NIK:  c.GetHeader(HeaderActorNIK),
			Name: c.GetHeader(HeaderActorName),
			Role: workflow.Role(c.GetHeader(HeaderActorRole)),
		})
		c.Next()
	}
}

// ActorFrom returns the actor attached to the request.
func ActorFrom(c *gin.Context) workflow.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(workflow.Actor); ok {
			return a
		}
	}
	return workflow.Actor{}
}
