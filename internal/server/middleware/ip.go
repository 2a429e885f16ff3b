package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

type clientIPKey struct{}

// ClientIPIntoContext copies gin's resolved client IP into the request
// context so code below the handler layer (e.g. the audit logger) can read
// it without a gin dependency.
func ClientIPIntoContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithValue(c.Request.Context(), clientIPKey{}, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ClientIPFrom returns the client IP stored by ClientIPIntoContext, or "".
func ClientIPFrom(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
