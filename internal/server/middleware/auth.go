package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	actorrepo "food-rescue-platform/backend/internal/actor/repository"
	"food-rescue-platform/backend/internal/security"
	sessionrepo "food-rescue-platform/backend/internal/session/repository"
)

// RequireAuth verifies the bearer token, checks that its session is still
// active and untombstoned, and attaches the caller's identity. A stored
// legacy raw token that matches is upgraded to its hash on the way through.
func RequireAuth(tokens *security.TokenProvider, sessions sessionrepo.Repository, actors actorrepo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token JWT mancante"})
			return
		}
		claims, err := tokens.ValidateAccess(raw)
		if err != nil {
			if errors.Is(err, security.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token JWT scaduto"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token JWT non valido"})
			return
		}
		ctx := c.Request.Context()
		hash := security.HashToken(raw)
		sess, err := sessions.FindActiveByAccessValue(ctx, hash, raw, claims.ID)
		if err != nil {
			log.Printf("auth middleware: session lookup: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Errore interno del server"})
			return
		}
		if sess == nil || sess.ActorID != claims.ActorID() {
			// A session row bound to a different subject than the verified
			// claims never authenticates.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token JWT non valido o revocato"})
			return
		}
		if sess.AccessTokenHash == raw {
			// Legacy row stored the raw token; rewrite it to the hash.
			if err := sessions.UpgradeAccessHash(ctx, sess.ID, hash); err != nil {
				log.Printf("auth middleware: hash upgrade for session %s: %v", sess.ID, err)
			}
		}
		actor, err := actors.GetByID(ctx, sess.ActorID)
		if err != nil {
			log.Printf("auth middleware: actor lookup: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Errore interno del server"})
			return
		}
		if actor == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token JWT non valido o revocato"})
			return
		}
		SetIdentity(c, &Identity{
			ActorID:   actor.ID,
			Email:     actor.Email,
			Name:      actor.Name,
			Surname:   actor.Surname,
			Role:      actor.Role,
			UserType:  claims.UserType,
			SessionID: sess.ID,
		}, raw)
		c.Next()
	}
}

// RequireRole allows only callers whose role is in the given set. Must run
// after RequireAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token JWT mancante"})
			return
		}
		for _, r := range roles {
			if ident.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Accesso non autorizzato"})
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
