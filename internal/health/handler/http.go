package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler reports readiness for Kubernetes, load balancers, and CI.
type Handler struct {
	db *sql.DB
}

// NewHandler returns a health handler that pings db on each check.
func NewHandler(db *sql.DB) *Handler {
	return &Handler{db: db}
}

// Check returns 200 when the database is reachable, 503 otherwise.
func (h *Handler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
