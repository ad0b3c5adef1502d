package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NewRouter exposes the same inbound-event endpoint over plain HTTP for
// local runs. Static photos are served from staticDir under staticPrefix
// when both are set.
func NewRouter(h *Handler, staticPrefix, staticDir string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/inbound", func(c *gin.Context) {
		corrID := c.GetHeader(correlationHeader)
		if corrID == "" {
			corrID = uuid.NewString()
		}
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "INVALID_INPUT", Reason: "unreadable_body"})
			return
		}
		status, body := h.process(c.Request.Context(), corrID, raw)
		c.Header(correlationHeader, corrID)
		c.Data(status, "application/json", body)
	})
	if staticPrefix != "" && staticDir != "" {
		r.Static(staticPrefix, staticDir)
	}
	return r
}
