package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const statusOK = "ok"

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Status.Get())
}

const portalHTML = `<!doctype html>
<html><head><meta charset="utf-8"><title>Status Board Setup</title></head>
<body>
<h1>Status Board</h1>
<p>Current readings: <a href="/status">/status</a> &middot; live: <a href="/ws">/ws</a></p>
<p>Settings: <a href="/config">/config</a> (POST JSON to save)</p>
<p>Firmware: POST an image to /firmware, or POST /firmware/check to poll the server.</p>
<p>History: <a href="/logs">/logs</a></p>
</body></html>`

func (h *Handler) portalPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(portalHTML))
}
