package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const adminRealm = `Basic realm="statusboard", charset="UTF-8"`

// adminRequired guards mutating endpoints with HTTP Basic auth against the
// configured bcrypt hash. With no hash configured the check is skipped: on
// the device's own setup access point there is nobody to authenticate.
func (h *Handler) adminRequired(c *gin.Context) {
	if h.adminHash == "" {
		c.Next()
		return
	}

	_, password, ok := c.Request.BasicAuth()
	if !ok {
		c.Header("WWW-Authenticate", adminRealm)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "authentication required",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.adminHash), []byte(password)); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid credentials",
		})
		return
	}
	c.Next()
}
