package middlewares

import (
	"net/http"

	"github.com/emenuapi/emenu-backend/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// WebSocketAuthMiddleware authenticates websocket upgrades, which cannot carry
// headers from browsers, through the ?token= query parameter.
func WebSocketAuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			utils.RespondDetail(c, http.StatusUnauthorized, msgNotAuthenticated)
			c.Abort()
			return
		}

		user, claims, problem := loadUser(db, token)
		if problem != "" {
			utils.RespondDetail(c, http.StatusUnauthorized, problem)
			c.Abort()
			return
		}

		setUser(c, user, claims, token)
		c.Next()
	}
}
