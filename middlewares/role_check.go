package middlewares

import (
	"net/http"

	"github.com/emenuapi/emenu-backend/utils"
	"github.com/gin-gonic/gin"
)

// RequireStaff lets only staff users through.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			utils.RespondDetail(c, http.StatusUnauthorized, msgNotAuthenticated)
			c.Abort()
			return
		}

		if !user.IsStaff {
			utils.RespondDetail(c, http.StatusForbidden, "You do not have permission to perform this action.")
			c.Abort()
			return
		}

		c.Next()
	}
}
