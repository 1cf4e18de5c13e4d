package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/emenuapi/emenu-backend/models"
	"github.com/emenuapi/emenu-backend/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Context keys set by the auth middlewares.
const (
	ContextUser   = "user"
	ContextUserID = "user_id"
	ContextToken  = "token"
	ContextClaims = "claims"
)

const (
	msgNotAuthenticated = "Authentication credentials were not provided."
	msgInvalidToken     = "Invalid token."
	msgUserInactive     = "User inactive or deleted."
)

// bearerToken extracts the token from "Authorization: Bearer <token>".
// ok is false when the header is present but malformed.
func bearerToken(c *gin.Context) (token string, present bool, ok bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return "", false, true
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", true, false
	}
	return parts[1], true, true
}

// loadUser validates token and returns the active user it was issued for.
func loadUser(db *gorm.DB, token string) (*models.User, *utils.CustomClaims, string) {
	claims, err := utils.ValidateToken(token)
	if err != nil || claims.UserID == 0 {
		return nil, nil, msgInvalidToken
	}

	var user models.User
	if err := db.First(&user, claims.UserID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.ErrorLogger.WithError(err).Error("Failed to load authenticated user")
		}
		return nil, nil, msgUserInactive
	}
	if !user.IsActive {
		return nil, nil, msgUserInactive
	}
	return &user, claims, ""
}

func setUser(c *gin.Context, user *models.User, claims *utils.CustomClaims, token string) {
	c.Set(ContextUser, user)
	c.Set(ContextUserID, user.ID)
	c.Set(ContextClaims, claims)
	c.Set(ContextToken, token)
}

// AuthMiddleware identifies the caller from a bearer token. Requests without
// an Authorization header continue anonymously; a bad token is rejected.
func AuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present, ok := bearerToken(c)
		if !present {
			c.Next()
			return
		}
		if !ok {
			utils.RespondDetail(c, http.StatusUnauthorized, msgInvalidToken)
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

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.Header("WWW-Authenticate", `Bearer realm="api"`)
			utils.RespondDetail(c, http.StatusUnauthorized, msgNotAuthenticated)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(ContextUser)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// CurrentClaims returns the claims of the presented token.
func CurrentClaims(c *gin.Context) (*utils.CustomClaims, string, bool) {
	v, exists := c.Get(ContextClaims)
	if !exists {
		return nil, "", false
	}
	claims, ok := v.(*utils.CustomClaims)
	return claims, c.GetString(ContextToken), ok
}
