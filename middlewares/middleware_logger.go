package middlewares

import (
	"time"

	"github.com/emenuapi/emenu-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		entry := utils.InfoLogger.WithFields(logrus.Fields{
			"client_ip": c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}
		entry.Printf("%s | %3d | %13v | %s", c.Request.Method, status, latency, path)
	}
}

// UploadLoggerMiddleware logs the outcome of photo uploads.
func UploadLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		dishID := c.Param("dish_id")
		utils.InfoLogger.Printf("Receiving photo for dish ID: %s", dishID)

		c.Next()

		if c.Writer.Status() == 200 {
			utils.InfoLogger.Printf("Photo stored for dish ID: %s", dishID)
		} else {
			utils.ErrorLogger.Warnf("Failed to store photo for dish ID: %s (status %d)", dishID, c.Writer.Status())
		}
	}
}
