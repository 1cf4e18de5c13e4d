package controllers

import (
	"github.com/emenuapi/emenu-backend/feed"
	"github.com/emenuapi/emenu-backend/middlewares"
	"github.com/emenuapi/emenu-backend/utils"
	"github.com/gin-gonic/gin"
)

type FeedController struct {
	Hub *feed.Hub
}

func NewFeedController(hub *feed.Hub) *FeedController {
	return &FeedController{Hub: hub}
}

// MenuFeed upgrades to a websocket that receives menu and dish change events.
func (fc *FeedController) MenuFeed(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		c.AbortWithStatus(401)
		return
	}

	if err := fc.Hub.Serve(c.Writer, c.Request, user.ID); err != nil {
		utils.ErrorLogger.WithError(err).Warn("Websocket upgrade failed")
	}
}
