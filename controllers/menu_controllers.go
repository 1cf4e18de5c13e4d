package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/emenuapi/emenu-backend/feed"
	"github.com/emenuapi/emenu-backend/middlewares"
	"github.com/emenuapi/emenu-backend/services"
	"github.com/emenuapi/emenu-backend/utils"
	"github.com/gin-gonic/gin"
)

type MenuController struct {
	Menus    *services.MenuService
	Media    *services.MediaStore
	Hub      *feed.Hub
	Location *time.Location
}

func NewMenuController(menus *services.MenuService, media *services.MediaStore, hub *feed.Hub, loc *time.Location) *MenuController {
	if loc == nil {
		loc = time.UTC
	}
	return &MenuController{Menus: menus, Media: media, Hub: hub, Location: loc}
}

// anonymous visitors only see menus that have at least one dish
func onlyNonEmpty(c *gin.Context) bool {
	_, ok := middlewares.CurrentUser(c)
	return !ok
}

// GetAllMenus lists menus honouring ordering, search and date filters.
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	filter, err := services.ParseMenuFilter(c.Request.URL.Query(), mc.Location)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	filter.OnlyWithDishes = onlyNonEmpty(c)

	menus, err := mc.Menus.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]MenuResponse, 0, len(menus))
	for _, m := range menus {
		out = append(out, toMenuResponse(m))
	}
	utils.RespondJSON(c, http.StatusOK, out)
}

func (mc *MenuController) CreateMenu(c *gin.Context) {
	var input services.MenuInput
	if !bindJSON(c, &input) {
		return
	}

	menu, err := mc.Menus.Create(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := toMenuResponse(*menu)
	mc.Hub.Publish(feed.EventMenuCreated, resp)
	utils.RespondJSON(c, http.StatusCreated, resp)
}

func (mc *MenuController) GetMenuByID(c *gin.Context) {
	id, ok := pathID(c, "menu_id")
	if !ok {
		return
	}

	menu, err := mc.Menus.Get(c.Request.Context(), id, onlyNonEmpty(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, toMenuDetailResponse(*menu, mc.Media))
}

// GetMenuPDF renders the menu card as a PDF download.
func (mc *MenuController) GetMenuPDF(c *gin.Context) {
	id, ok := pathID(c, "menu_id")
	if !ok {
		return
	}

	menu, err := mc.Menus.Get(c.Request.Context(), id, onlyNonEmpty(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := services.RenderMenuPDF(&buf, menu); err != nil {
		respondServiceError(c, fmt.Errorf("render menu pdf: %w", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="menu-%d.pdf"`, menu.ID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// UpdateMenu serves both PUT (full) and PATCH (partial).
func (mc *MenuController) UpdateMenu(c *gin.Context) {
	id, ok := pathID(c, "menu_id")
	if !ok {
		return
	}

	var input services.MenuInput
	if !bindJSON(c, &input) {
		return
	}

	partial := c.Request.Method == http.MethodPatch
	menu, err := mc.Menus.Update(c.Request.Context(), id, input, partial)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	mc.Hub.Publish(feed.EventMenuUpdated, toMenuResponse(*menu))
	utils.RespondJSON(c, http.StatusOK, toMenuDetailResponse(*menu, mc.Media))
}

func (mc *MenuController) DeleteMenu(c *gin.Context) {
	id, ok := pathID(c, "menu_id")
	if !ok {
		return
	}

	menu, err := mc.Menus.Delete(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	mc.Hub.Publish(feed.EventMenuDeleted, gin.H{"id": menu.ID})
	utils.RespondNoContent(c)
}
