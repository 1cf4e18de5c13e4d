package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/emenuapi/emenu-backend/feed"
	"github.com/emenuapi/emenu-backend/services"
	"github.com/emenuapi/emenu-backend/utils"
	"github.com/gin-gonic/gin"
)

type DishController struct {
	Dishes        *services.DishService
	Media         *services.MediaStore
	Hub           *feed.Hub
	MaxUploadSize int64
}

func NewDishController(dishes *services.DishService, media *services.MediaStore, hub *feed.Hub, maxUpload int64) *DishController {
	return &DishController{Dishes: dishes, Media: media, Hub: hub, MaxUploadSize: maxUpload}
}

// GetAllDishes lists dishes, optionally only those of ?menu=<id>.
func (dc *DishController) GetAllDishes(c *gin.Context) {
	var menuID *uint
	if raw := c.Query("menu"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			errs := services.ValidationErrors{}
			errs.Add("menu", services.CodeInvalid, "Select a valid choice. That choice is not one of the available choices.")
			utils.RespondValidation(c, errs)
			return
		}
		v := uint(id)
		menuID = &v
	}

	dishes, err := dc.Dishes.List(c.Request.Context(), menuID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, toDishResponses(dishes, dc.Media))
}

func (dc *DishController) CreateDish(c *gin.Context) {
	var input services.DishInput
	if !bindJSON(c, &input) {
		return
	}

	dish, err := dc.Dishes.Create(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := toDishResponse(*dish, dc.Media)
	dc.Hub.Publish(feed.EventDishCreated, resp)
	utils.RespondJSON(c, http.StatusCreated, resp)
}

func (dc *DishController) GetDishByID(c *gin.Context) {
	id, ok := pathID(c, "dish_id")
	if !ok {
		return
	}

	dish, err := dc.Dishes.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, toDishResponse(*dish, dc.Media))
}

// UpdateDish serves both PUT (full) and PATCH (partial).
func (dc *DishController) UpdateDish(c *gin.Context) {
	id, ok := pathID(c, "dish_id")
	if !ok {
		return
	}

	var input services.DishInput
	if !bindJSON(c, &input) {
		return
	}

	partial := c.Request.Method == http.MethodPatch
	dish, err := dc.Dishes.Update(c.Request.Context(), id, input, partial)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := toDishResponse(*dish, dc.Media)
	dc.Hub.Publish(feed.EventDishUpdated, resp)
	utils.RespondJSON(c, http.StatusOK, resp)
}

func (dc *DishController) DeleteDish(c *gin.Context) {
	id, ok := pathID(c, "dish_id")
	if !ok {
		return
	}

	dish, err := dc.Dishes.Delete(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	dc.Hub.Publish(feed.EventDishDeleted, gin.H{"id": dish.ID, "menu": dish.MenuID})
	utils.RespondNoContent(c)
}

// UploadPhoto stores the multipart "file" field as the dish image.
func (dc *DishController) UploadPhoto(c *gin.Context) {
	id, ok := pathID(c, "dish_id")
	if !ok {
		return
	}

	if dc.MaxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, dc.MaxUploadSize)
	}

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondDetail(c, http.StatusRequestEntityTooLarge, "Uploaded file is too large.")
			return
		}
		file = nil
	}

	dish, err := dc.Dishes.UploadPhoto(c.Request.Context(), id, file)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := toDishResponse(*dish, dc.Media)
	dc.Hub.Publish(feed.EventDishUpdated, resp)
	utils.RespondJSON(c, http.StatusOK, resp)
}
