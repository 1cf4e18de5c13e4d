package controllers

import (
	"time"

	"github.com/emenuapi/emenu-backend/models"
	"github.com/emenuapi/emenu-backend/services"
)

type DishResponse struct {
	ID            uint       `json:"id"`
	Menu          uint       `json:"menu"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Price         string     `json:"price"`
	TimeToPrepare uint       `json:"time_to_prepare"`
	IsVegetarian  bool       `json:"is_vegetarian"`
	Image         *string    `json:"image"`
	Created       time.Time  `json:"created"`
	Updated       *time.Time `json:"updated"`
}

type MenuResponse struct {
	ID          uint       `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	NumDishes   int64      `json:"num_dishes"`
	Created     time.Time  `json:"created"`
	Updated     *time.Time `json:"updated"`
}

type MenuDetailResponse struct {
	MenuResponse
	Dishes []DishResponse `json:"dishes"`
}

type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
	IsStaff  bool   `json:"is_staff"`
}

func toDishResponse(d models.Dish, media *services.MediaStore) DishResponse {
	resp := DishResponse{
		ID:            d.ID,
		Menu:          d.MenuID,
		Name:          d.Name,
		Description:   d.Description,
		Price:         d.Price.StringFixed(2),
		TimeToPrepare: d.TimeToPrepare,
		IsVegetarian:  d.IsVegetarian,
		Created:       d.Created,
		Updated:       d.Updated,
	}
	if d.Image != "" && media != nil {
		url := media.URL(d.Image)
		resp.Image = &url
	}
	return resp
}

func toDishResponses(dishes []models.Dish, media *services.MediaStore) []DishResponse {
	out := make([]DishResponse, 0, len(dishes))
	for _, d := range dishes {
		out = append(out, toDishResponse(d, media))
	}
	return out
}

func toMenuResponse(m models.Menu) MenuResponse {
	return MenuResponse{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		NumDishes:   m.NumDishes,
		Created:     m.Created,
		Updated:     m.Updated,
	}
}

func toMenuDetailResponse(m models.Menu, media *services.MediaStore) MenuDetailResponse {
	return MenuDetailResponse{
		MenuResponse: toMenuResponse(m),
		Dishes:       toDishResponses(m.Dishes, media),
	}
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		IsActive: u.IsActive,
		IsStaff:  u.IsStaff,
	}
}
