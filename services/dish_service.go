package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/emenuapi/emenu-backend/models"
	"github.com/emenuapi/emenu-backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type DishInput struct {
	Menu          *uint            `json:"menu"`
	Name          *string          `json:"name" validate:"omitempty,max=255"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	TimeToPrepare *int64           `json:"time_to_prepare" validate:"omitempty,min=0"`
	IsVegetarian  *bool            `json:"is_vegetarian"`
}

type DishService struct {
	DB    *gorm.DB
	Media *MediaStore
	Now   func() time.Time
}

func NewDishService(db *gorm.DB, media *MediaStore) *DishService {
	return &DishService{DB: db, Media: media, Now: time.Now}
}

func (s *DishService) now() time.Time {
	return s.Now().UTC()
}

// List returns dishes newest first, optionally restricted to one menu.
func (s *DishService) List(ctx context.Context, menuID *uint) ([]models.Dish, error) {
	q := s.DB.WithContext(ctx).Order("dishes.created DESC, dishes.id DESC")
	if menuID != nil {
		q = q.Where("menu_id = ?", *menuID)
	}

	var dishes []models.Dish
	if err := q.Find(&dishes).Error; err != nil {
		return nil, err
	}
	return dishes, nil
}

func (s *DishService) Get(ctx context.Context, id uint) (*models.Dish, error) {
	return findDish(s.DB.WithContext(ctx), id)
}

func findDish(db *gorm.DB, id uint) (*models.Dish, error) {
	var dish models.Dish
	if err := db.First(&dish, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &dish, nil
}

func (s *DishService) validate(in *DishInput, partial bool) ValidationErrors {
	errs := ValidationErrors{}
	requirePresent("menu", in.Menu != nil, partial, errs)
	in.Name = requireText("name", in.Name, partial, errs)
	in.Description = requireText("description", in.Description, partial, errs)
	requirePresent("price", in.Price != nil, partial, errs)
	requirePresent("time_to_prepare", in.TimeToPrepare != nil, partial, errs)
	requirePresent("is_vegetarian", in.IsVegetarian != nil, partial, errs)

	if in.Price != nil {
		validatePrice(*in.Price, errs)
	}
	validateStruct(in, errs)
	return errs
}

func checkMenuExists(tx *gorm.DB, menuID uint, errs ValidationErrors) error {
	var count int64
	if err := tx.Model(&models.Menu{}).Where("id = ?", menuID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		errs.Add("menu", CodeDoesNotExist, fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", menuID))
	}
	return nil
}

// touchMenu stamps a menu's Updated with the time of a dish change.
func touchMenu(tx *gorm.DB, menuID uint, at time.Time) error {
	return tx.Model(&models.Menu{}).Where("id = ?", menuID).Update("updated", at).Error
}

func applyDishInput(dish *models.Dish, in DishInput) {
	if in.Menu != nil {
		dish.MenuID = *in.Menu
	}
	if in.Name != nil {
		dish.Name = *in.Name
	}
	if in.Description != nil {
		dish.Description = *in.Description
	}
	if in.Price != nil {
		dish.Price = *in.Price
	}
	if in.TimeToPrepare != nil {
		dish.TimeToPrepare = uint(*in.TimeToPrepare)
	}
	if in.IsVegetarian != nil {
		dish.IsVegetarian = *in.IsVegetarian
	}
}

// Create adds a dish and sets its menu's Updated to the dish creation time.
func (s *DishService) Create(ctx context.Context, in DishInput) (*models.Dish, error) {
	errs := s.validate(&in, false)
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	dish := models.Dish{Created: s.now()}
	applyDishInput(&dish, in)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkMenuExists(tx, dish.MenuID, errs); err != nil {
			return err
		}
		if err := errs.OrNil(); err != nil {
			return err
		}
		if err := tx.Omit("Menu").Create(&dish).Error; err != nil {
			return err
		}
		return touchMenu(tx, dish.MenuID, dish.Created)
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"dish_id": dish.ID,
		"menu_id": dish.MenuID,
	}).Info("Dish created")
	return &dish, nil
}

// Update changes a dish and stamps it together with its menu. When the dish
// moves to another menu both menus are stamped.
func (s *DishService) Update(ctx context.Context, id uint, in DishInput, partial bool) (*models.Dish, error) {
	errs := s.validate(&in, partial)
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	var dish *models.Dish
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		dish, err = findDish(tx, id)
		if err != nil {
			return err
		}

		previousMenu := dish.MenuID
		if in.Menu != nil && *in.Menu != previousMenu {
			if err := checkMenuExists(tx, *in.Menu, errs); err != nil {
				return err
			}
			if err := errs.OrNil(); err != nil {
				return err
			}
		}

		applyDishInput(dish, in)
		now := s.now()
		dish.Updated = &now

		if err := tx.Omit("Menu").Save(dish).Error; err != nil {
			return err
		}
		if err := touchMenu(tx, dish.MenuID, now); err != nil {
			return err
		}
		if previousMenu != dish.MenuID {
			return touchMenu(tx, previousMenu, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dish, nil
}

// Delete removes a dish and stamps its menu.
func (s *DishService) Delete(ctx context.Context, id uint) (*models.Dish, error) {
	var dish *models.Dish
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		dish, err = findDish(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.Dish{}, dish.ID).Error; err != nil {
			return err
		}
		return touchMenu(tx, dish.MenuID, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.removeImage(dish.ID, dish.Image)
	return dish, nil
}

// UploadPhoto replaces the dish image and stamps the dish and its menu.
func (s *DishService) UploadPhoto(ctx context.Context, id uint, file *multipart.FileHeader) (*models.Dish, error) {
	if file == nil {
		return nil, ErrNoFileAttached
	}
	if s.Media == nil {
		return nil, errors.New("media storage is not configured")
	}

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	rel, err := s.Media.Save(file, dishImageDir)
	if err != nil {
		return nil, err
	}

	var dish *models.Dish
	var previous string
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		dish, err = findDish(tx, id)
		if err != nil {
			return err
		}

		previous = dish.Image
		now := s.now()
		dish.Image = rel
		dish.Updated = &now

		if err := tx.Omit("Menu").Save(dish).Error; err != nil {
			return err
		}
		return touchMenu(tx, dish.MenuID, now)
	})
	if err != nil {
		s.removeImage(id, rel)
		return nil, err
	}

	s.removeImage(id, previous)
	return dish, nil
}

func (s *DishService) removeImage(dishID uint, rel string) {
	if s.Media == nil || rel == "" {
		return
	}
	if err := s.Media.Remove(rel); err != nil {
		utils.ErrorLogger.WithError(err).WithField("dish_id", dishID).Error("Failed to remove dish image")
	}
}
