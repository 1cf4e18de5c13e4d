package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/emenuapi/emenu-backend/models"
	"github.com/emenuapi/emenu-backend/utils"
	"gorm.io/gorm"
)

type MenuInput struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Description *string `json:"description"`
}

// MenuFilter holds the query parameters accepted by the menu listing.
type MenuFilter struct {
	Search        string
	Ordering      string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	UpdatedAfter  *time.Time
	UpdatedBefore *time.Time

	// OnlyWithDishes hides menus without dishes (anonymous visitors).
	OnlyWithDishes bool
}

var menuOrderings = map[string]string{
	"name":        "menus.name ASC, menus.id ASC",
	"-name":       "menus.name DESC, menus.id DESC",
	"num_dishes":  "num_dishes ASC, menus.id ASC",
	"-num_dishes": "num_dishes DESC, menus.id DESC",
	"created":     "menus.created ASC, menus.id ASC",
	"-created":    "menus.created DESC, menus.id DESC",
}

const defaultMenuOrdering = "-created"

var dateFilterLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseMenuFilter reads listing parameters; naive dates are taken in loc.
func ParseMenuFilter(query url.Values, loc *time.Location) (MenuFilter, error) {
	f := MenuFilter{
		Search:   strings.TrimSpace(query.Get("search")),
		Ordering: strings.TrimSpace(query.Get("ordering")),
	}
	errs := ValidationErrors{}

	bounds := []struct {
		param  string
		target **time.Time
	}{
		{"created_after", &f.CreatedAfter},
		{"created_before", &f.CreatedBefore},
		{"updated_after", &f.UpdatedAfter},
		{"updated_before", &f.UpdatedBefore},
	}
	for _, b := range bounds {
		raw := strings.TrimSpace(query.Get(b.param))
		if raw == "" {
			continue
		}
		t, err := parseFilterTime(raw, loc)
		if err != nil {
			errs.Add(b.param, CodeInvalid, "Enter a valid date/time.")
			continue
		}
		*b.target = &t
	}

	return f, errs.OrNil()
}

func parseFilterTime(raw string, loc *time.Location) (time.Time, error) {
	// An unescaped "+" in a query string arrives as a space.
	if len(raw) > 10 && strings.Count(raw, " ") == 1 && strings.Index(raw, " ") > 10 {
		raw = strings.Replace(raw, " ", "+", 1)
	}

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range dateFilterLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

type MenuService struct {
	DB    *gorm.DB
	Media *MediaStore
	Now   func() time.Time
}

func NewMenuService(db *gorm.DB, media *MediaStore) *MenuService {
	return &MenuService{DB: db, Media: media, Now: time.Now}
}

func (s *MenuService) now() time.Time {
	return s.Now().UTC()
}

// withNumDishes annotates every menu row with its dish count.
func withNumDishes(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Menu{}).
		Select("menus.*, COUNT(dishes.id) AS num_dishes").
		Joins("LEFT JOIN dishes ON dishes.menu_id = menus.id").
		Group("menus.id")
}

func onlyWithDishes(db *gorm.DB) *gorm.DB {
	return db.Having("COUNT(dishes.id) > 0")
}

func (s *MenuService) List(ctx context.Context, f MenuFilter) ([]models.Menu, error) {
	q := s.DB.WithContext(ctx).Scopes(withNumDishes)
	if f.OnlyWithDishes {
		q = q.Scopes(onlyWithDishes)
	}

	// SQLite's LOWER only folds ASCII, so non-ASCII searches are matched in Go.
	foldInGo := f.Search != "" && !isASCII(f.Search) && s.DB.Dialector.Name() == "sqlite"
	if f.Search != "" && !foldInGo {
		q = q.Where("LOWER(menus.name) LIKE ? ESCAPE '!'", "%"+escapeLike(strings.ToLower(f.Search))+"%")
	}
	if f.CreatedAfter != nil {
		q = q.Where("menus.created >= ?", f.CreatedAfter.UTC())
	}
	if f.CreatedBefore != nil {
		q = q.Where("menus.created <= ?", f.CreatedBefore.UTC())
	}
	if f.UpdatedAfter != nil {
		q = q.Where("menus.updated >= ?", f.UpdatedAfter.UTC())
	}
	if f.UpdatedBefore != nil {
		q = q.Where("menus.updated <= ?", f.UpdatedBefore.UTC())
	}

	order, ok := menuOrderings[f.Ordering]
	if !ok {
		order = menuOrderings[defaultMenuOrdering]
	}

	var menus []models.Menu
	if err := q.Order(order).Find(&menus).Error; err != nil {
		return nil, err
	}
	if foldInGo {
		menus = filterByName(menus, f.Search)
	}
	return menus, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// escapeLike makes s match literally inside a LIKE pattern using '!' as escape.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func filterByName(menus []models.Menu, search string) []models.Menu {
	needle := strings.ToLower(search)
	matched := menus[:0]
	for _, m := range menus {
		if strings.Contains(strings.ToLower(m.Name), needle) {
			matched = append(matched, m)
		}
	}
	return matched
}

// Get loads a menu with its dish count and dishes, newest dish first.
func (s *MenuService) Get(ctx context.Context, id uint, onlyNonEmpty bool) (*models.Menu, error) {
	q := s.DB.WithContext(ctx).Scopes(withNumDishes)
	if onlyNonEmpty {
		q = q.Scopes(onlyWithDishes)
	}

	var menu models.Menu
	err := q.Where("menus.id = ?", id).
		Preload("Dishes", func(db *gorm.DB) *gorm.DB {
			return db.Order("dishes.created DESC, dishes.id DESC")
		}).
		Take(&menu).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &menu, nil
}

func (s *MenuService) validate(in *MenuInput, partial bool) ValidationErrors {
	errs := ValidationErrors{}
	in.Name = requireText("name", in.Name, partial, errs)
	in.Description = requireText("description", in.Description, partial, errs)
	if !errs.Has("name") {
		validateStruct(in, errs)
	}
	return errs
}

func (s *MenuService) checkUniqueName(tx *gorm.DB, name string, excludeID uint, errs ValidationErrors) error {
	var count int64
	q := tx.Model(&models.Menu{}).Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		errs.Add("name", CodeUnique, "menu with this name already exists.")
	}
	return nil
}

func (s *MenuService) Create(ctx context.Context, in MenuInput) (*models.Menu, error) {
	errs := s.validate(&in, false)
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	menu := models.Menu{
		Name:        *in.Name,
		Description: *in.Description,
		Created:     s.now(),
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkUniqueName(tx, menu.Name, 0, errs); err != nil {
			return err
		}
		if err := errs.OrNil(); err != nil {
			return err
		}
		return tx.Omit("Dishes").Create(&menu).Error
	})
	if err != nil {
		return nil, s.translate(err)
	}

	utils.InfoLogger.WithField("menu_id", menu.ID).Info("Menu created")
	return &menu, nil
}

// Update applies a full (PUT) or partial (PATCH) change and stamps Updated.
func (s *MenuService) Update(ctx context.Context, id uint, in MenuInput, partial bool) (*models.Menu, error) {
	errs := s.validate(&in, partial)
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var menu models.Menu
		if err := tx.First(&menu, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if in.Name != nil {
			if err := s.checkUniqueName(tx, *in.Name, menu.ID, errs); err != nil {
				return err
			}
			if err := errs.OrNil(); err != nil {
				return err
			}
			menu.Name = *in.Name
		}
		if in.Description != nil {
			menu.Description = *in.Description
		}
		now := s.now()
		menu.Updated = &now

		return tx.Omit("Dishes").Save(&menu).Error
	})
	if err != nil {
		return nil, s.translate(err)
	}

	return s.Get(ctx, id, false)
}

// Delete removes a menu together with its dishes and their stored photos.
func (s *MenuService) Delete(ctx context.Context, id uint) (*models.Menu, error) {
	var menu models.Menu
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Dishes").First(&menu, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Where("menu_id = ?", menu.ID).Delete(&models.Dish{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Menu{}, menu.ID).Error
	})
	if err != nil {
		return nil, err
	}

	if s.Media != nil {
		for _, dish := range menu.Dishes {
			if err := s.Media.Remove(dish.Image); err != nil {
				utils.ErrorLogger.WithError(err).WithField("dish_id", dish.ID).Error("Failed to remove dish image")
			}
		}
	}
	return &menu, nil
}

func (s *MenuService) translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		errs := ValidationErrors{}
		errs.Add("name", CodeUnique, "menu with this name already exists.")
		return errs
	}
	return err
}
