package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/emenuapi/emenu-backend/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the plain password of users built by CreateUser.
const DefaultPassword = "password123"

var sequence int64

func next() int64 {
	return atomic.AddInt64(&sequence, 1)
}

// CreateUser stores an active, non-staff user. Overrides run before the insert.
func CreateUser(t *testing.T, db *gorm.DB, overrides ...func(*models.User)) *models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	require.NoError(t, err)

	n := next()
	user := &models.User{
		Username: fmt.Sprintf("user%d", n),
		Email:    fmt.Sprintf("user%d@example.com", n),
		Password: string(hashed),
		IsActive: true,
	}
	for _, o := range overrides {
		o(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateMenu stores a menu created now unless an override says otherwise.
func CreateMenu(t *testing.T, db *gorm.DB, overrides ...func(*models.Menu)) *models.Menu {
	t.Helper()

	n := next()
	menu := &models.Menu{
		Name:        fmt.Sprintf("Menu %d", n),
		Description: fmt.Sprintf("Description of menu %d", n),
		Created:     time.Now().UTC(),
	}
	for _, o := range overrides {
		o(menu)
	}
	require.NoError(t, db.Create(menu).Error)
	return menu
}

// CreateDish stores a dish in menu without touching the menu's timestamps.
func CreateDish(t *testing.T, db *gorm.DB, menu *models.Menu, overrides ...func(*models.Dish)) *models.Dish {
	t.Helper()

	n := next()
	dish := &models.Dish{
		MenuID:        menu.ID,
		Name:          fmt.Sprintf("Dish %d", n),
		Description:   fmt.Sprintf("Description of dish %d", n),
		Price:         decimal.RequireFromString("12.50"),
		TimeToPrepare: 15,
		Created:       time.Now().UTC(),
	}
	for _, o := range overrides {
		o(dish)
	}
	require.NoError(t, db.Omit("Menu").Create(dish).Error)
	return dish
}

// At sets a fixed UTC time, for Created overrides.
func At(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
