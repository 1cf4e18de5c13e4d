package database

import (
	"errors"
	"fmt"

	"github.com/emenuapi/emenu-backend/models"
	"github.com/emenuapi/emenu-backend/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Menu{},
		&models.Dish{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}

// SeedAdmin creates the staff account from ADMIN_* settings when it does not exist yet.
// Nothing is done when username or password is empty.
func SeedAdmin(db *gorm.DB, username, email, password string) error {
	if username == "" || password == "" {
		return nil
	}

	var existing models.User
	err := db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		utils.InfoLogger.Printf("Admin user %s already exists", username)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		IsActive: true,
		IsStaff:  true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	utils.InfoLogger.Printf("Admin user %s created", username)
	return nil
}
