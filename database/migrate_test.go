package database

import (
	"testing"

	"github.com/emenuapi/emenu-backend/config"
	"github.com/emenuapi/emenu-backend/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), config.GormConfig(logger.Silent))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestMigrate(t *testing.T) {
	db := openDB(t)
	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "menus", "dishes"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.False(t, db.Migrator().HasColumn(&models.Menu{}, "num_dishes"))
}

func TestSeedAdmin(t *testing.T) {
	db := openDB(t)
	require.NoError(t, Migrate(db))

	require.NoError(t, SeedAdmin(db, "admin", "admin@example.com", "s3cret-pass"))
	require.NoError(t, SeedAdmin(db, "admin", "other@example.com", "another-pass"))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)

	admin := users[0]
	assert.True(t, admin.IsStaff)
	assert.True(t, admin.IsActive)
	assert.Equal(t, "admin@example.com", admin.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("s3cret-pass")))
}

func TestSeedAdminSkipsWithoutCredentials(t *testing.T) {
	db := openDB(t)
	require.NoError(t, Migrate(db))

	require.NoError(t, SeedAdmin(db, "", "", ""))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}
