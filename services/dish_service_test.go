package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/emenuapi/emenu-backend/models"
	"github.com/emenuapi/emenu-backend/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func validDishInput(menuID uint) DishInput {
	return DishInput{
		Menu:          testutil.Ptr(menuID),
		Name:          testutil.Ptr("Pierogi"),
		Description:   testutil.Ptr("Dumplings with cheese and potatoes"),
		Price:         testutil.Ptr(decimal.RequireFromString("24.90")),
		TimeToPrepare: testutil.Ptr(int64(20)),
		IsVegetarian:  testutil.Ptr(true),
	}
}

func reloadMenu(t *testing.T, db *gorm.DB, id uint) models.Menu {
	t.Helper()
	var menu models.Menu
	require.NoError(t, db.First(&menu, id).Error)
	return menu
}

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, "/", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestDishCreateStampsMenu(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewDishService(db, nil)
	now := testutil.At(2021, 6, 1, 12, 13)
	svc.Now = func() time.Time { return now }

	menu := testutil.CreateMenu(t, db)

	dish, err := svc.Create(context.Background(), validDishInput(menu.ID))
	require.NoError(t, err)
	assert.Equal(t, menu.ID, dish.MenuID)
	assert.Equal(t, "24.9", dish.Price.String())
	assert.Equal(t, uint(20), dish.TimeToPrepare)
	assert.True(t, dish.Created.Equal(now))

	reloaded := reloadMenu(t, db, menu.ID)
	require.NotNil(t, reloaded.Updated)
	assert.True(t, reloaded.Updated.Equal(dish.Created))
}

func TestDishCreateUnknownMenu(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewDishService(db, nil)

	_, err := svc.Create(context.Background(), validDishInput(404))
	verrs, ok := AsValidationErrors(err)
	require.True(t, ok)
	assert.Equal(t, CodeDoesNotExist, verrs["menu"][0].Code)
	assert.Equal(t, `Invalid pk "404" - object does not exist.`, verrs["menu"][0].Message)
}

func TestDishCreateValidation(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewDishService(db, nil)
	menu := testutil.CreateMenu(t, db)

	cases := []struct {
		name  string
		edit  func(*DishInput)
		field string
		code  string
	}{
		{"zero price", func(in *DishInput) { in.Price = testutil.Ptr(decimal.Zero) }, "price", CodeInvalid},
		{"negative price", func(in *DishInput) { in.Price = testutil.Ptr(decimal.RequireFromString("-1.00")) }, "price", CodeInvalid},
		{"three decimals", func(in *DishInput) { in.Price = testutil.Ptr(decimal.RequireFromString("1.234")) }, "price", CodeMaxDecimalPlaces},
		{"too large", func(in *DishInput) { in.Price = testutil.Ptr(decimal.RequireFromString("10000")) }, "price", CodeMaxWholeDigits},
		{"negative time", func(in *DishInput) { in.TimeToPrepare = testutil.Ptr(int64(-5)) }, "time_to_prepare", CodeMinValue},
		{"missing vegetarian flag", func(in *DishInput) { in.IsVegetarian = nil }, "is_vegetarian", CodeRequired},
		{"blank name", func(in *DishInput) { in.Name = testutil.Ptr(" ") }, "name", CodeBlank},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validDishInput(menu.ID)
			tc.edit(&in)

			_, err := svc.Create(context.Background(), in)
			verrs, ok := AsValidationErrors(err)
			require.True(t, ok, "expected validation errors, got %v", err)
			require.NotEmpty(t, verrs[tc.field])
			assert.Equal(t, tc.code, verrs[tc.field][0].Code)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.Dish{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDishUpdateStampsDishAndMenus(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewDishService(db, nil)
	now := testutil.At(2021, 6, 3, 9, 0)
	svc.Now = func() time.Time { return now }

	menu := testutil.CreateMenu(t, db)
	other := testutil.CreateMenu(t, db)
	dish := testutil.CreateDish(t, db, menu)

	updated, err := svc.Update(context.Background(), dish.ID, DishInput{
		Price: testutil.Ptr(decimal.RequireFromString("9.99")),
	}, true)
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, dish.Name, updated.Name)
	require.NotNil(t, updated.Updated)
	assert.True(t, updated.Updated.Equal(now))
	assert.True(t, reloadMenu(t, db, menu.ID).Updated.Equal(now))
	assert.Nil(t, reloadMenu(t, db, other.ID).Updated)

	later := now.Add(time.Hour)
	svc.Now = func() time.Time { return later }
	moved, err := svc.Update(context.Background(), dish.ID, DishInput{Menu: testutil.Ptr(other.ID)}, true)
	require.NoError(t, err)
	assert.Equal(t, other.ID, moved.MenuID)
	assert.True(t, reloadMenu(t, db, menu.ID).Updated.Equal(later))
	assert.True(t, reloadMenu(t, db, other.ID).Updated.Equal(later))

	_, err = svc.Update(context.Background(), dish.ID, DishInput{Name: testutil.Ptr("Only name")}, false)
	verrs, ok := AsValidationErrors(err)
	require.True(t, ok)
	assert.Equal(t, CodeRequired, verrs["price"][0].Code)

	_, err = svc.Update(context.Background(), 9999, DishInput{Name: testutil.Ptr("x")}, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDishDeleteStampsMenu(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewDishService(db, nil)
	now := testutil.At(2021, 6, 4, 18, 0)
	svc.Now = func() time.Time { return now }

	menu := testutil.CreateMenu(t, db)
	dish := testutil.CreateDish(t, db, menu)

	_, err := svc.Delete(context.Background(), dish.ID)
	require.NoError(t, err)
	assert.True(t, reloadMenu(t, db, menu.ID).Updated.Equal(now))

	_, err = svc.Get(context.Background(), dish.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDishListFiltersByMenu(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewDishService(db, nil)

	menu := testutil.CreateMenu(t, db)
	other := testutil.CreateMenu(t, db)
	first := testutil.CreateDish(t, db, menu, func(d *models.Dish) { d.Created = testutil.At(2021, 1, 1, 0, 0) })
	second := testutil.CreateDish(t, db, menu, func(d *models.Dish) { d.Created = testutil.At(2021, 1, 2, 0, 0) })
	testutil.CreateDish(t, db, other)

	all, err := svc.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	dishes, err := svc.List(context.Background(), &menu.ID)
	require.NoError(t, err)
	require.Len(t, dishes, 2)
	assert.Equal(t, second.ID, dishes[0].ID)
	assert.Equal(t, first.ID, dishes[1].ID)
}

func TestDishUploadPhoto(t *testing.T) {
	db := testutil.NewTestDB(t)
	media := NewMediaStore(t.TempDir(), "/media/")
	svc := NewDishService(db, media)
	now := testutil.At(2021, 6, 5, 7, 45)
	svc.Now = func() time.Time { return now }

	menu := testutil.CreateMenu(t, db)
	dish := testutil.CreateDish(t, db, menu)

	_, err := svc.UploadPhoto(context.Background(), dish.ID, nil)
	assert.ErrorIs(t, err, ErrNoFileAttached)

	updated, err := svc.UploadPhoto(context.Background(), dish.ID, fileHeader(t, "photo.png", []byte("png-bytes")))
	require.NoError(t, err)
	assert.Equal(t, "menus/dish", filepath.ToSlash(filepath.Dir(updated.Image)))
	assert.True(t, updated.Updated.Equal(now))
	assert.True(t, reloadMenu(t, db, menu.ID).Updated.Equal(now))

	firstPath := filepath.Join(media.Root, filepath.FromSlash(updated.Image))
	content, err := os.ReadFile(firstPath)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(content))
	assert.Equal(t, "/media/"+updated.Image, media.URL(updated.Image))

	replaced, err := svc.UploadPhoto(context.Background(), dish.ID, fileHeader(t, "photo.jpg", []byte("jpg-bytes")))
	require.NoError(t, err)
	assert.NotEqual(t, updated.Image, replaced.Image)
	_, err = os.Stat(firstPath)
	assert.True(t, os.IsNotExist(err))

	_, err = svc.UploadPhoto(context.Background(), dish.ID, fileHeader(t, "notes.txt", []byte("text")))
	verrs, ok := AsValidationErrors(err)
	require.True(t, ok)
	assert.Equal(t, CodeInvalid, verrs["file"][0].Code)

	_, err = svc.UploadPhoto(context.Background(), 9999, fileHeader(t, "photo.png", []byte("png")))
	assert.ErrorIs(t, err, ErrNotFound)
}
