package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/emenuapi/emenu-backend/controllers"
	"github.com/emenuapi/emenu-backend/feed"
	"github.com/emenuapi/emenu-backend/metrics"
	"github.com/emenuapi/emenu-backend/middlewares"
	"github.com/emenuapi/emenu-backend/services"
	"github.com/emenuapi/emenu-backend/tasks"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	DB       *gorm.DB
	Menus    *services.MenuService
	Dishes   *services.DishService
	Users    *services.UserService
	Media    *services.MediaStore
	Hub      *feed.Hub
	Queue    tasks.Queue
	Location *time.Location

	MaxUploadSize int64
	CORSOrigin    string
	RateLimit     int
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// onlyImages keeps the media mount from serving anything but photos.
func onlyImages(prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, prefix+"/") {
			lower := strings.ToLower(c.Request.URL.Path)
			for _, ext := range imageExtensions {
				if strings.HasSuffix(lower, ext) {
					c.Next()
					return
				}
			}
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.Metrics())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(d.CORSOrigin))
	if d.RateLimit > 0 {
		r.Use(middlewares.NewRateLimiter(d.RateLimit, 1).RateLimit())
	}

	if d.Media != nil && d.Media.URLPrefix != "" {
		prefix := "/" + strings.Trim(d.Media.URLPrefix, "/")
		r.Use(onlyImages(prefix))
		r.Static(prefix, d.Media.Root)
	}

	userCtrl := controllers.NewUserController(d.Users)
	menuCtrl := controllers.NewMenuController(d.Menus, d.Media, d.Hub, d.Location)
	dishCtrl := controllers.NewDishController(d.Dishes, d.Media, d.Hub, d.MaxUploadSize)
	reportCtrl := controllers.NewReportController(d.Queue)
	feedCtrl := controllers.NewFeedController(d.Hub)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	ws := r.Group("/ws")
	ws.Use(middlewares.WebSocketAuthMiddleware(d.DB))
	{
		ws.GET("/menus", feedCtrl.MenuFeed)
	}

	api := r.Group("/")
	api.Use(middlewares.AuthMiddleware(d.DB))

	loginLimiter := middlewares.NewStrictRateLimiter(12*time.Second, 5)
	api.POST("/auth/token", loginLimiter.Middleware(), userCtrl.Login)

	// Reads are open; anonymous visitors only see menus with dishes.
	api.GET("/menus", menuCtrl.GetAllMenus)
	api.GET("/menus/:menu_id", menuCtrl.GetMenuByID)
	api.GET("/menus/:menu_id/pdf", menuCtrl.GetMenuPDF)
	api.GET("/dishes", dishCtrl.GetAllDishes)
	api.GET("/dishes/:dish_id", dishCtrl.GetDishByID)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := api.Group("/")
	auth.Use(middlewares.RequireAuth())

	auth.POST("/auth/logout", userCtrl.Logout)
	auth.GET("/auth/me", userCtrl.Me)

	auth.POST("/menus", menuCtrl.CreateMenu)
	auth.PUT("/menus/:menu_id", menuCtrl.UpdateMenu)
	auth.PATCH("/menus/:menu_id", menuCtrl.UpdateMenu)
	auth.DELETE("/menus/:menu_id", menuCtrl.DeleteMenu)

	auth.POST("/dishes", dishCtrl.CreateDish)
	auth.PUT("/dishes/:dish_id", dishCtrl.UpdateDish)
	auth.PATCH("/dishes/:dish_id", dishCtrl.UpdateDish)
	auth.DELETE("/dishes/:dish_id", dishCtrl.DeleteDish)

	photo := auth.Group("/dishes")
	photo.Use(middlewares.UploadLoggerMiddleware())
	{
		photo.POST("/:dish_id/photo", dishCtrl.UploadPhoto)
	}

	// Staff only
	staff := auth.Group("/")
	staff.Use(middlewares.RequireStaff())

	staff.GET("/users", userCtrl.GetAllUsers)
	staff.POST("/users", userCtrl.CreateUser)
	staff.POST("/reports/dishes", reportCtrl.SendDishReport)

	return r
}
