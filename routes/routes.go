package routes

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"room-booking/config"
	"room-booking/controllers"
	"room-booking/middleware"
)

// Handlers groups the controllers mounted by SetupRouter.
type Handlers struct {
	Auth     *controllers.AuthController
	Rooms    *controllers.RoomController
	Images   *controllers.ImageController
	Bookings *controllers.BookingController
	Users    *controllers.UserController
}

// SetupRouter builds the HTTP router. limiter may be nil, which disables
// rate limiting on the credential endpoints.
func SetupRouter(cfg *config.Config, log *slog.Logger, tokens middleware.TokenResolver, limiter redis.Scripter, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(log))
	r.Use(corsMiddleware(cfg.CORSOrigins))

	if cfg.Storage.Backend == "local" && strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
		r.Static(cfg.Storage.PublicBaseURL, cfg.Storage.UploadDir)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(middleware.Authenticate(tokens))
	{
		api.GET("/", controllers.APIRoot)

		limited := middleware.RateLimit(cfg.RateLimit, limiter, log)
		api.POST("/register", limited, h.Auth.Register)
		api.POST("/login", limited, h.Auth.Login)
		api.POST("/logout", middleware.RequireAuth(), h.Auth.Logout)

		rooms := api.Group("/rooms")
		{
			rooms.GET("", h.Rooms.GetRooms)
			rooms.POST("", h.Rooms.CreateRoom)
			rooms.GET("/:id", h.Rooms.GetRoom)
			rooms.PUT("/:id", h.Rooms.UpdateRoom)
			rooms.PATCH("/:id", h.Rooms.UpdateRoom)
			rooms.DELETE("/:id", h.Rooms.DeleteRoom)

			rooms.GET("/:id/images", h.Images.GetImages)
			rooms.POST("/:id/images", h.Images.UploadImage)
			rooms.DELETE("/:id/images/:imageId", h.Images.DeleteImage)
		}

		// occupied-dates is the older name of the same collection
		for _, prefix := range []string{"/bookings", "/occupied-dates"} {
			bookings := api.Group(prefix)
			bookings.GET("", h.Bookings.GetBookings)
			bookings.POST("", h.Bookings.CreateBooking)
			bookings.GET("/:id", h.Bookings.GetBooking)
			bookings.PUT("/:id", h.Bookings.UpdateBooking)
			bookings.PATCH("/:id", h.Bookings.UpdateBooking)
			bookings.DELETE("/:id", h.Bookings.DeleteBooking)
		}

		users := api.Group("/users", middleware.RequireAuth())
		{
			users.GET("", h.Users.GetUsers)
			users.GET("/:id", h.Users.GetUser)
		}
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	// browsers refuse credentials with a wildcard origin
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	})
}
