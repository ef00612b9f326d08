package api

import (
	"keja/internal/media"      // Upload storage
	"keja/internal/metrics"    // Prometheus metrics
	"keja/internal/middleware" // Custom middleware
	"keja/internal/session"    // Session manager

	"github.com/gin-contrib/cors" // CORS middleware
	"github.com/gin-gonic/gin"    // Gin web framework
	"gorm.io/gorm"                // GORM ORM library
)

// Deps carries everything the HTTP layer needs
type Deps struct {
	DB          *gorm.DB         // Database handle
	Sessions    *session.Manager // Session manager
	Cookie      CookieConfig     // Session cookie settings
	Media       media.Store      // Upload storage
	Metrics     *metrics.Metrics // Prometheus metrics
	MediaURL    string           // URL prefix uploads are served under
	MediaDir    string           // Directory uploads are served from, empty to disable
	CORSOrigins []string         // Allowed cross-origin callers, empty to disable
}

// corsMiddleware allows credentialed requests from origins
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	}
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false // Browsers refuse credentials with a wildcard origin
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// NewRouter wires middleware and routes
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.MetricsMiddleware(d.Metrics))
	if len(d.CORSOrigins) > 0 {
		r.Use(corsMiddleware(d.CORSOrigins))
	}
	r.Use(middleware.SessionMiddleware(d.Sessions, d.DB, d.Cookie.Name)) // Resolve the principal for every request

	auth := &Authenticator{Sessions: d.Sessions, Cookie: d.Cookie, Metrics: d.Metrics}

	if d.MediaDir != "" {
		r.Static(d.MediaURL, d.MediaDir) // Uploaded images
	}
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	// Auth routes
	r.GET("/login", LoginPageHandler())
	r.POST("/login", LoginHandler(d.DB, auth))
	r.GET("/register", RegisterPageHandler())
	r.POST("/register", RegisterHandler(d.DB, auth))
	r.GET("/logout", LogoutHandler(auth))
	r.POST("/logout", LogoutHandler(auth))

	// Public pages
	r.GET("/", HomeHandler(d.DB))
	r.GET("/property/:id", PropertyDetailHandler(d.DB))
	r.GET("/room/:id", RoomHandler(d.DB))
	r.GET("/profile/:id", ProfileHandler(d.DB))
	r.GET("/topics", TopicsHandler(d.DB))
	r.GET("/activity", ActivityHandler(d.DB))

	// Pages that need a logged in user
	authed := r.Group("")
	authed.Use(middleware.LoginRequired())
	authed.GET("/add-property", AddPropertyPageHandler())
	authed.POST("/add-property", AddPropertyHandler(d.DB, d.Media))
	authed.GET("/edit-property/:id", EditPropertyPageHandler(d.DB))
	authed.POST("/edit-property/:id", EditPropertyHandler(d.DB, d.Media))
	authed.GET("/my-properties", MyPropertiesHandler(d.DB))
	authed.GET("/delete-property/:id", DeletePropertyPageHandler(d.DB))
	authed.POST("/delete-property/:id", DeletePropertyHandler(d.DB))
	authed.POST("/property/:id/images", AddPropertyImageHandler(d.DB, d.Media))

	authed.POST("/room/:id", PostMessageHandler(d.DB))
	authed.GET("/create-room", CreateRoomPageHandler(d.DB))
	authed.POST("/create-room", CreateRoomHandler(d.DB, d.Media))
	authed.GET("/update-room/:id", UpdateRoomPageHandler(d.DB))
	authed.POST("/update-room/:id", UpdateRoomHandler(d.DB, d.Media))
	authed.GET("/delete-room/:id", DeleteRoomPageHandler(d.DB))
	authed.POST("/delete-room/:id", DeleteRoomHandler(d.DB))
	authed.GET("/delete-message/:id", DeleteMessagePageHandler(d.DB))
	authed.POST("/delete-message/:id", DeleteMessageHandler(d.DB))
	authed.GET("/update-user", UpdateUserPageHandler())
	authed.POST("/update-user", UpdateUserHandler(d.DB, d.Media))

	// Admin routes (admin role, re-read per request)
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.AdminOnlyMiddleware())
	adminGroup.GET("/users", ListUsersHandler(d.DB))
	adminGroup.GET("/properties", ListPropertiesHandler(d.DB))
	adminGroup.POST("/properties/:id/availability", SetAvailabilityHandler(d.DB))

	return r
}
