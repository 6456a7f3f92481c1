package api

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/timmy/imagesim/internal/api/handler"
	"github.com/timmy/imagesim/internal/api/middleware"
	"github.com/timmy/imagesim/internal/service"
)

// RouterConfig holds the HTTP-surface configuration.
type RouterConfig struct {
	Mode          string
	SessionSecret string
	MaxBodyBytes  int64
	TemplatesGlob string
	UploadsDir    string
	CORS          middleware.CORSConfig
}

// SetupRouter configures the Gin router with all routes. When compareService
// is nil the embedder never initialized and the degraded handler set is
// registered instead; those stubs answer service-unavailable without touching
// disk or the model.
func SetupRouter(
	compareService *service.CompareService,
	uploadService *service.UploadService,
	cfg *RouterConfig,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("imagesim", store))

	if cfg.TemplatesGlob != "" {
		r.LoadHTMLGlob(cfg.TemplatesGlob)
	}

	// Health check
	healthHandler := handler.NewHealthHandler(compareService == nil)
	r.GET("/health", healthHandler.Health)

	if compareService == nil || uploadService == nil {
		degraded := handler.NewDegradedHandler()
		r.GET("/", degraded.Index)
		r.POST("/upload", degraded.Upload)
		r.POST("/api/similarity", degraded.API)
		r.POST("/api/embeddings", degraded.API)
		return r
	}

	pageHandler := handler.NewPageHandler(compareService, uploadService)
	apiHandler := handler.NewAPIHandler(compareService, uploadService)

	// Form flow
	r.GET("/", pageHandler.Index)
	r.POST("/upload", pageHandler.Upload)

	// Stored and display images for the result page
	r.Static("/uploads", cfg.UploadsDir)

	// JSON API
	r.POST("/api/similarity", apiHandler.Similarity)
	r.POST("/api/embeddings", apiHandler.Embeddings)

	return r
}
