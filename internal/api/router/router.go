package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/media-service/internal/api/handlers/apikey"
	"github.com/aliskhannn/media-service/internal/api/handlers/media"
	"github.com/aliskhannn/media-service/internal/api/handlers/task"
	"github.com/aliskhannn/media-service/internal/api/handlers/transformation"
	"github.com/aliskhannn/media-service/internal/api/middleware"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Media           *media.Handler
	Transformations *transformation.Handler
	ApiKeys         *apikey.Handler
	Tasks           *task.Handler
}

// Setup builds the engine. auth guards everything under /api/v0 and
// requireMaster additionally guards API key management.
func Setup(h Handlers, auth, requireMaster func(c *ginext.Context), metrics http.Handler) *ginext.Engine {
	r := ginext.New()

	r.Use(middleware.CORSMiddleware())
	r.Use(ginext.Logger())
	r.Use(ginext.Recovery())

	r.GET("/health", func(c *ginext.Context) {
		c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	if metrics == nil {
		metrics = promhttp.Handler()
	}
	r.GET("/metrics", func(c *ginext.Context) {
		metrics.ServeHTTP(c.Writer, c.Request)
	})

	api := r.Group("/api/v0")
	api.Use(auth)

	api.GET("/media/*path", h.Media.Get)
	api.DELETE("/media/*path", h.Media.Delete)
	api.POST("/media/move", h.Media.Move)
	api.POST("/media/copy", h.Media.Copy)
	api.GET("/download/*path", h.Media.Download)
	api.POST("/upload/*path", h.Media.Upload)

	api.GET("/transformations", h.Transformations.List)
	api.GET("/named_transformations", h.Transformations.ListNamed)
	api.POST("/named_transformations", h.Transformations.SaveNamed)
	api.DELETE("/named_transformations/:name", h.Transformations.DeleteNamed)

	api.DELETE("/cache", h.Tasks.ClearCache)
	api.GET("/tasks", h.Tasks.History)

	keys := api.Group("/apikeys")
	keys.Use(requireMaster)
	keys.GET("", h.ApiKeys.List)
	keys.POST("", h.ApiKeys.Create)
	keys.DELETE("/:name", h.ApiKeys.Delete)

	return r
}
