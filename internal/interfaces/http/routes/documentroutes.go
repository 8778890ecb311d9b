package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/landreg/cadastre/internal/interfaces/http/middleware"
)

type DocumentRouteConfig struct {
	StorageDir     string
	AuthMiddleware *middleware.AuthMiddleware
}

// SetupDocumentRoutes serves stored uploads under /files to authenticated
// callers. Document base_url should point here.
func SetupDocumentRoutes(engine *gin.Engine, config *DocumentRouteConfig) {
	files := engine.Group("/files")
	files.Use(config.AuthMiddleware.RequireAuth())
	files.Static("/", config.StorageDir)
}
