package routes

import (
	"github.com/gin-gonic/gin"

	parcelhandlers "github.com/landreg/cadastre/internal/interfaces/http/handlers/parcel"
	"github.com/landreg/cadastre/internal/interfaces/http/middleware"
)

type ParcelRouteConfig struct {
	Handler        *parcelhandlers.Handler
	AuthMiddleware *middleware.AuthMiddleware
}

func SetupParcelRoutes(engine *gin.Engine, config *ParcelRouteConfig) {
	auth := config.AuthMiddleware.RequireAuth()

	parcels := engine.Group("/parcels")
	parcels.Use(auth)
	{
		parcels.POST("/:upin/owners", config.Handler.LinkOwner)
		parcels.GET("/:upin/owners", config.Handler.ListOwnership)
		parcels.POST("/:upin/transfers", config.Handler.Transfer)
		parcels.GET("/:upin/transfers", config.Handler.ListTransferHistory)
		parcels.POST("/:upin/subdivisions", config.Handler.Subdivide)
		parcels.POST("/:upin/encumbrances", config.Handler.RegisterEncumbrance)
		parcels.GET("/:upin/encumbrances", config.Handler.ListEncumbrances)

		parcels.GET("/:upin", config.Handler.GetParcel)
	}

	ownerships := engine.Group("/ownerships")
	ownerships.Use(auth)
	{
		ownerships.PATCH("/:id/share", config.Handler.UpdateShare)
	}

	encumbrances := engine.Group("/encumbrances")
	encumbrances.Use(auth)
	{
		encumbrances.POST("/:id/release", config.Handler.ReleaseEncumbrance)
	}
}
