package server

import (
	"github.com/lantern-kg/lantern/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Graph routes
	apiRoutes.POST("/graph/subgraph", routes.BuildSubgraphHandler)
	apiRoutes.POST("/graph/expand", routes.ExpandSubgraphHandler)
	apiRoutes.GET("/labels", routes.GetLabelHandler)

	// Search routes
	apiRoutes.POST("/search", routes.SearchHandler)

	// Activity routes
	apiRoutes.GET("/activity", routes.GetActivityHandler)

	// Flow class routes
	apiRoutes.GET("/flow-classes", routes.GetFlowClassesHandler)
	apiRoutes.GET("/flow-classes/schema", routes.GetFlowClassSchemaHandler)
	apiRoutes.GET("/flow-classes/:name", routes.GetFlowClassHandler)
	apiRoutes.PUT("/flow-classes/:name", routes.PutFlowClassHandler)
	apiRoutes.DELETE("/flow-classes/:name", routes.DeleteFlowClassHandler)
	apiRoutes.POST("/flow-classes/suggestions", routes.SuggestFlowClassHandler)

	// Cost routes
	apiRoutes.GET("/costs", routes.GetCostsHandler)
	apiRoutes.PUT("/costs", routes.PutCostsHandler)
	apiRoutes.POST("/costs/estimates", routes.EstimateCostHandler)

	// Library routes
	apiRoutes.GET("/library", routes.GetLibraryHandler)
	apiRoutes.POST("/library", routes.AddLibraryRecordsHandler)
	apiRoutes.DELETE("/library", routes.DeleteLibraryRecordHandler)
	apiRoutes.GET("/library/:id/download", routes.DownloadLibraryRecordHandler)

	// Collection routes
	apiRoutes.GET("/collections", routes.GetCollectionsHandler)

	// Settings routes
	apiRoutes.GET("/settings/:key", routes.GetSettingHandler)
	apiRoutes.PUT("/settings/:key", routes.PutSettingHandler)
	apiRoutes.DELETE("/settings/:key", routes.DeleteSettingHandler)
}
