package routes

import (
	"net/http"

	"github.com/lantern-kg/lantern/internal/server/middleware"
	"github.com/lantern-kg/lantern/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetCollectionsHandler lists the collections known to the flow service.
func GetCollectionsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	client := c.(*middleware.AppContext).App.Flow

	collections, err := client.Collections(ctx)
	if err != nil {
		logger.Error("Failed to list collections", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, collections)
}
