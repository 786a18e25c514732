package routes

import (
	"net/http"

	"github.com/lantern-kg/lantern/internal/server/middleware"
	"github.com/lantern-kg/lantern/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetCostsHandler returns the stored cost table. Deployments without
// stored rates get an empty table.
func GetCostsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	manager := c.(*middleware.AppContext).App.Costs

	table, err := manager.Get(ctx)
	if err != nil {
		logger.Error("Failed to load cost table", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, table)
}
