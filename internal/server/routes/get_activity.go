package routes

import (
	"net/http"

	"github.com/lantern-kg/lantern/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// GetActivityHandler returns the labels of every in-flight operation.
func GetActivityHandler(c echo.Context) error {
	registry := c.(*middleware.AppContext).App.Activity
	return c.JSON(http.StatusOK, registry.Active())
}
