package routes

import (
	"errors"
	"net/http"

	"github.com/lantern-kg/lantern/internal/server/middleware"
	"github.com/lantern-kg/lantern/pkg/flow"
	"github.com/lantern-kg/lantern/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetSettingHandler returns the stored JSON document for a settings key
// as-is.
func GetSettingHandler(c echo.Context) error {
	type getSettingParams struct {
		Key string `param:"key" validate:"required"`
	}

	params := new(getSettingParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	ctx := c.Request().Context()
	client := c.(*middleware.AppContext).App.Flow

	data, err := client.KVGet(ctx, "settings/"+params.Key)
	if err != nil {
		if errors.Is(err, flow.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Setting not found"})
		}
		logger.Error("Failed to load setting", "key", params.Key, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSONBlob(http.StatusOK, data)
}
