package routes

import (
	"net/http"

	"github.com/lantern-kg/lantern/internal/server/middleware"
	"github.com/lantern-kg/lantern/pkg/logger"

	"github.com/labstack/echo/v4"
)

func DeleteSettingHandler(c echo.Context) error {
	type deleteSettingResponse struct {
		Message string `json:"message"`
	}

	key := c.Param("key")
	if key == "" {
		return c.JSON(http.StatusBadRequest, deleteSettingResponse{
			Message: "Invalid request params",
		})
	}

	ctx := c.Request().Context()
	client := c.(*middleware.AppContext).App.Flow

	if err := client.KVDelete(ctx, "settings/"+key); err != nil {
		logger.Error("Failed to delete setting", "key", key, "err", err)
		return c.JSON(http.StatusInternalServerError, deleteSettingResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, deleteSettingResponse{
		Message: "Setting deleted",
	})
}
