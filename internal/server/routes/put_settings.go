package routes

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/lantern-kg/lantern/internal/server/middleware"
	"github.com/lantern-kg/lantern/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PutSettingHandler stores the request body under a settings key. The
// body must be a valid JSON document but its shape is up to the client.
func PutSettingHandler(c echo.Context) error {
	type putSettingResponse struct {
		Message string `json:"message"`
	}

	key := c.Param("key")
	if key == "" {
		return c.JSON(http.StatusBadRequest, putSettingResponse{
			Message: "Invalid request params",
		})
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, putSettingResponse{
			Message: "Invalid request body",
		})
	}
	if !json.Valid(body) {
		return c.JSON(http.StatusBadRequest, putSettingResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	client := c.(*middleware.AppContext).App.Flow

	if err := client.KVPut(ctx, "settings/"+key, body); err != nil {
		logger.Error("Failed to store setting", "key", key, "err", err)
		return c.JSON(http.StatusInternalServerError, putSettingResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, putSettingResponse{
		Message: "Setting saved successfully",
	})
}
