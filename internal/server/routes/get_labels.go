package routes

import (
	"net/http"

	"github.com/lantern-kg/lantern/internal/server/middleware"
	"github.com/lantern-kg/lantern/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetLabelHandler resolves the display label for a single identifier.
func GetLabelHandler(c echo.Context) error {
	type getLabelParams struct {
		ID         string `query:"id" validate:"required"`
		Collection string `query:"collection"`
	}

	type getLabelResponse struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	}

	params := new(getLabelParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	explorer := c.(*middleware.AppContext).App.Explorer
	ctx := c.Request().Context()

	label, err := explorer.ResolveLabel(ctx, params.ID, params.Collection)
	if err != nil {
		logger.Error("Failed to resolve label", "id", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, getLabelResponse{
		ID:    params.ID,
		Label: label,
	})
}
