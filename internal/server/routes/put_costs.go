package routes

import (
	"net/http"

	"github.com/lantern-kg/lantern/internal/server/middleware"
	"github.com/lantern-kg/lantern/pkg/costs"
	"github.com/lantern-kg/lantern/pkg/logger"

	"github.com/labstack/echo/v4"
)

func PutCostsHandler(c echo.Context) error {
	type putCostsResponse struct {
		Message string       `json:"message"`
		Table   *costs.Table `json:"table,omitempty"`
	}

	data := new(costs.Table)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, putCostsResponse{
			Message: "Invalid request body",
		})
	}
	if data.Models == nil {
		data.Models = map[string]costs.ModelRate{}
	}

	ctx := c.Request().Context()
	manager := c.(*middleware.AppContext).App.Costs

	if err := manager.Save(ctx, *data); err != nil {
		logger.Error("Failed to save cost table", "err", err)
		return c.JSON(http.StatusInternalServerError, putCostsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, putCostsResponse{
		Message: "Cost table saved successfully",
		Table:   data,
	})
}
