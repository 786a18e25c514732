package routes

import (
	"net/http"

	"github.com/lantern-kg/lantern/internal/server/middleware"
	"github.com/lantern-kg/lantern/pkg/logger"

	"github.com/labstack/echo/v4"
)

func DeleteFlowClassHandler(c echo.Context) error {
	type deleteFlowClassParams struct {
		Name string `param:"name" validate:"required"`
	}

	type deleteFlowClassResponse struct {
		Message string `json:"message"`
	}

	params := new(deleteFlowClassParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteFlowClassResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteFlowClassResponse{
			Message: "Invalid request params",
		})
	}

	ctx := c.Request().Context()
	manager := c.(*middleware.AppContext).App.FlowClasses

	if err := manager.Delete(ctx, params.Name); err != nil {
		logger.Error("Failed to delete flow class", "err", err)
		return c.JSON(http.StatusInternalServerError, deleteFlowClassResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, deleteFlowClassResponse{
		Message: "Flow class deleted",
	})
}
