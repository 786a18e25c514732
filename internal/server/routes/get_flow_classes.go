package routes

import (
	"errors"
	"net/http"

	"github.com/lantern-kg/lantern/internal/server/middleware"
	"github.com/lantern-kg/lantern/pkg/flow"
	"github.com/lantern-kg/lantern/pkg/flowclass"
	"github.com/lantern-kg/lantern/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetFlowClassesHandler lists every stored flow class definition.
func GetFlowClassesHandler(c echo.Context) error {
	ctx := c.Request().Context()
	manager := c.(*middleware.AppContext).App.FlowClasses

	definitions, err := manager.List(ctx)
	if err != nil {
		logger.Error("Failed to list flow classes", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, definitions)
}

func GetFlowClassHandler(c echo.Context) error {
	type getFlowClassParams struct {
		Name string `param:"name" validate:"required"`
	}

	params := new(getFlowClassParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	ctx := c.Request().Context()
	manager := c.(*middleware.AppContext).App.FlowClasses

	definition, err := manager.Get(ctx, params.Name)
	if err != nil {
		if errors.Is(err, flow.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Flow class not found"})
		}
		logger.Error("Failed to load flow class", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, definition)
}

// GetFlowClassSchemaHandler serves the definition schema clients use for
// form validation.
func GetFlowClassSchemaHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, flowclass.Schema())
}
