package routes

import (
	"errors"
	"net/http"

	"github.com/lantern-kg/lantern/internal/server/middleware"
	"github.com/lantern-kg/lantern/pkg/flowclass"
	"github.com/lantern-kg/lantern/pkg/logger"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// PutFlowClassHandler creates or replaces the flow class named in the
// path. The name in the body is ignored.
func PutFlowClassHandler(c echo.Context) error {
	type putFlowClassResponse struct {
		Message   string                `json:"message"`
		FlowClass *flowclass.Definition `json:"flow_class,omitempty"`
	}

	data := new(flowclass.Definition)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, putFlowClassResponse{
			Message: "Invalid request body",
		})
	}
	data.Name = c.Param("name")

	ctx := c.Request().Context()
	manager := c.(*middleware.AppContext).App.FlowClasses

	if err := manager.Save(ctx, *data); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return c.JSON(http.StatusBadRequest, putFlowClassResponse{
				Message: "Invalid flow class definition",
			})
		}
		logger.Error("Failed to save flow class", "err", err)
		return c.JSON(http.StatusInternalServerError, putFlowClassResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, putFlowClassResponse{
		Message:   "Flow class saved successfully",
		FlowClass: data,
	})
}
