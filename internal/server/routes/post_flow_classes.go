package routes

import (
	"net/http"

	"github.com/lantern-kg/lantern/internal/server/middleware"
	"github.com/lantern-kg/lantern/pkg/flowclass"
	"github.com/lantern-kg/lantern/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SuggestFlowClassHandler asks the agent flow to draft a definition for
// the described use case. The draft is returned without being stored.
func SuggestFlowClassHandler(c echo.Context) error {
	type suggestFlowClassData struct {
		Description string `json:"description" validate:"required"`
	}

	type suggestFlowClassResponse struct {
		Message   string                `json:"message"`
		FlowClass *flowclass.Definition `json:"flow_class,omitempty"`
	}

	data := new(suggestFlowClassData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, suggestFlowClassResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, suggestFlowClassResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	manager := c.(*middleware.AppContext).App.FlowClasses

	definition, err := manager.Suggest(ctx, data.Description)
	if err != nil {
		logger.Error("Failed to suggest flow class", "err", err)
		return c.JSON(http.StatusInternalServerError, suggestFlowClassResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, suggestFlowClassResponse{
		Message:   "Flow class suggested",
		FlowClass: &definition,
	})
}
