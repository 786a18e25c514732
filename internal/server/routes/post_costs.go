package routes

import (
	"errors"
	"net/http"

	"github.com/lantern-kg/lantern/internal/server/middleware"
	"github.com/lantern-kg/lantern/pkg/costs"
	"github.com/lantern-kg/lantern/pkg/logger"

	"github.com/labstack/echo/v4"
)

// EstimateCostHandler prices a prompt against the stored rates before it
// is sent anywhere.
func EstimateCostHandler(c echo.Context) error {
	type estimateCostData struct {
		Text         string `json:"text" validate:"required"`
		Model        string `json:"model" validate:"required"`
		OutputTokens int    `json:"output_tokens"`
	}

	type estimateCostResponse struct {
		Message  string          `json:"message"`
		Estimate *costs.Estimate `json:"estimate,omitempty"`
	}

	data := new(estimateCostData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, estimateCostResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, estimateCostResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	manager := c.(*middleware.AppContext).App.Costs

	estimate, err := manager.EstimateCost(ctx, data.Text, data.Model, data.OutputTokens)
	if err != nil {
		if errors.Is(err, costs.ErrUnknownModel) {
			return c.JSON(http.StatusBadRequest, estimateCostResponse{
				Message: "No rates stored for model",
			})
		}
		logger.Error("Failed to estimate cost", "err", err)
		return c.JSON(http.StatusInternalServerError, estimateCostResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, estimateCostResponse{
		Message:  "Cost estimated",
		Estimate: &estimate,
	})
}
