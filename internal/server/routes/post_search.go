package routes

import (
	"net/http"

	"github.com/lantern-kg/lantern/internal/server/middleware"
	"github.com/lantern-kg/lantern/pkg/logger"
	"github.com/lantern-kg/lantern/pkg/search"

	"github.com/labstack/echo/v4"
)

// SearchHandler finds the entities nearest to a free-text query.
func SearchHandler(c echo.Context) error {
	type searchRequest struct {
		Text       string `json:"text" validate:"required"`
		Collection string `json:"collection"`
	}

	type searchResponse struct {
		Message string       `json:"message"`
		Hits    []search.Hit `json:"hits"`
	}

	data := new(searchRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchResponse{
			Message: "Invalid request body",
		})
	}

	searcher := c.(*middleware.AppContext).App.Searcher
	ctx := c.Request().Context()

	hits, err := searcher.Search(ctx, data.Text, data.Collection)
	if err != nil {
		logger.Error("Search failed", "text", data.Text, "err", err)
		return c.JSON(http.StatusInternalServerError, searchResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, searchResponse{
		Message: "Search completed",
		Hits:    hits,
	})
}
