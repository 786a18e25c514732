package routes

import (
	"errors"
	"net/http"

	"github.com/lantern-kg/lantern/internal/server/middleware"
	"github.com/lantern-kg/lantern/pkg/library"
	"github.com/lantern-kg/lantern/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DeleteLibraryRecordHandler removes one record, or the whole collection
// when no id is given.
func DeleteLibraryRecordHandler(c echo.Context) error {
	type deleteLibraryParams struct {
		ID         string `query:"id"`
		Collection string `query:"collection"`
	}

	type deleteLibraryResponse struct {
		Message string `json:"message"`
	}

	params := new(deleteLibraryParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteLibraryResponse{
			Message: "Invalid request params",
		})
	}

	ctx := c.Request().Context()
	lib := c.(*middleware.AppContext).App.Library

	if params.ID == "" {
		if err := lib.Clear(ctx, params.Collection); err != nil {
			logger.Error("Failed to clear library collection", "collection", params.Collection, "err", err)
			return c.JSON(http.StatusInternalServerError, deleteLibraryResponse{
				Message: "Internal server error",
			})
		}
		return c.JSON(http.StatusOK, deleteLibraryResponse{
			Message: "Library collection cleared",
		})
	}

	if err := lib.Delete(ctx, params.Collection, params.ID); err != nil {
		if errors.Is(err, library.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, deleteLibraryResponse{
				Message: "Library record not found",
			})
		}
		logger.Error("Failed to delete library record", "record_id", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, deleteLibraryResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, deleteLibraryResponse{
		Message: "Library record deleted",
	})
}
