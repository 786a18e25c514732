package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/lantern-kg/lantern/internal/server/middleware"
	"github.com/lantern-kg/lantern/pkg/library"
	"github.com/lantern-kg/lantern/pkg/logger"

	"github.com/labstack/echo/v4"
)

const downloadLinkExpiry = 15 * time.Minute

// GetLibraryHandler lists the records of a collection in insertion
// order.
func GetLibraryHandler(c echo.Context) error {
	type getLibraryParams struct {
		Collection string `query:"collection"`
	}

	params := new(getLibraryParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	ctx := c.Request().Context()
	lib := c.(*middleware.AppContext).App.Library

	records, err := lib.List(ctx, params.Collection)
	if err != nil {
		logger.Error("Failed to list library records", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, records)
}

// DownloadLibraryRecordHandler returns a short-lived presigned URL for
// the record's stored blob.
func DownloadLibraryRecordHandler(c echo.Context) error {
	type downloadLibraryParams struct {
		ID         string `param:"id" validate:"required"`
		Collection string `query:"collection"`
	}

	params := new(downloadLibraryParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	ctx := c.Request().Context()
	lib := c.(*middleware.AppContext).App.Library

	url, err := lib.DownloadLink(ctx, params.Collection, params.ID, downloadLinkExpiry)
	if err != nil {
		if errors.Is(err, library.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Library record not found"})
		}
		logger.Error("Failed to presign download", "record_id", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
