package routes

import (
	"io"
	"net/http"

	"github.com/lantern-kg/lantern/internal/queue"
	"github.com/lantern-kg/lantern/internal/server/middleware"
	"github.com/lantern-kg/lantern/pkg/library"
	"github.com/lantern-kg/lantern/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AddLibraryRecordsHandler stores uploaded documents from
// multipart/form-data and enqueues each one for ingestion.
func AddLibraryRecordsHandler(c echo.Context) error {
	type addLibraryBody struct {
		Collection string `form:"collection"`
	}

	type addLibraryResponse struct {
		Message string            `json:"message"`
		Records *[]library.Record `json:"records,omitempty"`
	}

	data := new(addLibraryBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, addLibraryResponse{
			Message: "Invalid request body",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, addLibraryResponse{
			Message: "Invalid request body",
		})
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		return c.JSON(http.StatusBadRequest, addLibraryResponse{
			Message: "No files provided",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	records := make([]library.Record, 0, len(uploads))
	for _, file := range uploads {
		src, err := file.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, addLibraryResponse{
				Message: "Invalid request body",
			})
		}
		content, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return c.JSON(http.StatusBadRequest, addLibraryResponse{
				Message: "Invalid request body",
			})
		}

		record, err := app.Library.Add(ctx, library.AddParams{
			Name:        file.Filename,
			Collection:  data.Collection,
			ContentType: file.Header.Get("Content-Type"),
			Data:        content,
		})
		if err != nil {
			logger.Error("Failed to add library record", "name", file.Filename, "err", err)
			return c.JSON(http.StatusInternalServerError, addLibraryResponse{
				Message: "Internal server error",
			})
		}

		if err := queue.EnqueueLibraryRecord(app.Queue, record.Collection, record.ID); err != nil {
			logger.Error("Failed to enqueue library record", "record_id", record.ID, "err", err)
		}

		records = append(records, record)
	}

	return c.JSON(http.StatusOK, addLibraryResponse{
		Message: "Library records added",
		Records: &records,
	})
}
