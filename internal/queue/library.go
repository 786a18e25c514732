package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"github.com/lantern-kg/lantern/pkg/flow"
	"github.com/lantern-kg/lantern/pkg/library"
	"github.com/lantern-kg/lantern/pkg/logger"
)

// LibraryMsg asks the worker to extract and ingest one library record.
type LibraryMsg struct {
	RecordID   string `json:"record_id"`
	Collection string `json:"collection"`
}

// EnqueueLibraryRecord publishes a processing request for one record.
func EnqueueLibraryRecord(ch *amqp091.Channel, collection string, recordID string) error {
	if ch == nil {
		return errors.New("queue: channel not configured")
	}
	data, err := json.Marshal(LibraryMsg{RecordID: recordID, Collection: collection})
	if err != nil {
		return fmt.Errorf("encode library message: %w", err)
	}
	return PublishFIFO(ch, LibraryQueue, data)
}

// ProcessLibraryMessage runs one library record through text extraction
// and graph ingestion. The returned error drives the caller's retry
// handling; the record's status field carries the failure to the UI
// either way.
func ProcessLibraryMessage(
	ctx context.Context,
	lib *library.Library,
	client flow.Client,
	ch *amqp091.Channel,
	msg string,
) error {
	var data LibraryMsg
	if err := json.Unmarshal([]byte(msg), &data); err != nil {
		return fmt.Errorf("decode library message: %w", err)
	}

	record, err := lib.Get(ctx, data.Collection, data.RecordID)
	if err != nil {
		return fmt.Errorf("load library record %s: %w", data.RecordID, err)
	}

	logger.Info("[Queue] Processing library record", "record_id", record.ID, "name", record.Name, "collection", record.Collection)

	if _, err := lib.UpdateStatus(ctx, data.Collection, record.ID, library.StatusProcessing, ""); err != nil {
		return fmt.Errorf("mark record %s as processing: %w", record.ID, err)
	}

	text, err := extractRecord(ctx, lib, record)
	if err == nil {
		if ingestErr := client.Ingest(ctx, flow.IngestRequest{
			DocumentID: record.ID,
			Collection: record.Collection,
			Name:       record.Name,
			Text:       text,
		}); ingestErr != nil {
			err = fmt.Errorf("ingest %s: %w", record.Name, ingestErr)
		}
	}

	if err != nil {
		if _, statusErr := lib.UpdateStatus(ctx, data.Collection, record.ID, library.StatusFailed, err.Error()); statusErr != nil {
			logger.Warn("[Queue] Failed to mark record as failed", "record_id", record.ID, "err", statusErr)
		}
		PublishNotification(ch, "error", fmt.Sprintf("Processing failed for %s", record.Name))
		return err
	}

	if _, err := lib.UpdateStatus(ctx, data.Collection, record.ID, library.StatusReady, ""); err != nil {
		return fmt.Errorf("mark record %s as ready: %w", record.ID, err)
	}

	PublishNotification(ch, "info", fmt.Sprintf("%s is ready", record.Name))
	logger.Info("[Queue] Library record ready", "record_id", record.ID, "name", record.Name)
	return nil
}

func extractRecord(ctx context.Context, lib *library.Library, record library.Record) (string, error) {
	content, err := lib.Content(ctx, record)
	if err != nil {
		return "", fmt.Errorf("load content for %s: %w", record.Name, err)
	}
	text, err := library.ExtractText(content, record.ContentType, record.Name)
	if err != nil {
		return "", fmt.Errorf("extract text from %s: %w", record.Name, err)
	}
	return text, nil
}
