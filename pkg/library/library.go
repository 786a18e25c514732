// Package library manages uploaded documents: record metadata lives in
// the flow service's KV store, raw blobs in object storage, and the
// worker feeds extracted text into graph ingestion.
package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/lantern-kg/lantern/pkg/flow"
)

const (
	kvPrefix          = "library/"
	defaultCollection = "default"
)

// ErrRecordNotFound reports a library record that does not exist.
var ErrRecordNotFound = errors.New("library: record not found")

// Status tracks a document through ingestion.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// Record is the stored metadata for one document.
type Record struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Collection  string    `json:"collection"`
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Status      Status    `json:"status"`
	Error       string    `json:"error,omitempty"`
	AddedAt     time.Time `json:"added_at"`
}

// BlobStore is the slice of object storage the library needs.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	PresignDownload(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Library coordinates records and blobs for uploaded documents.
//
// A Library should be created using NewLibrary.
type Library struct {
	client flow.Client
	blobs  BlobStore

	now   func() time.Time
	newID func() (string, error)
}

// NewLibraryParams defines the configuration for creating a Library.
type NewLibraryParams struct {
	Client flow.Client
	Blobs  BlobStore
}

// NewLibrary creates a Library configured with the provided parameters.
func NewLibrary(params NewLibraryParams) (*Library, error) {
	if params.Client == nil {
		return nil, errors.New("library: flow client is required")
	}
	if params.Blobs == nil {
		return nil, errors.New("library: blob store is required")
	}

	return &Library{
		client: params.Client,
		blobs:  params.Blobs,
		now:    time.Now,
		newID:  func() (string, error) { return gonanoid.New() },
	}, nil
}

// AddParams describes a document to add.
type AddParams struct {
	Name        string
	Collection  string
	ContentType string
	Data        []byte
}

// Add stores the blob, creates the record in queued state and returns
// it. Ingestion itself happens later on the worker.
func (l *Library) Add(ctx context.Context, params AddParams) (Record, error) {
	collection := normalizeCollection(params.Collection)

	id, err := l.newID()
	if err != nil {
		return Record{}, fmt.Errorf("generate record id: %w", err)
	}

	key := collection + "/" + id + filepath.Ext(params.Name)
	if err := l.blobs.Put(ctx, key, params.Data, params.ContentType); err != nil {
		return Record{}, fmt.Errorf("store blob for %s: %w", params.Name, err)
	}

	record := Record{
		ID:          id,
		Name:        params.Name,
		Collection:  collection,
		Key:         key,
		ContentType: params.ContentType,
		Size:        int64(len(params.Data)),
		Status:      StatusQueued,
		AddedAt:     l.now().UTC(),
	}

	records, err := l.loadRecords(ctx, collection)
	if err != nil {
		return Record{}, err
	}
	if err := l.saveRecords(ctx, collection, append(records, record)); err != nil {
		return Record{}, err
	}

	return record, nil
}

// List returns the records of a collection in insertion order.
func (l *Library) List(ctx context.Context, collection string) ([]Record, error) {
	return l.loadRecords(ctx, normalizeCollection(collection))
}

// Get loads a single record.
func (l *Library) Get(ctx context.Context, collection string, id string) (Record, error) {
	records, err := l.loadRecords(ctx, normalizeCollection(collection))
	if err != nil {
		return Record{}, err
	}
	for _, record := range records {
		if record.ID == id {
			return record, nil
		}
	}
	return Record{}, fmt.Errorf("record %s in %s: %w", id, normalizeCollection(collection), ErrRecordNotFound)
}

// Delete removes the blob and the record.
func (l *Library) Delete(ctx context.Context, collection string, id string) error {
	collection = normalizeCollection(collection)

	records, err := l.loadRecords(ctx, collection)
	if err != nil {
		return err
	}

	idx := -1
	for i, record := range records {
		if record.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("record %s in %s: %w", id, collection, ErrRecordNotFound)
	}

	if err := l.blobs.Delete(ctx, records[idx].Key); err != nil {
		return fmt.Errorf("delete blob %s: %w", records[idx].Key, err)
	}

	remaining := append(append([]Record{}, records[:idx]...), records[idx+1:]...)
	return l.saveRecords(ctx, collection, remaining)
}

// Clear removes a whole collection: every blob under its prefix and the
// record list itself.
func (l *Library) Clear(ctx context.Context, collection string) error {
	collection = normalizeCollection(collection)

	if err := l.blobs.DeletePrefix(ctx, collection+"/"); err != nil {
		return fmt.Errorf("clear blobs for %s: %w", collection, err)
	}
	if err := l.client.KVDelete(ctx, kvPrefix+collection); err != nil && !errors.Is(err, flow.ErrNotFound) {
		return fmt.Errorf("clear records for %s: %w", collection, err)
	}
	return nil
}

// UpdateStatus transitions a record and returns the updated value. The
// message is stored on failures and cleared otherwise.
func (l *Library) UpdateStatus(ctx context.Context, collection string, id string, status Status, message string) (Record, error) {
	collection = normalizeCollection(collection)

	records, err := l.loadRecords(ctx, collection)
	if err != nil {
		return Record{}, err
	}

	for i := range records {
		if records[i].ID != id {
			continue
		}
		records[i].Status = status
		if status == StatusFailed {
			records[i].Error = message
		} else {
			records[i].Error = ""
		}
		if err := l.saveRecords(ctx, collection, records); err != nil {
			return Record{}, err
		}
		return records[i], nil
	}
	return Record{}, fmt.Errorf("record %s in %s: %w", id, collection, ErrRecordNotFound)
}

// Content loads the raw blob for a record.
func (l *Library) Content(ctx context.Context, record Record) ([]byte, error) {
	data, err := l.blobs.Get(ctx, record.Key)
	if err != nil {
		return nil, fmt.Errorf("load blob %s: %w", record.Key, err)
	}
	return data, nil
}

// DownloadLink returns a presigned URL for the record's blob.
func (l *Library) DownloadLink(ctx context.Context, collection string, id string, expiry time.Duration) (string, error) {
	record, err := l.Get(ctx, collection, id)
	if err != nil {
		return "", err
	}

	link, err := l.blobs.PresignDownload(ctx, record.Key, expiry)
	if err != nil {
		return "", fmt.Errorf("presign download for %s: %w", record.Key, err)
	}
	return link, nil
}

func (l *Library) loadRecords(ctx context.Context, collection string) ([]Record, error) {
	data, err := l.client.KVGet(ctx, kvPrefix+collection)
	if errors.Is(err, flow.ErrNotFound) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load library %s: %w", collection, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode library %s: %w", collection, err)
	}
	return records, nil
}

func (l *Library) saveRecords(ctx context.Context, collection string, records []Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode library %s: %w", collection, err)
	}
	if err := l.client.KVPut(ctx, kvPrefix+collection, data); err != nil {
		return fmt.Errorf("store library %s: %w", collection, err)
	}
	return nil
}

func normalizeCollection(collection string) string {
	if collection == "" {
		return defaultCollection
	}
	return collection
}
