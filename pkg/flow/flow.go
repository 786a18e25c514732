// Package flow defines the client surface of the remote flow-scoped
// graph/inference service. The engine and every sibling feature consume
// this interface; pkg/flow/socket provides the WebSocket implementation.
package flow

import (
	"context"
	"errors"

	"github.com/lantern-kg/lantern/pkg/rdf"
)

// ErrNotFound is returned by KVGet when the key has no value.
var ErrNotFound = errors.New("flow: key not found")

// Pattern is a triple pattern. A nil field is a wildcard and is omitted
// from the wire request entirely; an empty string is a real (empty)
// value, not a wildcard.
type Pattern struct {
	Subject   *string `json:"subject,omitempty"`
	Predicate *string `json:"predicate,omitempty"`
	Object    *string `json:"object,omitempty"`
}

// String returns a pointer to s, for filling Pattern fields inline.
func String(s string) *string {
	return &s
}

// QueryOptions holds the per-call settings shared by the query-shaped
// operations.
type QueryOptions struct {
	// Limit caps the number of results. Zero means the operation default.
	Limit int
	// Collection scopes the call to a named partition of the graph.
	// Empty means unscoped.
	Collection string
}

// QueryOption is a functional option for query-shaped operations.
type QueryOption func(*QueryOptions)

// WithLimit returns a QueryOption that caps the result count.
func WithLimit(limit int) QueryOption {
	return func(o *QueryOptions) {
		o.Limit = limit
	}
}

// WithCollection returns a QueryOption that scopes the call to a named
// collection.
func WithCollection(collection string) QueryOption {
	return func(o *QueryOptions) {
		o.Collection = collection
	}
}

// ApplyQueryOptions folds opts over a QueryOptions with the given
// default limit.
func ApplyQueryOptions(defaultLimit int, opts []QueryOption) QueryOptions {
	options := QueryOptions{Limit: defaultLimit}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Limit <= 0 {
		options.Limit = defaultLimit
	}
	return options
}

// IngestRequest asks the service to take a document's text into a
// collection's graph.
type IngestRequest struct {
	DocumentID string            `json:"document_id"`
	Collection string            `json:"collection,omitempty"`
	Name       string            `json:"name,omitempty"`
	Text       string            `json:"text"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Client is the flow service seen from this process.
//
// TriplesQuery returns an empty slice, never nil, when nothing matches.
// None of the operations retry; a transport failure surfaces to the
// caller as-is.
type Client interface {
	// TriplesQuery runs a triple pattern query.
	TriplesQuery(ctx context.Context, pattern Pattern, opts ...QueryOption) ([]rdf.Statement, error)

	// Embeddings turns text into embedding vectors.
	Embeddings(ctx context.Context, text string) ([][]float32, error)

	// GraphEmbeddingsQuery finds the nearest entities to the given
	// vectors.
	GraphEmbeddingsQuery(ctx context.Context, vectors [][]float32, opts ...QueryOption) ([]rdf.Term, error)

	// Agent runs a completion/agent flow over the graph. The limit
	// option is ignored; the collection option scopes the agent's view.
	Agent(ctx context.Context, prompt string, opts ...QueryOption) (string, error)

	// Ingest feeds a document into the service's graph pipeline.
	Ingest(ctx context.Context, req IngestRequest) error

	// KVGet reads a key from the configuration store. Returns
	// ErrNotFound when the key has no value.
	KVGet(ctx context.Context, key string) ([]byte, error)
	// KVPut writes a key in the configuration store.
	KVPut(ctx context.Context, key string, value []byte) error
	// KVDelete removes a key from the configuration store. Deleting a
	// missing key is not an error.
	KVDelete(ctx context.Context, key string) error

	// Collections lists the named graph partitions.
	Collections(ctx context.Context) ([]string, error)

	// Close releases the underlying connection. The client is unusable
	// afterwards.
	Close() error
}
