package socket

import (
	"context"
	"errors"
	"fmt"

	"github.com/lantern-kg/lantern/pkg/flow"
	"github.com/lantern-kg/lantern/pkg/rdf"
)

// Flow names understood by the service.
const (
	flowTriplesQuery         = "triples-query"
	flowEmbeddings           = "embeddings"
	flowGraphEmbeddingsQuery = "graph-embeddings-query"
	flowAgent                = "agent"
	flowIngest               = "ingest"
	flowKVGet                = "kv-get"
	flowKVPut                = "kv-put"
	flowKVDelete             = "kv-delete"
	flowCollections          = "collections"
)

const defaultQueryLimit = 100

const errTypeNotFound = "not-found"

var _ flow.Client = (*Client)(nil)

type triplesQueryRequest struct {
	flow.Pattern
	Limit      int    `json:"limit"`
	Collection string `json:"collection,omitempty"`
}

type triplesQueryResponse struct {
	Triples []rdf.Statement `json:"triples"`
}

type embeddingsRequest struct {
	Text string `json:"text"`
}

type embeddingsResponse struct {
	Vectors [][]float32 `json:"vectors"`
}

type graphEmbeddingsQueryRequest struct {
	Vectors    [][]float32 `json:"vectors"`
	Limit      int         `json:"limit"`
	Collection string      `json:"collection,omitempty"`
}

type graphEmbeddingsQueryResponse struct {
	Entities []rdf.Term `json:"entities"`
}

type agentRequest struct {
	Question   string `json:"question"`
	Collection string `json:"collection,omitempty"`
}

type agentResponse struct {
	Answer string `json:"answer"`
}

type kvRequest struct {
	Key   string `json:"key"`
	Value []byte `json:"value,omitempty"`
}

type kvGetResponse struct {
	Value []byte `json:"value"`
}

type collectionsResponse struct {
	Collections []string `json:"collections"`
}

func decodeError(flowName string, e *envelopeError) error {
	if e.Type == errTypeNotFound {
		return fmt.Errorf("%s: %w", flowName, flow.ErrNotFound)
	}
	if e.Message == "" {
		return fmt.Errorf("%s request failed", flowName)
	}
	return fmt.Errorf("%s request failed: %s", flowName, e.Message)
}

// TriplesQuery runs a triple pattern query against the service.
func (c *Client) TriplesQuery(ctx context.Context, pattern flow.Pattern, opts ...flow.QueryOption) ([]rdf.Statement, error) {
	options := flow.ApplyQueryOptions(defaultQueryLimit, opts)

	req := triplesQueryRequest{
		Pattern:    pattern,
		Limit:      options.Limit,
		Collection: options.Collection,
	}
	var resp triplesQueryResponse
	if err := c.call(ctx, flowTriplesQuery, req, &resp); err != nil {
		return nil, err
	}
	if resp.Triples == nil {
		return []rdf.Statement{}, nil
	}
	return resp.Triples, nil
}

// Embeddings turns text into embedding vectors.
func (c *Client) Embeddings(ctx context.Context, text string) ([][]float32, error) {
	var resp embeddingsResponse
	if err := c.call(ctx, flowEmbeddings, embeddingsRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	return resp.Vectors, nil
}

// GraphEmbeddingsQuery finds the entities nearest to the given vectors.
func (c *Client) GraphEmbeddingsQuery(ctx context.Context, vectors [][]float32, opts ...flow.QueryOption) ([]rdf.Term, error) {
	options := flow.ApplyQueryOptions(defaultQueryLimit, opts)

	req := graphEmbeddingsQueryRequest{
		Vectors:    vectors,
		Limit:      options.Limit,
		Collection: options.Collection,
	}
	var resp graphEmbeddingsQueryResponse
	if err := c.call(ctx, flowGraphEmbeddingsQuery, req, &resp); err != nil {
		return nil, err
	}
	if resp.Entities == nil {
		return []rdf.Term{}, nil
	}
	return resp.Entities, nil
}

// Agent runs a completion flow over the graph and returns its answer.
func (c *Client) Agent(ctx context.Context, prompt string, opts ...flow.QueryOption) (string, error) {
	options := flow.ApplyQueryOptions(0, opts)

	req := agentRequest{
		Question:   prompt,
		Collection: options.Collection,
	}
	var resp agentResponse
	if err := c.call(ctx, flowAgent, req, &resp); err != nil {
		return "", err
	}
	return resp.Answer, nil
}

// Ingest feeds a document into the service's graph pipeline.
func (c *Client) Ingest(ctx context.Context, req flow.IngestRequest) error {
	return c.call(ctx, flowIngest, req, nil)
}

// KVGet reads a key from the configuration store.
func (c *Client) KVGet(ctx context.Context, key string) ([]byte, error) {
	var resp kvGetResponse
	if err := c.call(ctx, flowKVGet, kvRequest{Key: key}, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// KVPut writes a key in the configuration store.
func (c *Client) KVPut(ctx context.Context, key string, value []byte) error {
	return c.call(ctx, flowKVPut, kvRequest{Key: key, Value: value}, nil)
}

// KVDelete removes a key from the configuration store. Deleting a
// missing key is not an error.
func (c *Client) KVDelete(ctx context.Context, key string) error {
	err := c.call(ctx, flowKVDelete, kvRequest{Key: key}, nil)
	if errors.Is(err, flow.ErrNotFound) {
		return nil
	}
	return err
}

// Collections lists the named graph partitions known to the service.
func (c *Client) Collections(ctx context.Context) ([]string, error) {
	var resp collectionsResponse
	if err := c.call(ctx, flowCollections, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Collections == nil {
		return []string{}, nil
	}
	return resp.Collections, nil
}
