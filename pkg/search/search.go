// Package search finds graph entities by semantic similarity: the query
// text is embedded, matched against the graph embedding space and the
// resulting identifiers are resolved to display labels.
package search

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lantern-kg/lantern/pkg/activity"
	"github.com/lantern-kg/lantern/pkg/flow"
	"github.com/lantern-kg/lantern/pkg/graph"
)

const (
	defaultLimit     = 10
	labelParallelism = 8
)

// Hit is a single search result ready for display.
type Hit struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Searcher resolves free-text queries to graph entities.
//
// A Searcher should be created using NewSearcher.
type Searcher struct {
	client   flow.Client
	explorer *graph.Explorer
	tracker  activity.Tracker
	limit    int
}

// NewSearcherParams defines the configuration for creating a Searcher.
type NewSearcherParams struct {
	Client   flow.Client
	Explorer *graph.Explorer
	Activity activity.Tracker

	// Limit caps the number of hits returned per search.
	Limit int
}

// NewSearcher creates a Searcher configured with the provided
// parameters.
func NewSearcher(params NewSearcherParams) (*Searcher, error) {
	if params.Client == nil {
		return nil, errors.New("search: flow client is required")
	}
	if params.Explorer == nil {
		return nil, errors.New("search: explorer is required")
	}

	tracker := params.Activity
	if tracker == nil {
		tracker = activity.Noop()
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	return &Searcher{
		client:   params.Client,
		explorer: params.Explorer,
		tracker:  tracker,
		limit:    limit,
	}, nil
}

// Search embeds the query text, finds the nearest entities and labels
// each hit. Hits keep the similarity order returned by the store.
func (s *Searcher) Search(ctx context.Context, text string, collection string) ([]Hit, error) {
	activityLabel := "Search: " + text
	s.tracker.Add(activityLabel)
	defer s.tracker.Remove(activityLabel)

	vectors, err := s.client.Embeddings(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	opts := []flow.QueryOption{flow.WithLimit(s.limit)}
	if collection != "" {
		opts = append(opts, flow.WithCollection(collection))
	}
	terms, err := s.client.GraphEmbeddingsQuery(ctx, vectors, opts...)
	if err != nil {
		return nil, fmt.Errorf("query graph embeddings: %w", err)
	}

	hits := make([]Hit, len(terms))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(labelParallelism)
	for i, term := range terms {
		g.Go(func() error {
			select {
			case <-gCtx.Done():
				return nil
			default:
				if !term.IsIRI() {
					hits[i] = Hit{ID: term.Text(), Label: term.Text()}
					return nil
				}

				label, err := s.explorer.ResolveLabel(gCtx, term.Text(), collection)
				if err != nil {
					return fmt.Errorf("label hit %s: %w", term.Text(), err)
				}
				hits[i] = Hit{ID: term.Text(), Label: label}
				return nil
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return hits, nil
}
