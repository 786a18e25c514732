// Package graph implements the subgraph construction and
// relationship-navigation engine: it discovers every statement touching a
// focal entity, resolves display labels for the identifiers involved, and
// folds the result into an incrementally growing node/link subgraph.
package graph

import (
	"errors"

	"github.com/lantern-kg/lantern/pkg/activity"
	"github.com/lantern-kg/lantern/pkg/flow"
)

const (
	defaultQueryLimit     = 30
	defaultExpandLimit    = 20
	defaultParallelLabels = 8
)

// Explorer drives fetch, enrichment and merge against a flow client.
// It holds no graph state of its own: every operation takes a Subgraph in
// and returns a new one, so the accumulator stays owned by the caller.
//
// An Explorer should be created using NewExplorer.
type Explorer struct {
	client  flow.Client
	tracker activity.Tracker

	parallelLabels int
	queryLimit     int
	expandLimit    int
}

// NewExplorerParams defines the configuration for creating an Explorer.
//
// Client is the flow service connection and is required.
// Activity receives start/end signals for every remote phase; nil
// disables the signals.
// ParallelLabels caps concurrent label lookups within one enrichment
// step.
// QueryLimit caps each of the three fan-out queries; ExpandLimit caps a
// relationship expansion query.
type NewExplorerParams struct {
	Client   flow.Client
	Activity activity.Tracker

	ParallelLabels int
	QueryLimit     int
	ExpandLimit    int
}

// NewExplorer creates an Explorer configured with the provided
// parameters.
//
// Example:
//
//	params := graph.NewExplorerParams{
//		Client:         flowClient,
//		Activity:       registry,
//		ParallelLabels: 8,
//	}
//	explorer, err := graph.NewExplorer(params)
//	if err != nil {
//		log.Fatal(err)
//	}
func NewExplorer(params NewExplorerParams) (*Explorer, error) {
	if params.Client == nil {
		return nil, errors.New("graph: flow client is required")
	}

	tracker := params.Activity
	if tracker == nil {
		tracker = activity.Noop()
	}

	parallelLabels := params.ParallelLabels
	if parallelLabels <= 0 {
		parallelLabels = defaultParallelLabels
	}
	queryLimit := params.QueryLimit
	if queryLimit <= 0 {
		queryLimit = defaultQueryLimit
	}
	expandLimit := params.ExpandLimit
	if expandLimit <= 0 {
		expandLimit = defaultExpandLimit
	}

	e := &Explorer{
		client:  params.Client,
		tracker: tracker,

		parallelLabels: parallelLabels,
		queryLimit:     queryLimit,
		expandLimit:    expandLimit,
	}

	return e, nil
}

func (e *Explorer) queryOptions(limit int, collection string) []flow.QueryOption {
	opts := []flow.QueryOption{flow.WithLimit(limit)}
	if collection != "" {
		opts = append(opts, flow.WithCollection(collection))
	}
	return opts
}
