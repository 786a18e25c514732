package graph

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lantern-kg/lantern/pkg/flow"
	"github.com/lantern-kg/lantern/pkg/rdf"
)

// FetchAllStatements collects every statement that mentions the
// identifier in any position. The subject, predicate and object queries
// run concurrently, each capped at the explorer's query limit, and the
// combined slice keeps subject results first, then predicate, then
// object.
func (e *Explorer) FetchAllStatements(ctx context.Context, identifier string, collection string) ([]rdf.Statement, error) {
	outer := "Query: " + identifier
	e.tracker.Add(outer)
	defer e.tracker.Remove(outer)

	queries := []struct {
		role     string
		activity string
		pattern  flow.Pattern
	}{
		{role: "subject", activity: "Query S: " + identifier, pattern: flow.Pattern{Subject: flow.String(identifier)}},
		{role: "predicate", activity: "Query P: " + identifier, pattern: flow.Pattern{Predicate: flow.String(identifier)}},
		{role: "object", activity: "Query O: " + identifier, pattern: flow.Pattern{Object: flow.String(identifier)}},
	}

	results := make([][]rdf.Statement, len(queries))

	g, gCtx := errgroup.WithContext(ctx)
	for i, query := range queries {
		g.Go(func() error {
			select {
			case <-gCtx.Done():
				return nil
			default:
				e.tracker.Add(query.activity)
				defer e.tracker.Remove(query.activity)

				statements, err := e.client.TriplesQuery(gCtx, query.pattern, e.queryOptions(e.queryLimit, collection)...)
				if err != nil {
					return fmt.Errorf("%s query for %s: %w", query.role, identifier, err)
				}

				results[i] = statements
				return nil
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, statements := range results {
		total += len(statements)
	}
	combined := make([]rdf.Statement, 0, total)
	for _, statements := range results {
		combined = append(combined, statements...)
	}
	return combined, nil
}
