package graph

import (
	"context"
	"fmt"

	"github.com/lantern-kg/lantern/pkg/flow"
	"github.com/lantern-kg/lantern/pkg/rdf"
)

// ResolveLabel returns the display label for an identifier.
//
// Well-known vocabulary identifiers resolve from a local table without
// touching the flow service. Everything else issues a single label query;
// when the store holds no label statement the identifier itself is
// returned, so the result is always renderable.
func (e *Explorer) ResolveLabel(ctx context.Context, identifier string, collection string) (string, error) {
	if label, ok := rdf.WellKnownLabel(identifier); ok {
		return label, nil
	}

	activityLabel := "Label " + identifier
	e.tracker.Add(activityLabel)
	defer e.tracker.Remove(activityLabel)

	statements, err := e.client.TriplesQuery(ctx, flow.Pattern{
		Subject:   flow.String(identifier),
		Predicate: flow.String(rdf.LabelPredicate),
	}, e.queryOptions(1, collection)...)
	if err != nil {
		return "", fmt.Errorf("resolve label for %s: %w", identifier, err)
	}

	if len(statements) == 0 {
		return identifier, nil
	}
	return statements[0].Object.Text(), nil
}
