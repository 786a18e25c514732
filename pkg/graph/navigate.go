package graph

import (
	"context"
	"fmt"

	"github.com/lantern-kg/lantern/pkg/flow"
)

// Direction selects which end of a relationship the focal node sits on.
type Direction string

const (
	// DirectionOutgoing follows edges where the node is the subject.
	DirectionOutgoing Direction = "outgoing"
	// DirectionIncoming follows edges where the node is the object.
	DirectionIncoming Direction = "incoming"
)

// ParseDirection validates a wire-level direction string.
func ParseDirection(value string) (Direction, error) {
	switch Direction(value) {
	case DirectionOutgoing:
		return DirectionOutgoing, nil
	case DirectionIncoming:
		return DirectionIncoming, nil
	default:
		return "", fmt.Errorf("unknown direction %q", value)
	}
}

// BuildSubgraph fetches everything around the identifier, enriches it
// and merges it into base, returning the grown subgraph. On any failure
// base is returned unchanged alongside the error.
//
// A build always runs to completion once started. Callers that issue
// overlapping builds and only want the newest result should go through a
// Session, which discards completions that have been superseded.
func (e *Explorer) BuildSubgraph(ctx context.Context, identifier string, base Subgraph, collection string) (Subgraph, error) {
	statements, err := e.FetchAllStatements(ctx, identifier, collection)
	if err != nil {
		return base, fmt.Errorf("build subgraph for %s: %w", identifier, err)
	}

	enriched, err := e.EnrichStatements(ctx, statements, collection)
	if err != nil {
		return base, fmt.Errorf("build subgraph for %s: %w", identifier, err)
	}

	return base.MergeStatements(enriched), nil
}

// ExpandByRelationship grows the subgraph along a single relationship
// from one node. Outgoing expansion finds statements with the node as
// subject and the relationship as predicate, incoming the mirror image.
// On any failure current is returned unchanged alongside the error.
func (e *Explorer) ExpandByRelationship(ctx context.Context, nodeID string, relationshipID string, direction Direction, current Subgraph, collection string) (Subgraph, error) {
	pattern := flow.Pattern{Predicate: flow.String(relationshipID)}
	switch direction {
	case DirectionOutgoing:
		pattern.Subject = flow.String(nodeID)
	case DirectionIncoming:
		pattern.Object = flow.String(nodeID)
	default:
		return current, fmt.Errorf("unknown direction %q", direction)
	}

	// The activity covers the query only, not the enrichment that
	// follows, so it is removed before the error check.
	activityLabel := "Expand " + string(direction) + ": " + relationshipID
	e.tracker.Add(activityLabel)
	statements, err := e.client.TriplesQuery(ctx, pattern, e.queryOptions(e.expandLimit, collection)...)
	e.tracker.Remove(activityLabel)
	if err != nil {
		return current, fmt.Errorf("expand %s by %s: %w", nodeID, relationshipID, err)
	}

	enriched, err := e.EnrichStatements(ctx, statements, collection)
	if err != nil {
		return current, fmt.Errorf("expand %s by %s: %w", nodeID, relationshipID, err)
	}

	return current.MergeStatements(enriched), nil
}
