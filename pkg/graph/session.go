package graph

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded reports that a newer focus change landed while the
// operation was in flight, so its result was discarded.
var ErrSuperseded = errors.New("graph: result superseded by a newer request")

// Session owns a subgraph accumulator and guards it against stale
// completions. Every mutating call captures the current request token
// before its remote work and re-checks it after: if a Focus happened in
// between, the finished result is dropped instead of being merged over
// the newer state. Operations sharing a token apply in completion
// order, so concurrent expansions of the same view are last-writer-wins.
//
// A Session is safe for concurrent use.
type Session struct {
	explorer *Explorer

	mu    sync.Mutex
	token uint64
	graph Subgraph
}

// NewSession creates a session with an empty accumulator.
func NewSession(explorer *Explorer) *Session {
	return &Session{
		explorer: explorer,
		graph:    NewSubgraph(),
	}
}

// Subgraph returns the current accumulated subgraph.
func (s *Session) Subgraph() Subgraph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}

// Focus discards the accumulator and rebuilds it around the identifier.
// Any operation still in flight when Focus is called will complete
// against the old token and be discarded.
func (s *Session) Focus(ctx context.Context, identifier string, collection string) (Subgraph, error) {
	s.mu.Lock()
	s.token++
	token := s.token
	s.mu.Unlock()

	built, err := s.explorer.BuildSubgraph(ctx, identifier, NewSubgraph(), collection)
	return s.commit(token, built, err)
}

// Grow builds the neighborhood of another identifier into the current
// accumulator, the click-to-explore path.
func (s *Session) Grow(ctx context.Context, identifier string, collection string) (Subgraph, error) {
	token, base := s.snapshot()

	built, err := s.explorer.BuildSubgraph(ctx, identifier, base, collection)
	return s.commit(token, built, err)
}

// Expand follows a single relationship from a node into the current
// accumulator.
func (s *Session) Expand(ctx context.Context, nodeID string, relationshipID string, direction Direction, collection string) (Subgraph, error) {
	token, base := s.snapshot()

	built, err := s.explorer.ExpandByRelationship(ctx, nodeID, relationshipID, direction, base, collection)
	return s.commit(token, built, err)
}

func (s *Session) snapshot() (uint64, Subgraph) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.graph
}

// commit installs a finished result unless the token moved on or the
// operation failed. The accumulator is never partially updated.
func (s *Session) commit(token uint64, built Subgraph, err error) (Subgraph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.token {
		return s.graph, ErrSuperseded
	}
	if err != nil {
		return s.graph, err
	}

	s.graph = built
	return built, nil
}
