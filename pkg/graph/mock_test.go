package graph

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/lantern-kg/lantern/pkg/activity"
	"github.com/lantern-kg/lantern/pkg/flow"
	"github.com/lantern-kg/lantern/pkg/rdf"
)

type mockFlowClient struct {
	flow.Client
	triplesQuery func(ctx context.Context, pattern flow.Pattern, opts ...flow.QueryOption) ([]rdf.Statement, error)
}

func (m *mockFlowClient) TriplesQuery(ctx context.Context, pattern flow.Pattern, opts ...flow.QueryOption) ([]rdf.Statement, error) {
	return m.triplesQuery(ctx, pattern, opts...)
}

// fakeStore is a scripted triple store. It routes queries by which
// pattern fields are bound and records every call for assertions.
type fakeStore struct {
	mu sync.Mutex

	labels      map[string]string
	bySubject   map[string][]rdf.Statement
	byPredicate map[string][]rdf.Statement
	byObject    map[string][]rdf.Statement

	err error

	labelLookups []string
	limits       []int
	collections  []string
}

func (f *fakeStore) TriplesQuery(ctx context.Context, pattern flow.Pattern, opts ...flow.QueryOption) ([]rdf.Statement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	options := flow.ApplyQueryOptions(0, opts)
	f.limits = append(f.limits, options.Limit)
	f.collections = append(f.collections, options.Collection)

	switch {
	case pattern.Subject != nil && pattern.Predicate != nil && *pattern.Predicate == rdf.LabelPredicate:
		id := *pattern.Subject
		f.labelLookups = append(f.labelLookups, id)
		label, ok := f.labels[id]
		if !ok {
			return []rdf.Statement{}, nil
		}
		return []rdf.Statement{rdf.NewStatement(rdf.IRI(id), rdf.IRI(rdf.LabelPredicate), rdf.Literal(label))}, nil

	case pattern.Subject != nil && pattern.Predicate != nil:
		return filterByPredicate(f.bySubject[*pattern.Subject], *pattern.Predicate), nil

	case pattern.Object != nil && pattern.Predicate != nil:
		return filterByPredicate(f.byObject[*pattern.Object], *pattern.Predicate), nil

	case pattern.Subject != nil:
		return append([]rdf.Statement{}, f.bySubject[*pattern.Subject]...), nil

	case pattern.Predicate != nil:
		return append([]rdf.Statement{}, f.byPredicate[*pattern.Predicate]...), nil

	case pattern.Object != nil:
		return append([]rdf.Statement{}, f.byObject[*pattern.Object]...), nil
	}

	return []rdf.Statement{}, nil
}

func (f *fakeStore) Embeddings(ctx context.Context, text string) ([][]float32, error) {
	return [][]float32{}, nil
}

func (f *fakeStore) GraphEmbeddingsQuery(ctx context.Context, vectors [][]float32, opts ...flow.QueryOption) ([]rdf.Term, error) {
	return []rdf.Term{}, nil
}

func (f *fakeStore) Agent(ctx context.Context, prompt string, opts ...flow.QueryOption) (string, error) {
	return "", nil
}

func (f *fakeStore) Ingest(ctx context.Context, req flow.IngestRequest) error { return nil }

func (f *fakeStore) KVGet(ctx context.Context, key string) ([]byte, error) {
	return nil, flow.ErrNotFound
}

func (f *fakeStore) KVPut(ctx context.Context, key string, value []byte) error { return nil }

func (f *fakeStore) KVDelete(ctx context.Context, key string) error { return nil }

func (f *fakeStore) Collections(ctx context.Context) ([]string, error) { return []string{}, nil }

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) lookedUp(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, lookup := range f.labelLookups {
		if lookup == id {
			return true
		}
	}
	return false
}

func (f *fakeStore) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.limits)
}

func filterByPredicate(statements []rdf.Statement, predicate string) []rdf.Statement {
	out := []rdf.Statement{}
	for _, stmt := range statements {
		if stmt.Predicate.Text() == predicate {
			out = append(out, stmt)
		}
	}
	return out
}

// recordingTracker captures every activity signal so tests can check
// pairing.
type recordingTracker struct {
	mu      sync.Mutex
	adds    []string
	removes []string
}

func (r *recordingTracker) Add(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adds = append(r.adds, label)
}

func (r *recordingTracker) Remove(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removes = append(r.removes, label)
}

func (r *recordingTracker) added(label string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, add := range r.adds {
		if add == label {
			return true
		}
	}
	return false
}

func (r *recordingTracker) addCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.adds)
}

// unbalanced returns the labels whose add and remove counts differ.
func (r *recordingTracker) unbalanced() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := map[string]int{}
	for _, add := range r.adds {
		counts[add]++
	}
	for _, remove := range r.removes {
		counts[remove]--
	}

	var open []string
	for label, count := range counts {
		if count != 0 {
			open = append(open, label)
		}
	}
	sort.Strings(open)
	return open
}

func assertBalanced(t *testing.T, tracker *recordingTracker) {
	t.Helper()
	if open := tracker.unbalanced(); len(open) != 0 {
		t.Errorf("unbalanced activities: %v", open)
	}
}

func newTestExplorer(t *testing.T, client flow.Client, tracker activity.Tracker) *Explorer {
	t.Helper()
	explorer, err := NewExplorer(NewExplorerParams{
		Client:         client,
		Activity:       tracker,
		ParallelLabels: 4,
	})
	if err != nil {
		t.Fatalf("NewExplorer() error = %v", err)
	}
	return explorer
}
