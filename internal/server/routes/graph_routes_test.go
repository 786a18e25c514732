package routes

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/lantern-kg/lantern/pkg/flow"
	"github.com/lantern-kg/lantern/pkg/graph"
	"github.com/lantern-kg/lantern/pkg/rdf"
	"github.com/lantern-kg/lantern/pkg/search"
)

const (
	aliceIRI = "http://example.com/alice"
	bobIRI   = "http://example.com/bob"
	knowsIRI = "http://example.com/knows"
)

// graphFixture scripts a store holding a single alice-knows-bob edge
// plus labels for all three terms.
func graphFixture() *fakeFlow {
	client := newFakeFlow()

	labels := map[string]string{
		aliceIRI: "Alice",
		bobIRI:   "Bob",
		knowsIRI: "knows",
	}
	edges := []rdf.Statement{
		rdf.NewStatement(rdf.IRI(aliceIRI), rdf.IRI(knowsIRI), rdf.IRI(bobIRI)),
	}

	client.triples = func(ctx context.Context, pattern flow.Pattern, opts ...flow.QueryOption) ([]rdf.Statement, error) {
		if pattern.Subject != nil && pattern.Predicate != nil && *pattern.Predicate == rdf.LabelPredicate {
			label, ok := labels[*pattern.Subject]
			if !ok {
				return []rdf.Statement{}, nil
			}
			return []rdf.Statement{
				rdf.NewStatement(rdf.IRI(*pattern.Subject), rdf.IRI(rdf.LabelPredicate), rdf.Literal(label)),
			}, nil
		}

		matched := []rdf.Statement{}
		for _, statement := range edges {
			if pattern.Subject != nil && statement.Subject.Text() != *pattern.Subject {
				continue
			}
			if pattern.Predicate != nil && statement.Predicate.Text() != *pattern.Predicate {
				continue
			}
			if pattern.Object != nil && statement.Object.Text() != *pattern.Object {
				continue
			}
			matched = append(matched, statement)
		}
		return matched, nil
	}

	return client
}

type subgraphEnvelope struct {
	Message string          `json:"message"`
	Graph   *graph.Subgraph `json:"graph"`
}

func TestBuildSubgraphHandler(t *testing.T) {
	e := newTestEcho(newTestApp(t, graphFixture()))
	e.POST("/api/graph/subgraph", BuildSubgraphHandler)

	rec := doJSON(e, http.MethodPost, "/api/graph/subgraph", `{"focal":"`+aliceIRI+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse[subgraphEnvelope](t, rec)
	if resp.Message != "Subgraph built successfully" {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if resp.Graph == nil {
		t.Fatal("expected a graph in the response")
	}
	if len(resp.Graph.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %+v", resp.Graph.Nodes)
	}
	if resp.Graph.Nodes[0].ID != aliceIRI || resp.Graph.Nodes[0].Label != "Alice" {
		t.Errorf("unexpected first node %+v", resp.Graph.Nodes[0])
	}
	if resp.Graph.Nodes[1].ID != bobIRI || resp.Graph.Nodes[1].Label != "Bob" {
		t.Errorf("unexpected second node %+v", resp.Graph.Nodes[1])
	}
	if len(resp.Graph.Links) != 1 {
		t.Fatalf("expected 1 link, got %+v", resp.Graph.Links)
	}
	link := resp.Graph.Links[0]
	if link.Key != graph.LinkKey(aliceIRI, knowsIRI, bobIRI) {
		t.Errorf("unexpected link key %q", link.Key)
	}
	if link.Source != aliceIRI || link.Target != bobIRI || link.Label != "knows" {
		t.Errorf("unexpected link %+v", link)
	}
}

func TestBuildSubgraphHandlerMergesIntoBase(t *testing.T) {
	e := newTestEcho(newTestApp(t, graphFixture()))
	e.POST("/api/graph/subgraph", BuildSubgraphHandler)

	body := `{
		"focal": "` + aliceIRI + `",
		"graph": {
			"nodes": [{"id": "http://example.com/carol", "label": "Carol", "group": 1}],
			"links": []
		}
	}`
	rec := doJSON(e, http.MethodPost, "/api/graph/subgraph", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse[subgraphEnvelope](t, rec)
	if len(resp.Graph.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %+v", resp.Graph.Nodes)
	}
	if resp.Graph.Nodes[0].Label != "Carol" {
		t.Errorf("expected the base node to stay first, got %+v", resp.Graph.Nodes[0])
	}
}

func TestBuildSubgraphHandlerMissingFocal(t *testing.T) {
	e := newTestEcho(newTestApp(t, graphFixture()))
	e.POST("/api/graph/subgraph", BuildSubgraphHandler)

	rec := doJSON(e, http.MethodPost, "/api/graph/subgraph", `{"collection":"default"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBuildSubgraphHandlerUpstreamError(t *testing.T) {
	client := newFakeFlow()
	client.triples = func(ctx context.Context, pattern flow.Pattern, opts ...flow.QueryOption) ([]rdf.Statement, error) {
		return nil, errors.New("store unavailable")
	}

	e := newTestEcho(newTestApp(t, client))
	e.POST("/api/graph/subgraph", BuildSubgraphHandler)

	rec := doJSON(e, http.MethodPost, "/api/graph/subgraph", `{"focal":"`+aliceIRI+`"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse[subgraphEnvelope](t, rec)
	if resp.Message != "Internal server error" {
		t.Errorf("unexpected message %q", resp.Message)
	}
}

func TestExpandSubgraphHandler(t *testing.T) {
	tests := []struct {
		name      string
		node      string
		direction string
	}{
		{name: "outgoing from subject", node: aliceIRI, direction: "outgoing"},
		{name: "incoming to object", node: bobIRI, direction: "incoming"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho(newTestApp(t, graphFixture()))
			e.POST("/api/graph/expand", ExpandSubgraphHandler)

			body := `{"node":"` + tt.node + `","relationship":"` + knowsIRI + `","direction":"` + tt.direction + `"}`
			rec := doJSON(e, http.MethodPost, "/api/graph/expand", body)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}

			resp := decodeResponse[subgraphEnvelope](t, rec)
			if resp.Message != "Subgraph expanded successfully" {
				t.Errorf("unexpected message %q", resp.Message)
			}
			if len(resp.Graph.Nodes) != 2 || len(resp.Graph.Links) != 1 {
				t.Fatalf("expected 2 nodes and 1 link, got %+v", resp.Graph)
			}
		})
	}
}

func TestExpandSubgraphHandlerInvalidDirection(t *testing.T) {
	e := newTestEcho(newTestApp(t, graphFixture()))
	e.POST("/api/graph/expand", ExpandSubgraphHandler)

	body := `{"node":"` + aliceIRI + `","relationship":"` + knowsIRI + `","direction":"sideways"}`
	rec := doJSON(e, http.MethodPost, "/api/graph/expand", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse[subgraphEnvelope](t, rec)
	if resp.Message != "Invalid direction" {
		t.Errorf("unexpected message %q", resp.Message)
	}
}

func TestExpandSubgraphHandlerMissingFields(t *testing.T) {
	e := newTestEcho(newTestApp(t, graphFixture()))
	e.POST("/api/graph/expand", ExpandSubgraphHandler)

	rec := doJSON(e, http.MethodPost, "/api/graph/expand", `{"node":"`+aliceIRI+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetLabelHandler(t *testing.T) {
	e := newTestEcho(newTestApp(t, graphFixture()))
	e.GET("/api/labels", GetLabelHandler)

	query := url.Values{"id": {aliceIRI}}
	rec := doRequest(e, http.MethodGet, "/api/labels?"+query.Encode(), nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse[struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	}](t, rec)
	if resp.ID != aliceIRI || resp.Label != "Alice" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestGetLabelHandlerFallsBackToIdentifier(t *testing.T) {
	e := newTestEcho(newTestApp(t, graphFixture()))
	e.GET("/api/labels", GetLabelHandler)

	query := url.Values{"id": {"http://example.com/unlabeled"}}
	rec := doRequest(e, http.MethodGet, "/api/labels?"+query.Encode(), nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse[struct {
		Label string `json:"label"`
	}](t, rec)
	if resp.Label != "http://example.com/unlabeled" {
		t.Errorf("expected the identifier as fallback label, got %q", resp.Label)
	}
}

func TestGetLabelHandlerMissingID(t *testing.T) {
	e := newTestEcho(newTestApp(t, graphFixture()))
	e.GET("/api/labels", GetLabelHandler)

	rec := doRequest(e, http.MethodGet, "/api/labels", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSearchHandler(t *testing.T) {
	client := graphFixture()
	client.embeddings = func(ctx context.Context, text string) ([][]float32, error) {
		return [][]float32{{0.1, 0.2}}, nil
	}
	client.graphQuery = func(ctx context.Context, vectors [][]float32, opts ...flow.QueryOption) ([]rdf.Term, error) {
		return []rdf.Term{rdf.IRI(aliceIRI), rdf.Literal("plain text")}, nil
	}

	e := newTestEcho(newTestApp(t, client))
	e.POST("/api/search", SearchHandler)

	rec := doJSON(e, http.MethodPost, "/api/search", `{"text":"who knows bob"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse[struct {
		Message string       `json:"message"`
		Hits    []search.Hit `json:"hits"`
	}](t, rec)
	if resp.Message != "Search completed" {
		t.Errorf("unexpected message %q", resp.Message)
	}
	want := []search.Hit{
		{ID: aliceIRI, Label: "Alice"},
		{ID: "plain text", Label: "plain text"},
	}
	if len(resp.Hits) != len(want) {
		t.Fatalf("expected %d hits, got %+v", len(want), resp.Hits)
	}
	for i, hit := range resp.Hits {
		if hit != want[i] {
			t.Errorf("hit %d: expected %+v, got %+v", i, want[i], hit)
		}
	}
}

func TestSearchHandlerMissingText(t *testing.T) {
	e := newTestEcho(newTestApp(t, graphFixture()))
	e.POST("/api/search", SearchHandler)

	rec := doJSON(e, http.MethodPost, "/api/search", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetActivityHandler(t *testing.T) {
	app := newTestApp(t, newFakeFlow())
	registry := app.Activity
	registry.Add("Query: " + aliceIRI)
	registry.Add("Query: " + aliceIRI)
	registry.Add("Expand outgoing: " + knowsIRI)

	e := newTestEcho(app)
	e.GET("/api/activity", GetActivityHandler)

	rec := doRequest(e, http.MethodGet, "/api/activity", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse[[]struct {
		Label string `json:"label"`
		Count int    `json:"count"`
	}](t, rec)
	if len(resp) != 2 {
		t.Fatalf("expected 2 entries, got %+v", resp)
	}
	if resp[0].Label != "Expand outgoing: "+knowsIRI || resp[0].Count != 1 {
		t.Errorf("unexpected first entry %+v", resp[0])
	}
	if resp[1].Label != "Query: "+aliceIRI || resp[1].Count != 2 {
		t.Errorf("unexpected second entry %+v", resp[1])
	}
}

func TestGetCollectionsHandler(t *testing.T) {
	client := newFakeFlow()
	client.collections = []string{"default", "research"}

	e := newTestEcho(newTestApp(t, client))
	e.GET("/api/collections", GetCollectionsHandler)

	rec := doRequest(e, http.MethodGet, "/api/collections", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse[[]string](t, rec)
	if len(resp) != 2 || resp[0] != "default" || resp[1] != "research" {
		t.Errorf("unexpected collections %+v", resp)
	}
}
