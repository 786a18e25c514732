package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lantern-kg/lantern/internal/server/middleware"
	"github.com/lantern-kg/lantern/pkg/activity"
	"github.com/lantern-kg/lantern/pkg/costs"
	"github.com/lantern-kg/lantern/pkg/flow"
	"github.com/lantern-kg/lantern/pkg/flowclass"
	"github.com/lantern-kg/lantern/pkg/graph"
	"github.com/lantern-kg/lantern/pkg/library"
	"github.com/lantern-kg/lantern/pkg/rdf"
	"github.com/lantern-kg/lantern/pkg/search"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// fakeFlow is an in-memory flow client. Query behaviour is scripted per
// test through the function fields; unset fields return empty results.
type fakeFlow struct {
	mu       sync.Mutex
	kv       map[string][]byte
	ingested []flow.IngestRequest

	triples     func(ctx context.Context, pattern flow.Pattern, opts ...flow.QueryOption) ([]rdf.Statement, error)
	embeddings  func(ctx context.Context, text string) ([][]float32, error)
	graphQuery  func(ctx context.Context, vectors [][]float32, opts ...flow.QueryOption) ([]rdf.Term, error)
	agent       func(ctx context.Context, prompt string, opts ...flow.QueryOption) (string, error)
	collections []string
}

func newFakeFlow() *fakeFlow {
	return &fakeFlow{kv: map[string][]byte{}}
}

func (f *fakeFlow) TriplesQuery(ctx context.Context, pattern flow.Pattern, opts ...flow.QueryOption) ([]rdf.Statement, error) {
	if f.triples == nil {
		return []rdf.Statement{}, nil
	}
	return f.triples(ctx, pattern, opts...)
}

func (f *fakeFlow) Embeddings(ctx context.Context, text string) ([][]float32, error) {
	if f.embeddings == nil {
		return [][]float32{{1}}, nil
	}
	return f.embeddings(ctx, text)
}

func (f *fakeFlow) GraphEmbeddingsQuery(ctx context.Context, vectors [][]float32, opts ...flow.QueryOption) ([]rdf.Term, error) {
	if f.graphQuery == nil {
		return []rdf.Term{}, nil
	}
	return f.graphQuery(ctx, vectors, opts...)
}

func (f *fakeFlow) Agent(ctx context.Context, prompt string, opts ...flow.QueryOption) (string, error) {
	if f.agent == nil {
		return "", nil
	}
	return f.agent(ctx, prompt, opts...)
}

func (f *fakeFlow) Ingest(ctx context.Context, req flow.IngestRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ingested = append(f.ingested, req)
	return nil
}

func (f *fakeFlow) KVGet(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.kv[key]
	if !ok {
		return nil, flow.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (f *fakeFlow) KVPut(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kv[key] = append([]byte(nil), value...)
	return nil
}

func (f *fakeFlow) KVDelete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.kv, key)
	return nil
}

func (f *fakeFlow) Collections(ctx context.Context) ([]string, error) {
	if f.collections == nil {
		return []string{}, nil
	}
	return f.collections, nil
}

func (f *fakeFlow) Close() error { return nil }

type memoryBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{blobs: map[string][]byte{}}
}

func (m *memoryBlobs) Put(ctx context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
	return nil
}

func (m *memoryBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, flow.ErrNotFound
	}
	return data, nil
}

func (m *memoryBlobs) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *memoryBlobs) DeletePrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.blobs {
		if strings.HasPrefix(key, prefix) {
			delete(m.blobs, key)
		}
	}
	return nil
}

func (m *memoryBlobs) PresignDownload(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://blobs.test/" + key + "?signed", nil
}

type wordCounter struct{}

func (wordCounter) Count(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

type testValidator struct {
	validate *validator.Validate
}

func (v *testValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

// newTestApp wires the real packages over the fake flow client and an
// in-memory blob store. Queue is left nil; enqueues fail softly.
func newTestApp(t *testing.T, client flow.Client) *middleware.App {
	t.Helper()

	registry := activity.NewRegistry()

	explorer, err := graph.NewExplorer(graph.NewExplorerParams{
		Client:   client,
		Activity: registry,
	})
	if err != nil {
		t.Fatalf("create explorer: %v", err)
	}

	searcher, err := search.NewSearcher(search.NewSearcherParams{
		Client:   client,
		Explorer: explorer,
		Activity: registry,
	})
	if err != nil {
		t.Fatalf("create searcher: %v", err)
	}

	flowClasses, err := flowclass.NewManager(flowclass.NewManagerParams{Client: client})
	if err != nil {
		t.Fatalf("create flow class manager: %v", err)
	}

	costManager, err := costs.NewManager(costs.NewManagerParams{
		Client:  client,
		Counter: wordCounter{},
	})
	if err != nil {
		t.Fatalf("create cost manager: %v", err)
	}

	lib, err := library.NewLibrary(library.NewLibraryParams{
		Client: client,
		Blobs:  newMemoryBlobs(),
	})
	if err != nil {
		t.Fatalf("create library: %v", err)
	}

	return &middleware.App{
		Flow:        client,
		Explorer:    explorer,
		Searcher:    searcher,
		FlowClasses: flowClasses,
		Costs:       costManager,
		Library:     lib,
		Activity:    registry,
	}
}

func newTestEcho(app *middleware.App) *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{validate: validator.New()}
	e.Use(middleware.AppContextMiddleware(app))
	return e
}

func doRequest(e *echo.Echo, method string, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func doJSON(e *echo.Echo, method string, target string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	return doRequest(e, method, target, reader, echo.MIMEApplicationJSON)
}

func decodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}
