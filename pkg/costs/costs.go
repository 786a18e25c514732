// Package costs tracks per-model token pricing and estimates what a
// prompt will cost before it is sent. Rates live in the flow service's
// KV store so every backend instance prices identically.
package costs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/lantern-kg/lantern/pkg/flow"
)

const (
	kvKey        = "costs/models"
	encodingName = "o200k_base"
)

// ErrUnknownModel reports an estimate request for a model the table has
// no rates for.
var ErrUnknownModel = errors.New("costs: no rates stored for model")

// ModelRate prices one model per thousand tokens.
type ModelRate struct {
	InputPer1K  float64 `json:"input_per_1k"`
	OutputPer1K float64 `json:"output_per_1k"`
}

// Table maps model names to their rates.
type Table struct {
	Models map[string]ModelRate `json:"models"`
}

// Estimate is the predicted price of one exchange.
type Estimate struct {
	Model        string  `json:"model"`
	InputTokens  int     `json:"input_tokens"`
	InputCost    float64 `json:"input_cost"`
	OutputTokens int     `json:"output_tokens"`
	OutputCost   float64 `json:"output_cost"`
	TotalCost    float64 `json:"total_cost"`
}

// TokenCounter reports how many tokens a text encodes to.
type TokenCounter interface {
	Count(text string) (int, error)
}

// TiktokenCounter counts with the o200k_base encoding. The encoding is
// loaded on first use and reused afterwards.
type TiktokenCounter struct {
	mu       sync.Mutex
	encoding *tiktoken.Tiktoken
}

func (c *TiktokenCounter) Count(text string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.encoding == nil {
		encoding, err := tiktoken.GetEncoding(encodingName)
		if err != nil {
			return 0, fmt.Errorf("load %s encoding: %w", encodingName, err)
		}
		c.encoding = encoding
	}
	return len(c.encoding.Encode(text, nil, nil)), nil
}

// Manager persists the cost table and prices prompts against it.
//
// A Manager should be created using NewManager.
type Manager struct {
	client  flow.Client
	counter TokenCounter
}

// NewManagerParams defines the configuration for creating a Manager.
//
// Counter defaults to the tiktoken o200k_base counter when nil.
type NewManagerParams struct {
	Client  flow.Client
	Counter TokenCounter
}

// NewManager creates a Manager configured with the provided parameters.
func NewManager(params NewManagerParams) (*Manager, error) {
	if params.Client == nil {
		return nil, errors.New("costs: flow client is required")
	}

	counter := params.Counter
	if counter == nil {
		counter = &TiktokenCounter{}
	}

	return &Manager{
		client:  params.Client,
		counter: counter,
	}, nil
}

// Get loads the cost table. A deployment without stored rates gets an
// empty table rather than an error.
func (m *Manager) Get(ctx context.Context) (Table, error) {
	data, err := m.client.KVGet(ctx, kvKey)
	if errors.Is(err, flow.ErrNotFound) {
		return Table{Models: map[string]ModelRate{}}, nil
	}
	if err != nil {
		return Table{}, fmt.Errorf("load cost table: %w", err)
	}

	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return Table{}, fmt.Errorf("decode cost table: %w", err)
	}
	if table.Models == nil {
		table.Models = map[string]ModelRate{}
	}
	return table, nil
}

// Save stores the cost table.
func (m *Manager) Save(ctx context.Context, table Table) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode cost table: %w", err)
	}
	if err := m.client.KVPut(ctx, kvKey, data); err != nil {
		return fmt.Errorf("store cost table: %w", err)
	}
	return nil
}

// EstimateCost prices a prompt for the given model. outputTokens is the
// caller's expectation for the answer length, priced at the output rate.
func (m *Manager) EstimateCost(ctx context.Context, text string, model string, outputTokens int) (Estimate, error) {
	table, err := m.Get(ctx)
	if err != nil {
		return Estimate{}, err
	}
	rate, ok := table.Models[model]
	if !ok {
		return Estimate{}, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}

	inputTokens, err := m.counter.Count(text)
	if err != nil {
		return Estimate{}, fmt.Errorf("count tokens: %w", err)
	}
	if outputTokens < 0 {
		outputTokens = 0
	}

	inputCost := float64(inputTokens) / 1000 * rate.InputPer1K
	outputCost := float64(outputTokens) / 1000 * rate.OutputPer1K

	return Estimate{
		Model:        model,
		InputTokens:  inputTokens,
		InputCost:    inputCost,
		OutputTokens: outputTokens,
		OutputCost:   outputCost,
		TotalCost:    inputCost + outputCost,
	}, nil
}
