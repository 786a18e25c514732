// Package flowclass manages the named flow configurations a deployment
// exposes: which entrypoint to invoke, which model to use and how the
// prompt is framed. Definitions live in the flow service's KV store so
// every backend instance sees the same set.
package flowclass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator"

	"github.com/lantern-kg/lantern/pkg/flow"
	"github.com/lantern-kg/lantern/pkg/logger"
)

const (
	kvIndexKey = "flow-classes"
	kvPrefix   = "flow-classes/"
)

// Definition describes one configured flow class.
type Definition struct {
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description,omitempty"`
	Entrypoint   string   `json:"entrypoint" validate:"required"`
	Model        string   `json:"model,omitempty"`
	Temperature  float64  `json:"temperature,omitempty" validate:"gte=0,lte=2"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
	Labels       []string `json:"labels,omitempty"`
}

// Manager persists flow class definitions and keeps the name index in
// sync.
//
// A Manager should be created using NewManager.
type Manager struct {
	client   flow.Client
	validate *validator.Validate
}

// NewManagerParams defines the configuration for creating a Manager.
type NewManagerParams struct {
	Client flow.Client
}

// NewManager creates a Manager configured with the provided parameters.
func NewManager(params NewManagerParams) (*Manager, error) {
	if params.Client == nil {
		return nil, errors.New("flowclass: flow client is required")
	}

	return &Manager{
		client:   params.Client,
		validate: validator.New(),
	}, nil
}

// List returns every stored definition. Index entries whose record has
// gone missing are skipped.
func (m *Manager) List(ctx context.Context) ([]Definition, error) {
	names, err := m.index(ctx)
	if err != nil {
		return nil, err
	}

	definitions := make([]Definition, 0, len(names))
	for _, name := range names {
		definition, err := m.Get(ctx, name)
		if errors.Is(err, flow.ErrNotFound) {
			logger.Debug("[FlowClass] Index entry without record", "name", name)
			continue
		}
		if err != nil {
			return nil, err
		}
		definitions = append(definitions, definition)
	}
	return definitions, nil
}

// Get loads a definition by name.
func (m *Manager) Get(ctx context.Context, name string) (Definition, error) {
	data, err := m.client.KVGet(ctx, kvPrefix+name)
	if err != nil {
		return Definition{}, fmt.Errorf("load flow class %s: %w", name, err)
	}

	var definition Definition
	if err := json.Unmarshal(data, &definition); err != nil {
		return Definition{}, fmt.Errorf("decode flow class %s: %w", name, err)
	}
	return definition, nil
}

// Save validates and stores a definition, adding it to the index if it
// is new.
func (m *Manager) Save(ctx context.Context, definition Definition) error {
	if err := m.validate.Struct(definition); err != nil {
		return fmt.Errorf("validate flow class: %w", err)
	}

	data, err := json.Marshal(definition)
	if err != nil {
		return fmt.Errorf("encode flow class %s: %w", definition.Name, err)
	}
	if err := m.client.KVPut(ctx, kvPrefix+definition.Name, data); err != nil {
		return fmt.Errorf("store flow class %s: %w", definition.Name, err)
	}

	names, err := m.index(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if name == definition.Name {
			return nil
		}
	}
	return m.saveIndex(ctx, append(names, definition.Name))
}

// Delete removes a definition and its index entry.
func (m *Manager) Delete(ctx context.Context, name string) error {
	if err := m.client.KVDelete(ctx, kvPrefix+name); err != nil {
		return fmt.Errorf("delete flow class %s: %w", name, err)
	}

	names, err := m.index(ctx)
	if err != nil {
		return err
	}
	remaining := make([]string, 0, len(names))
	for _, existing := range names {
		if existing != name {
			remaining = append(remaining, existing)
		}
	}
	return m.saveIndex(ctx, remaining)
}

// Suggest asks the agent flow to draft a definition for the described
// use case. The agent is prompted with the definition schema and its
// answer is parsed leniently.
func (m *Manager) Suggest(ctx context.Context, description string) (Definition, error) {
	schema, err := json.Marshal(Schema())
	if err != nil {
		return Definition{}, fmt.Errorf("encode definition schema: %w", err)
	}

	prompt := fmt.Sprintf(
		"You configure flow classes for a knowledge graph platform. "+
			"Draft a flow class for the following use case and respond with "+
			"a single JSON object matching this schema, nothing else.\n\n"+
			"Schema:\n%s\n\nUse case:\n%s",
		schema, description,
	)

	answer, err := m.client.Agent(ctx, prompt)
	if err != nil {
		return Definition{}, fmt.Errorf("suggest flow class: %w", err)
	}

	var definition Definition
	if err := flow.UnmarshalFlexible(answer, &definition); err != nil {
		return Definition{}, fmt.Errorf("parse flow class suggestion: %w", err)
	}
	return definition, nil
}

// Schema returns the JSON Schema for Definition, served to clients for
// form validation.
func Schema() any {
	return flow.SchemaFor(Definition{})
}

func (m *Manager) index(ctx context.Context) ([]string, error) {
	data, err := m.client.KVGet(ctx, kvIndexKey)
	if errors.Is(err, flow.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load flow class index: %w", err)
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("decode flow class index: %w", err)
	}
	return names, nil
}

func (m *Manager) saveIndex(ctx context.Context, names []string) error {
	data, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("encode flow class index: %w", err)
	}
	if err := m.client.KVPut(ctx, kvIndexKey, data); err != nil {
		return fmt.Errorf("store flow class index: %w", err)
	}
	return nil
}
