package llm

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema defines the JSON structure a structured completion must match.
type Schema struct {
	// Name identifies this schema (tool name for Anthropic, schema name
	// for OpenAI). Kebab-case, e.g. "answer-analysis".
	Name string

	// Description tells the model what the schema represents.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// compiled caches compiled schemas by name. Schemas in this codebase
// are package-level constants, so the name is a stable cache key.
var compiled sync.Map // map[string]*jsonschema.Schema

// checkAgainstSchema validates raw JSON against the schema. Returns nil
// when the schema is nil or validation passes, *ErrBadResponse otherwise.
func checkAgainstSchema(s *Schema, raw json.RawMessage) error {
	if s == nil {
		return nil
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &ErrBadResponse{Content: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	cs, err := compileSchema(s)
	if err != nil {
		return &ErrBadResponse{Content: raw, Err: fmt.Errorf("compile schema %q: %w", s.Name, err)}
	}

	if err := cs.Validate(parsed); err != nil {
		return &ErrBadResponse{Content: raw, Err: fmt.Errorf("schema validation failed: %w", err)}
	}
	return nil
}

func compileSchema(s *Schema) (*jsonschema.Schema, error) {
	if cached, ok := compiled.Load(s.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants a parsed JSON value, not a Go map with typed
	// values; round-trip through encoding/json to normalize.
	defBytes, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, err
	}
	var def any
	if err := json.Unmarshal(defBytes, &def); err != nil {
		return nil, err
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", s.Name)
	if err := c.AddResource(url, def); err != nil {
		return nil, err
	}
	cs, err := c.Compile(url)
	if err != nil {
		return nil, err
	}

	compiled.Store(s.Name, cs)
	return cs, nil
}
