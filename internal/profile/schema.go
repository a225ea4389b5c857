package profile

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed profile.schema.json
var schemaFS embed.FS

const schemaURL = "mem://schemas/profile.schema.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		data, err := schemaFS.ReadFile("profile.schema.json")
		if err != nil {
			compileErr = fmt.Errorf("read profile schema: %w", err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			compileErr = fmt.Errorf("decode profile schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("register profile schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// ValidateBytes checks a plain-JSON profile document against the schema.
func ValidateBytes(clean []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	var instance any
	if err := json.Unmarshal(clean, &instance); err != nil {
		return fmt.Errorf("decode profile: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("profile invalid: %w", err)
	}
	return nil
}
