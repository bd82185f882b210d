package collection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/dgallion1/sectionrank/internal/rank"
)

// Input is the collection input document. Unknown fields are ignored.
type Input struct {
	Persona struct {
		Role string `json:"role"`
	} `json:"persona"`
	JobToBeDone struct {
		Task string `json:"task"`
	} `json:"job_to_be_done"`
}

// Query combines persona role and task.
func (in Input) Query() rank.Query {
	return rank.Query{Persona: in.Persona.Role, Task: in.JobToBeDone.Task}
}

// InvalidInputError reports an input document that is not valid JSON or
// does not match the input schema.
type InvalidInputError struct {
	Collection string
	Path       string
	Reasons    []string
}

func (e *InvalidInputError) Error() string {
	where := e.Path
	if where == "" {
		where = "input"
	}
	return fmt.Sprintf("invalid %s: %s", where, strings.Join(e.Reasons, "; "))
}

const schemaURL = "https://sectionrank.local/schema/input.json"

const inputSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["persona", "job_to_be_done"],
  "properties": {
    "persona": {
      "type": "object",
      "required": ["role"],
      "properties": {"role": {"type": "string", "minLength": 1}}
    },
    "job_to_be_done": {
      "type": "object",
      "required": ["task"],
      "properties": {"task": {"type": "string", "minLength": 1}}
    },
    "documents": {
      "type": "array",
      "items": {"type": "object"}
    }
  }
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(inputSchema))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaURL)
})

// ReadInput decodes and validates an input document.
func ReadInput(r io.Reader) (Input, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Input{}, fmt.Errorf("read input: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return Input{}, &InvalidInputError{Reasons: []string{"malformed json: " + err.Error()}}
	}

	schema, err := compiledSchema()
	if err != nil {
		return Input{}, fmt.Errorf("compile input schema: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			return Input{}, &InvalidInputError{Reasons: schemaReasons(validationErr)}
		}
		return Input{}, &InvalidInputError{Reasons: []string{err.Error()}}
	}

	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return Input{}, &InvalidInputError{Reasons: []string{err.Error()}}
	}
	return in, nil
}

// schemaReasons flattens a validation error tree into one entry per failing
// instance location.
func schemaReasons(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		path := "$"
		if len(ve.InstanceLocation) > 0 {
			path = "$." + strings.Join(ve.InstanceLocation, ".")
		}
		return []string{"schema violation at " + path}
	}
	var out []string
	for _, c := range ve.Causes {
		out = append(out, schemaReasons(c)...)
	}
	return out
}
