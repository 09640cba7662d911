package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Response shapes the client relies on. They only pin down what the client
// reads; unknown fields are allowed.
var schemas = map[string]string{
	"paper": `{
		"type": "object",
		"required": ["ID"],
		"properties": {
			"ID": {"type": "integer"},
			"Title": {"type": "string"},
			"Questions": {
				"type": ["array", "null"],
				"items": {
					"type": "object",
					"required": ["ID"],
					"properties": {
						"ID": {"type": "integer"},
						"Description": {"type": "string"},
						"Type": {"type": "string"}
					}
				}
			}
		}
	}`,
	"paper-list": `{
		"type": ["array", "null"],
		"items": {
			"type": "object",
			"required": ["ID"],
			"properties": {"ID": {"type": "integer"}, "Title": {"type": "string"}}
		}
	}`,
	"response-list": `{
		"type": ["array", "null"],
		"items": {
			"type": "object",
			"required": ["ID"],
			"properties": {"ID": {"type": "integer"}, "questionPaperId": {"type": "integer"}}
		}
	}`,
	"response": `{
		"type": "object",
		"required": ["ID"],
		"properties": {
			"ID": {"type": "integer"},
			"Answers": {"type": ["array", "null"]},
			"totalCorrectAnswers": {"type": "integer"},
			"totalIncorrectAnswers": {"type": "integer"},
			"weightedScore": {"type": "number"},
			"topicWiseScore": {"type": ["array", "null"]},
			"difficultyWiseScore": {"type": ["array", "null"]},
			"preparationAdvice": {"type": "string"}
		}
	}`,
	"submit-result": `{
		"type": "object",
		"required": ["ID"],
		"properties": {"ID": {"type": "integer", "minimum": 1}}
	}`,
	"payment-required": `{
		"type": "object",
		"required": ["productId", "productName", "cost", "currency"],
		"properties": {
			"productId": {"type": "integer"},
			"productName": {"type": "string"},
			"cost": {"type": "number"},
			"currency": {"type": "string"}
		}
	}`,
	"payment-session": `{
		"type": "object",
		"required": ["paymentSessionId"],
		"properties": {"paymentSessionId": {"type": "string", "minLength": 1}}
	}`,
}

// schemaCache caches compiled JSON schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// getCompiledSchema returns a cached compiled schema or compiles and caches it.
func getCompiledSchema(name string) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	src, ok := schemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	def, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(schemaURL, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}

	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(name, compiled)
	return compiled, nil
}

// decodeValidated checks raw against the named schema and decodes it into
// out. Any mismatch is a *MalformedResponseError.
func decodeValidated(endpoint string, status int, raw []byte, name string, out any) error {
	malformed := func(err error) error {
		return &MalformedResponseError{Endpoint: endpoint, StatusCode: status, Body: raw, Err: err}
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return malformed(fmt.Errorf("empty body"))
	}
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return malformed(fmt.Errorf("invalid JSON: %w", err))
	}

	compiled, err := getCompiledSchema(name)
	if err != nil {
		return malformed(fmt.Errorf("schema %q: %w", name, err))
	}
	if err := compiled.Validate(parsed); err != nil {
		return malformed(fmt.Errorf("schema validation failed: %w", err))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return malformed(fmt.Errorf("decode: %w", err))
	}
	return nil
}

// errorMessage extracts a human-readable message from an error body. It
// prefers "message", then "error", then the start of the raw text.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
		return ""
	}

	text := strings.TrimSpace(string(raw))
	if len(text) > 100 {
		text = text[:100]
	}
	return text
}
