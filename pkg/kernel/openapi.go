package kernel

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var openAPIDocument []byte

// APISpec is the parsed HTTP contract. Request bodies are checked against it
// before they reach a handler.
type APISpec struct {
	doc  *openapi3.T
	json []byte
}

// LoadAPISpec parses and validates the embedded document.
func LoadAPISpec(ctx context.Context) (*APISpec, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPIDocument)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode openapi document: %w", err)
	}
	return &APISpec{doc: doc, json: raw}, nil
}

// JSON returns the document as JSON
func (s *APISpec) JSON() []byte {
	return s.json
}

// ValidateBody checks a decoded JSON body against the request schema of
// method+path. Operations without a JSON body schema accept anything.
func (s *APISpec) ValidateBody(method, path string, body any) error {
	item := s.doc.Paths.Find(path)
	if item == nil {
		return fmt.Errorf("no such path in api document: %s", path)
	}
	op := item.GetOperation(method)
	if op == nil || op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	media := op.RequestBody.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil
	}
	if err := media.Schema.Value.VisitJSON(body); err != nil {
		return fmt.Errorf("request body does not match schema: %w", err)
	}
	return nil
}
