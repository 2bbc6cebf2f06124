// Package openapi embeds the HTTP contract and validates request bodies
// against it.
package openapi

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var document []byte

const requestSchema = "RecommendationRequest"

// Document returns the raw YAML contract.
func Document() []byte {
	return document
}

type Validator struct {
	request *openapi3.Schema
}

// NewValidator parses and validates the embedded contract.
func NewValidator(ctx context.Context) (*Validator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	if doc.Components == nil {
		return nil, fmt.Errorf("openapi document has no components")
	}
	ref, ok := doc.Components.Schemas[requestSchema]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("openapi schema %s not found", requestSchema)
	}
	return &Validator{request: ref.Value}, nil
}

// ValidateRecommendationRequest checks a generically decoded JSON body
// (map[string]any, []any, float64, string, bool, nil).
func (v *Validator) ValidateRecommendationRequest(body any) error {
	if err := v.request.VisitJSON(body); err != nil {
		return fmt.Errorf("request body: %w", err)
	}
	return nil
}
