package store

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"go-usage-stats/internal/model"
)

//go:embed result.schema.json
var resultSchemaFS embed.FS

var (
	resultSchemaOnce sync.Once
	resultSchema     *gojsonschema.Schema
	resultSchemaErr  error
)

func getResultSchema() (*gojsonschema.Schema, error) {
	resultSchemaOnce.Do(func() {
		b, err := resultSchemaFS.ReadFile("result.schema.json")
		if err != nil {
			resultSchemaErr = err
			return
		}
		resultSchema, resultSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
	})
	return resultSchema, resultSchemaErr
}

// validateResultJSON checks raw result JSON against the schema.
func validateResultJSON(raw []byte) error {
	schema, err := getResultSchema()
	if err != nil {
		return fmt.Errorf("result schema unavailable: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidResult, strings.Join(msgs, "; "))
}

// encodeResult validates doc and renders it for the result column.
func encodeResult(doc model.Document) (string, error) {
	if err := doc.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	if err := validateResultJSON(raw); err != nil {
		return "", err
	}
	return string(raw), nil
}

// decodeResult parses and validates a stored result column.
func decodeResult(raw string) (model.Document, error) {
	if err := validateResultJSON([]byte(raw)); err != nil {
		return model.Document{}, err
	}
	var doc model.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return model.Document{}, fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}
	if err := doc.Validate(); err != nil {
		return model.Document{}, fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}
	return doc, nil
}
