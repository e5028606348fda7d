// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"jobmatch-engine/internal/common/errors"
)

// scoringConfigSchema constrains externally supplied scoring-weight documents
// before they are unmarshalled into config.ScoringConfig. Weight keys are
// required and non-negative; the sum is renormalized later, so the schema
// does not pin it to 1.0.
const scoringConfigSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["weights"],
  "properties": {
    "weights": {
      "type": "object",
      "required": ["basic", "location", "category", "salary", "feature", "keyword", "personalized", "ai"],
      "properties": {
        "basic":        {"type": "number", "minimum": 0},
        "location":     {"type": "number", "minimum": 0},
        "category":     {"type": "number", "minimum": 0},
        "salary":       {"type": "number", "minimum": 0},
        "feature":      {"type": "number", "minimum": 0},
        "keyword":      {"type": "number", "minimum": 0},
        "personalized": {"type": "number", "minimum": 0},
        "ai":           {"type": "number", "minimum": 0}
      },
      "additionalProperties": false
    },
    "fee_threshold":          {"type": "number", "minimum": 0},
    "fee_ceiling":            {"type": "number", "minimum": 0},
    "reference_applications": {"type": "number", "exclusiveMinimum": 0},
    "reference_views":        {"type": "number", "exclusiveMinimum": 0},
    "min_history_samples":    {"type": "integer", "minimum": 1}
  }
}`

// ValidateScoringDocument checks a raw scoring-config JSON document against
// the schema. Violations are fatal configuration errors.
func ValidateScoringDocument(document []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(scoringConfigSchema)
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return errors.NewConfigSchemaViolationError(fmt.Sprintf("schema validation error: %v", err))
	}
	if result.Valid() {
		return nil
	}

	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return errors.NewConfigSchemaViolationError(strings.Join(details, "; "))
}
