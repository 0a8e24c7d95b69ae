// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// classificationSchema describes the JSON object the completion service is
// asked to return when classifying a turn. Anything that fails this schema
// is treated as malformed and sent down the keyword-ladder fallback.
var classificationSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"workflow": map[string]interface{}{
			"type": "string",
			"enum": []string{
				"MATTER_CREATION",
				"GENERAL_INQUIRY",
				"SCHEDULING",
				"CONTACT_FORM",
				"URGENT_MATTER",
			},
		},
		"matterType": map[string]interface{}{
			"type": "string",
		},
		"urgency": map[string]interface{}{
			"type": "string",
			"enum": []string{"low", "medium", "high"},
		},
		"complexity": map[string]interface{}{
			"type":    "number",
			"minimum": 1,
			"maximum": 5,
		},
		"estimatedValue": map[string]interface{}{
			"type":    "number",
			"minimum": 0,
		},
	},
	"required": []string{"workflow"},
}

// ValidateClassification checks a decoded classification payload against the
// schema. Returns nil when the document is valid.
func ValidateClassification(doc map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(classificationSchema)
	documentLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("classification schema mismatch: %s", strings.Join(msgs, "; "))
	}

	return nil
}
