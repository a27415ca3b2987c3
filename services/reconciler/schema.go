package reconciler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var ErrInvalidChoicePayload = errors.New("invalid structured-choice payload")

const choicePayloadSchema = `{
  "type": "object",
  "required": ["has_choices"],
  "properties": {
    "text": {"type": "string"},
    "has_choices": {"type": "boolean"},
    "choice_type": {"enum": ["single_select", "multi_select", "confirmation", "menu"]},
    "choices": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["label"],
        "properties": {
          "id": {"type": "string"},
          "label": {"type": "string"},
          "value": {"type": "string"},
          "icon": {"type": "string"},
          "description": {"type": "string"}
        }
      }
    },
    "allow_free_input": {"type": "boolean"},
    "input_placeholder": {"type": "string"},
    "input_hint": {"type": "string"}
  }
}`

var choiceSchema = mustSchema(choicePayloadSchema)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("choice payload schema: %v", err))
	}
	return s
}

// ValidateChoicePayload checks a JSON document against the structured-choice envelope
func ValidateChoicePayload(doc string) error {
	result, err := choiceSchema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidChoicePayload, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidChoicePayload, strings.Join(msgs, "; "))
}
