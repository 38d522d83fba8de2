package controllers

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const saveSchemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["logId", "period", "title", "content", "timestamp"],
  "properties": {
    "logId":     {"type": "string"},
    "period":    {"type": "string"},
    "title":     {"type": "string"},
    "content":   {"type": "string"},
    "timestamp": {"type": "string"},
    "encoding":  {"type": "string", "enum": ["utf8", "base64"]}
  }
}`

var saveSchema = mustSchema(saveSchemaJSON)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("controllers: compile schema: %v", err))
	}
	return s
}

// validateBody checks a raw JSON document against schema and joins every
// violation into one message.
func validateBody(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("invalid request: %s", strings.Join(msgs, "; "))
}
