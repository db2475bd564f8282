package form

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/casedesk/casedesk/internal/platform/apperr"
)

const (
	msgUnknownField = "Campo desconhecido"
	msgWrongType    = "Valor deve ser texto"
	msgTooLong      = "Texto muito longo"
)

// Schema builds the JSON Schema for payloads restricted to the section.
func (s *Section) Schema() map[string]interface{} {
	return schemaFor(s.Fields, s.Pairs)
}

func schemaFor(fields []Field, pairs []ConditionalPair) map[string]interface{} {
	props := make(map[string]interface{}, len(fields)+2*len(pairs))
	for _, f := range fields {
		props[f.Name] = map[string]interface{}{"type": "string", "maxLength": f.MaxLen()}
	}
	for _, p := range pairs {
		props[p.Confirmation] = map[string]interface{}{
			"type": "string",
			"enum": []interface{}{Unanswered, No, Yes},
		}
		props[p.Details] = map[string]interface{}{"type": "string", "maxLength": 2000}
	}
	return map[string]interface{}{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
}

type compiled struct {
	once   sync.Once
	schema *gojsonschema.Schema
	err    error
}

var (
	schemaMu    sync.Mutex
	schemaCache = map[string]*compiled{}
)

func compiledSchema(key string, build func() map[string]interface{}) (*gojsonschema.Schema, error) {
	schemaMu.Lock()
	c, ok := schemaCache[key]
	if !ok {
		c = &compiled{}
		schemaCache[key] = c
	}
	schemaMu.Unlock()

	c.once.Do(func() {
		c.schema, c.err = gojsonschema.NewSchema(gojsonschema.NewGoLoader(build()))
	})
	return c.schema, c.err
}

// CheckSectionShape validates a draft payload against the section schema.
func CheckSectionShape(s *Section, payload map[string]interface{}) ([]apperr.FieldError, error) {
	schema, err := compiledSchema("section:"+s.Key, s.Schema)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", s.Key, err)
	}
	return checkShape(schema, payload)
}

// CheckDocumentShape validates a full submission payload against the union
// of every section schema.
func CheckDocumentShape(payload map[string]interface{}) ([]apperr.FieldError, error) {
	schema, err := compiledSchema("document", func() map[string]interface{} {
		var fields []Field
		var pairs []ConditionalPair
		for _, s := range sections {
			fields = append(fields, s.Fields...)
			pairs = append(pairs, s.Pairs...)
		}
		return schemaFor(fields, pairs)
	})
	if err != nil {
		return nil, fmt.Errorf("compile document schema: %w", err)
	}
	return checkShape(schema, payload)
}

func checkShape(schema *gojsonschema.Schema, payload map[string]interface{}) ([]apperr.FieldError, error) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	res, err := schema.Validate(gojsonschema.NewGoLoader(payload))
	if err != nil {
		return nil, fmt.Errorf("validate payload shape: %w", err)
	}
	if res.Valid() {
		return nil, nil
	}

	errs := make([]apperr.FieldError, 0, len(res.Errors()))
	for _, re := range res.Errors() {
		fe := apperr.FieldError{Path: re.Field(), Message: re.Description(), Rule: re.Type()}
		switch re.Type() {
		case "additional_property_not_allowed":
			if prop, ok := re.Details()["property"].(string); ok {
				fe.Path = prop
			}
			fe.Message = msgUnknownField
		case "enum":
			fe.Message = MsgInvalidOption
		case "invalid_type":
			fe.Message = msgWrongType
		case "string_lte":
			fe.Message = msgTooLong
		}
		errs = append(errs, fe)
	}
	sortErrors(errs)
	return errs, nil
}

// ToValues converts a payload that passed the shape check.
func ToValues(payload map[string]interface{}) map[string]string {
	out := make(map[string]string, len(payload))
	for k, v := range payload {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
