package schedule

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

const documentSchema = `{
  "type": "object",
  "required": ["kind"],
  "additionalProperties": false,
  "properties": {
    "kind":      {"type": "string"},
    "at":        {"type": "string"},
    "repeating": {"type": "boolean"},
    "pattern":   {"type": "string"},
    "timezone":  {"type": "string"},
    "every":     {"type": "string"},
    "count":     {"type": "integer", "maximum": 4294967295},
    "on": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "year":    {"type": "integer"},
        "month":   {"type": "integer"},
        "day":     {"type": "integer"},
        "weekday": {"type": "integer"},
        "hour":    {"type": "integer"},
        "minute":  {"type": "integer"},
        "second":  {"type": "integer"}
      }
    }
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	if err != nil {
		panic("schedule: invalid document schema: " + err.Error())
	}
	return s
}

// Parse validates caller input and builds a Spec.
//
// Accepted forms:
//
//	{"kind":"at","at":"2024-03-01T09:00:00Z","repeating":false}
//	{"kind":"interval","on":{"hour":9,"minute":0},"timezone":"Europe/Berlin"}
//	{"kind":"interval","pattern":"* * * * 9 0 * minute"}
//	{"kind":"every","every":"minute","count":5}
func Parse(raw []byte) (Spec, error) {
	kind, err := kindOf(raw)
	if err != nil {
		return Spec{}, err
	}

	result, err := compiledSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return Spec{}, WrapError(CodeInvalidDate, err, "invalid schedule")
	}
	if !result.Valid() {
		return Spec{}, schemaError(result.Errors())
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Spec{}, WrapError(CodeInvalidDate, err, "invalid schedule")
	}

	switch kind {
	case KindAt:
		return parseAt(doc)
	case KindInterval:
		return parseInterval(doc)
	default:
		return parseEvery(doc)
	}
}

// kindOf reads the discriminant before anything else so an unrecognised variant is
// reported as such rather than as a field error.
func kindOf(raw []byte) (Kind, error) {
	var head map[string]json.RawMessage
	if err := json.Unmarshal(raw, &head); err != nil || head == nil {
		return "", WrapError(CodeUnknownScheduleKind, err, "schedule is not a JSON object")
	}

	var name string
	if rawKind, ok := head["kind"]; !ok || json.Unmarshal(rawKind, &name) != nil {
		return "", NewError(CodeUnknownScheduleKind, "schedule requires a string kind")
	}

	switch kind := Kind(strings.ToLower(name)); kind {
	case KindAt, KindInterval, KindEvery:
		return kind, nil
	}
	return "", NewError(CodeUnknownScheduleKind, "unknown schedule kind %q", name)
}

func schemaError(errs []gojsonschema.ResultError) error {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.String())
	}
	return NewError(CodeInvalidDate, "invalid schedule: %s", strings.Join(msgs, "; "))
}

func parseAt(doc document) (Spec, error) {
	if doc.At == "" {
		return Spec{}, NewError(CodeInvalidDate, "at schedule requires an \"at\" timestamp")
	}
	when, err := time.Parse(time.RFC3339Nano, doc.At)
	if err != nil {
		return Spec{}, WrapError(CodeInvalidDate, err, "invalid at timestamp %q", doc.At)
	}
	return NewAt(when, doc.Repeating), nil
}

func parseInterval(doc document) (Spec, error) {
	var pattern DateMatch
	switch {
	case doc.On != nil && doc.Pattern != "":
		return Spec{}, NewError(CodeInvalidDate, "interval schedule takes either \"on\" or \"pattern\", not both")
	case doc.On != nil:
		pattern = *doc.On
	case doc.Pattern != "":
		parsed, err := ParseDateMatch(doc.Pattern)
		if err != nil {
			return Spec{}, err
		}
		pattern = parsed
	}

	spec := NewInterval(pattern, doc.Timezone)
	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

func parseEvery(doc document) (Spec, error) {
	unit, err := ParseIntervalUnit(doc.Every)
	if err != nil {
		return Spec{}, err
	}
	return NewEvery(unit, doc.Count), nil
}
