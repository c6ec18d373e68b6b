package tally

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/preferredrecruit/intake-gateway/internal/model"
)

// Result is the extracted view of one webhook envelope against one mapping.
// All getters are total: a missing field, a wrong-shaped value, or a failed
// parse yields the type's zero value, never an error. Missing optional form
// answers are normal.
type Result struct {
	byKey    map[string]model.Field
	mapping  Mapping
	unmapped map[string]any
}

// Extract indexes the envelope's fields and captures every provider key
// absent from the mapping into the unmapped bucket. Pure transform, invoked
// once per delivery.
func Extract(env model.Envelope, m Mapping) *Result {
	mappedKeys := make(map[string]struct{}, len(m))
	for _, key := range m {
		mappedKeys[key] = struct{}{}
	}

	r := &Result{
		byKey:    make(map[string]model.Field, len(env.Fields)),
		mapping:  m,
		unmapped: make(map[string]any),
	}
	for _, f := range env.Fields {
		r.byKey[f.Key] = f
		if _, ok := mappedKeys[f.Key]; !ok {
			r.unmapped[f.Key] = decodeAny(f.Value)
		}
	}
	return r
}

// Unmapped returns provider key -> raw value for every envelope field the
// mapping does not know about, so nothing the athlete typed is dropped.
func (r *Result) Unmapped() map[string]any { return r.unmapped }

func (r *Result) field(name string) (model.Field, bool) {
	key, ok := r.mapping[name]
	if !ok {
		return model.Field{}, false
	}
	f, ok := r.byKey[key]
	return f, ok
}

// String returns the scalar answer for name, or "".
func (r *Result) String(name string) string {
	f, ok := r.field(name)
	if !ok {
		return ""
	}
	return scalarString(f.Value)
}

// Number parses the answer leniently as a float: currency symbols, commas,
// units and the like are stripped before parsing. Returns 0 when nothing
// numeric remains.
func (r *Result) Number(name string) float64 {
	f, ok := r.field(name)
	if !ok {
		return 0
	}
	n, _ := parseLenientFloat(scalarString(f.Value))
	return n
}

// Integer is Number truncated toward zero.
func (r *Result) Integer(name string) int {
	return int(r.Number(name))
}

// Dropdown returns the label of the single selected option, or "". A scalar
// string value is treated as the label itself.
func (r *Result) Dropdown(name string) string {
	vals := r.MultiSelect(name)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// MultiSelect returns the labels of all selected options. Option ids are
// resolved against the field's options table; a scalar value is wrapped in a
// single-element list.
func (r *Result) MultiSelect(name string) []string {
	f, ok := r.field(name)
	if !ok {
		return nil
	}

	var ids []string
	if err := json.Unmarshal(f.Value, &ids); err != nil {
		// scalar answer: wrap it
		if s := scalarString(f.Value); s != "" {
			return []string{s}
		}
		return nil
	}

	labels := make([]string, 0, len(ids))
	for _, id := range ids {
		labels = append(labels, optionLabel(f.Options, id))
	}
	return labels
}

// File returns the first upload descriptor for name, or the zero descriptor.
func (r *Result) File(name string) model.FileUpload {
	f, ok := r.field(name)
	if !ok {
		return model.FileUpload{}
	}

	var files []model.FileUpload
	if err := json.Unmarshal(f.Value, &files); err == nil && len(files) > 0 {
		return files[0]
	}

	// single descriptor instead of a list
	var one model.FileUpload
	if err := json.Unmarshal(f.Value, &one); err == nil {
		return one
	}
	return model.FileUpload{}
}

// Bool treats a "Yes" selection, a checked checkbox, or a truthy scalar as
// true; an absent field or anything else is false.
func (r *Result) Bool(name string) bool {
	f, ok := r.field(name)
	if !ok {
		return false
	}

	var b bool
	if err := json.Unmarshal(f.Value, &b); err == nil {
		return b
	}

	if s := scalarString(f.Value); s != "" {
		return truthy(s)
	}
	for _, label := range r.MultiSelect(name) {
		if truthy(label) {
			return true
		}
	}
	return false
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1", "checked":
		return true
	default:
		return false
	}
}

// scalarString renders a scalar JSON value as a string; non-scalar shapes
// yield "".
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return ""
}

var nonNumeric = regexp.MustCompile(`[^0-9.\-]+`)

// parseLenientFloat strips everything that is not a digit, dot, or minus
// ("$1,200.50" => 1200.5) before parsing.
func parseLenientFloat(s string) (float64, bool) {
	cleaned := nonNumeric.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func optionLabel(opts []model.FieldOption, id string) string {
	for _, o := range opts {
		if o.ID == id {
			return o.Text
		}
	}
	// unknown id: fall back to the id so the selection is not lost
	return id
}

// decodeAny decodes raw JSON into a generic value for the unmapped bucket.
// Undecodable bytes are kept verbatim as a string.
func decodeAny(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}
