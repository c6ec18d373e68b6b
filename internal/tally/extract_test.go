package tally

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/preferredrecruit/intake-gateway/internal/model"
)

func field(key, typ, rawValue string, opts ...model.FieldOption) model.Field {
	return model.Field{Key: key, Type: typ, Value: json.RawMessage(rawValue), Options: opts}
}

var testMapping = Mapping{
	"name":      "q_name",
	"age":       "q_age",
	"budget":    "q_budget",
	"sport":     "q_sport",
	"divisions": "q_divisions",
	"poster":    "q_poster",
	"agreed":    "q_agreed",
}

func TestExtractString(t *testing.T) {
	env := model.Envelope{Fields: []model.Field{
		field("q_name", model.FieldInputText, `"Jordan Avery"`),
	}}
	res := Extract(env, testMapping)

	assert.Equal(t, "Jordan Avery", res.String("name"))
	assert.Equal(t, "", res.String("age"), "absent field is empty, not an error")
	assert.Equal(t, "", res.String("not_in_mapping"))
}

func TestExtractNumberLenient(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"plain number", `2027`, 2027},
		{"numeric string", `"3.85"`, 3.85},
		{"currency", `"$1,200.50"`, 1200.5},
		{"with unit", `"185 lbs"`, 185},
		{"garbage", `"n/a"`, 0},
		{"empty", `""`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := model.Envelope{Fields: []model.Field{
				field("q_budget", model.FieldInputNumber, tt.raw),
			}}
			assert.Equal(t, tt.want, Extract(env, testMapping).Number("budget"))
		})
	}
}

func TestExtractInteger(t *testing.T) {
	env := model.Envelope{Fields: []model.Field{
		field("q_age", model.FieldInputNumber, `"17 years"`),
	}}
	res := Extract(env, testMapping)

	assert.Equal(t, 17, res.Integer("age"))
	assert.Equal(t, 0, res.Integer("budget"))
}

func TestExtractDropdownResolvesOptionLabel(t *testing.T) {
	env := model.Envelope{Fields: []model.Field{
		field("q_sport", model.FieldDropdown, `["opt_2"]`,
			model.FieldOption{ID: "opt_1", Text: "Soccer"},
			model.FieldOption{ID: "opt_2", Text: "Volleyball"},
		),
	}}
	assert.Equal(t, "Volleyball", Extract(env, testMapping).Dropdown("sport"))
}

func TestExtractDropdownScalarCoercion(t *testing.T) {
	// some forms deliver the label directly instead of an option id list
	env := model.Envelope{Fields: []model.Field{
		field("q_sport", model.FieldDropdown, `"Soccer"`),
	}}
	assert.Equal(t, "Soccer", Extract(env, testMapping).Dropdown("sport"))
}

func TestExtractMultiSelect(t *testing.T) {
	env := model.Envelope{Fields: []model.Field{
		field("q_divisions", model.FieldCheckboxes, `["opt_a","opt_c"]`,
			model.FieldOption{ID: "opt_a", Text: "D1"},
			model.FieldOption{ID: "opt_b", Text: "D2"},
			model.FieldOption{ID: "opt_c", Text: "D3"},
		),
	}}
	res := Extract(env, testMapping)

	assert.Equal(t, []string{"D1", "D3"}, res.MultiSelect("divisions"))
	assert.Nil(t, res.MultiSelect("sport"))
}

func TestExtractMultiSelectUnknownOptionKeepsID(t *testing.T) {
	env := model.Envelope{Fields: []model.Field{
		field("q_divisions", model.FieldCheckboxes, `["opt_gone"]`),
	}}
	assert.Equal(t, []string{"opt_gone"}, Extract(env, testMapping).MultiSelect("divisions"))
}

func TestExtractFile(t *testing.T) {
	env := model.Envelope{Fields: []model.Field{
		field("q_poster", model.FieldFileUpload,
			`[{"id":"f1","name":"poster.png","url":"https://cdn.example.com/poster.png","mimeType":"image/png","size":1024}]`),
	}}
	f := Extract(env, testMapping).File("poster")

	assert.Equal(t, "poster.png", f.Name)
	assert.Equal(t, "https://cdn.example.com/poster.png", f.URL)
	assert.Equal(t, "image/png", f.MimeType)
}

func TestExtractFileAbsent(t *testing.T) {
	env := model.Envelope{Fields: []model.Field{}}
	assert.Equal(t, model.FileUpload{}, Extract(env, testMapping).File("poster"))
}

func TestExtractBool(t *testing.T) {
	tests := []struct {
		name string
		f    []model.Field
		want bool
	}{
		{"yes string", []model.Field{field("q_agreed", model.FieldInputText, `"Yes"`)}, true},
		{"checked checkbox", []model.Field{field("q_agreed", model.FieldCheckboxes, `true`)}, true},
		{"yes option", []model.Field{field("q_agreed", model.FieldMultipleChoice, `["o1"]`, model.FieldOption{ID: "o1", Text: "Yes"})}, true},
		{"no string", []model.Field{field("q_agreed", model.FieldInputText, `"No"`)}, false},
		{"unchecked", []model.Field{field("q_agreed", model.FieldCheckboxes, `false`)}, false},
		{"absent", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := model.Envelope{Fields: tt.f}
			assert.Equal(t, tt.want, Extract(env, testMapping).Bool("agreed"))
		})
	}
}

func TestExtractUnmappedCapture(t *testing.T) {
	env := model.Envelope{Fields: []model.Field{
		field("q_name", model.FieldInputText, `"Jordan"`),
		field("q_mystery", model.FieldInputText, `"something new"`),
		field("q_numbers", model.FieldInputNumber, `42`),
	}}
	res := Extract(env, testMapping)

	un := res.Unmapped()
	assert.Len(t, un, 2)
	assert.Equal(t, "something new", un["q_mystery"])
	assert.Equal(t, float64(42), un["q_numbers"])
	assert.NotContains(t, un, "q_name")
}

func TestExtractNeverPanicsOnHostileShapes(t *testing.T) {
	env := model.Envelope{Fields: []model.Field{
		field("q_name", model.FieldInputText, `{"nested":"object"}`),
		field("q_age", model.FieldInputNumber, `[[1,2],[3]]`),
		field("q_poster", model.FieldFileUpload, `"just-a-string"`),
		field("q_divisions", model.FieldCheckboxes, `{"weird":true}`),
		{Key: "q_sport", Type: model.FieldDropdown, Value: nil},
	}}
	res := Extract(env, testMapping)

	assert.Equal(t, "", res.String("name"))
	assert.Equal(t, float64(0), res.Number("age"))
	assert.Equal(t, model.FileUpload{}, res.File("poster"))
	assert.Nil(t, res.MultiSelect("divisions"))
	assert.Equal(t, "", res.Dropdown("sport"))
	assert.False(t, res.Bool("agreed"))
}
