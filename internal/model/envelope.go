package model

import "encoding/json"

// Field type tags used by the provider. The value shape depends on the tag:
// scalar for inputs, a list of selected option ids for choice fields, a list
// of upload descriptors for file fields.
const (
	FieldInputText      = "INPUT_TEXT"
	FieldInputEmail     = "INPUT_EMAIL"
	FieldInputPhone     = "INPUT_PHONE_NUMBER"
	FieldInputNumber    = "INPUT_NUMBER"
	FieldTextarea       = "TEXTAREA"
	FieldDropdown       = "DROPDOWN"
	FieldMultipleChoice = "MULTIPLE_CHOICE"
	FieldCheckboxes     = "CHECKBOXES"
	FieldFileUpload     = "FILE_UPLOAD"
	FieldHiddenField    = "HIDDEN_FIELDS"
)

// Envelope is the raw inbound webhook payload. It is decoded once per
// delivery and never persisted verbatim; only extracted fields are stored.
type Envelope struct {
	EventID      string  `json:"eventId"`
	CreatedAt    string  `json:"createdAt"`
	SubmissionID string  `json:"submissionId"`
	Fields       []Field `json:"fields"`
}

// Field is one question/answer pair. Value stays raw until a typed getter
// decodes it against the type tag.
type Field struct {
	Key     string          `json:"key"`
	Label   string          `json:"label"`
	Type    string          `json:"type"`
	Value   json.RawMessage `json:"value"`
	Options []FieldOption   `json:"options,omitempty"`
}

// FieldOption maps a choice option id to its human label.
type FieldOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// FileUpload is the decoded descriptor of a FILE_UPLOAD answer.
type FileUpload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}
