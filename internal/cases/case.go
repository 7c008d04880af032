package cases

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a case.
type Status string

const (
	StatusNew          Status = "New"
	StatusAcknowledged Status = "Acknowledged"
	StatusInProgress   Status = "In-progress"
	StatusResolved     Status = "Resolved"
	StatusClosed       Status = "Closed"
)

// Statuses is the ordered set of allowed status values. Validation and every
// status picker read from this slice.
var Statuses = []Status{
	StatusNew,
	StatusAcknowledged,
	StatusInProgress,
	StatusResolved,
	StatusClosed,
}

// Valid reports whether s is one of Statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// StatusNames returns Statuses as plain strings, in order.
func StatusNames() []string {
	names := make([]string, len(Statuses))
	for i, s := range Statuses {
		names[i] = string(s)
	}
	return names
}

// StatusIndex returns the position of s in Statuses, or -1.
func StatusIndex(s Status) int {
	for i, v := range Statuses {
		if v == s {
			return i
		}
	}
	return -1
}

// Field lengths.
const (
	MaxCaseNumberLen  = 10
	MaxTitleLen       = 80
	MaxDescriptionLen = 200
)

// Field names as they appear on the wire and in FieldErrors.
const (
	FieldCaseNumber  = "caseNumber"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStatus      = "status"
)

// InputFields lists the four user-editable fields in display order.
var InputFields = []string{FieldCaseNumber, FieldTitle, FieldDescription, FieldStatus}

// Case is a tracked support/incident record as served by the backend.
type Case struct {
	ID                   int64     `json:"id" yaml:"id"`
	CaseNumber           string    `json:"caseNumber" yaml:"caseNumber"`
	Title                string    `json:"title" yaml:"title"`
	Description          *string   `json:"description" yaml:"description"`
	Status               Status    `json:"status" yaml:"status"`
	CreatedDateTime      time.Time `json:"createdDateTime" yaml:"createdDateTime"`
	LastModifiedDateTime time.Time `json:"lastModifiedDateTime" yaml:"lastModifiedDateTime"`
}

// DescriptionText returns the description or "" when unset.
func (c Case) DescriptionText() string {
	if c.Description == nil {
		return ""
	}
	return *c.Description
}

// Input returns the case's editable values, e.g. to prefill an edit form.
func (c Case) Input() Input {
	return Input{
		CaseNumber:  c.CaseNumber,
		Title:       c.Title,
		Description: c.DescriptionText(),
		Status:      string(c.Status),
	}
}

// Input holds raw, unvalidated form values. An absent value is the empty string.
type Input struct {
	CaseNumber  string `json:"caseNumber"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// Fields is the normalized result of a successful validation.
type Fields struct {
	CaseNumber  string  `json:"caseNumber"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      Status  `json:"status"`
}

// FieldErrors maps a field name to its validation messages.
type FieldErrors map[string][]string

// Add appends msg to field's messages.
func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Has reports whether field has at least one message.
func (fe FieldErrors) Has(field string) bool {
	return len(fe[field]) > 0
}

// Error implements error so a failed validation can travel as one.
func (fe FieldErrors) Error() string {
	var parts []string
	for _, f := range InputFields {
		for _, m := range fe[f] {
			parts = append(parts, f+": "+m)
		}
	}
	return strings.Join(parts, "; ")
}
