package cases

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// caseRules carries the declarative constraints for the four input fields.
type caseRules struct {
	CaseNumber  string `json:"caseNumber" validate:"required,max=10"`
	Title       string `json:"title" validate:"required,max=80"`
	Description string `json:"description" validate:"max=200"`
	Status      string `json:"status" validate:"case_status"`
}

var fieldLabels = map[string]string{
	FieldCaseNumber:  "Case number",
	FieldTitle:       "Title",
	FieldDescription: "Description",
	FieldStatus:      "Status",
}

// FieldLabel returns the display label of a field name, or the name itself.
func FieldLabel(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return field
}

// Schema validates raw case input. It is safe for concurrent use.
type Schema struct {
	v *validator.Validate
}

// NewSchema builds a Schema with the case_status rule bound to Statuses.
func NewSchema() *Schema {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("case_status", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return Status(value).Valid()
	})

	return &Schema{v: v}
}

var defaultSchema = NewSchema()

// Validate checks in against the default schema.
func Validate(in Input) (Fields, FieldErrors) {
	return defaultSchema.Validate(in)
}

// Validate trims every value and checks it. On success the normalized Fields
// are returned and the FieldErrors are nil; on failure every invalid field has
// at least one message and no valid field appears.
func (s *Schema) Validate(in Input) (Fields, FieldErrors) {
	rules := caseRules{
		CaseNumber:  strings.TrimSpace(in.CaseNumber),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Status:      strings.TrimSpace(in.Status),
	}

	if err := s.v.Struct(rules); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			// Only reachable on a programming error in caseRules.
			return Fields{}, FieldErrors{FieldCaseNumber: {err.Error()}}
		}
		fe := make(FieldErrors, len(verrs))
		for _, ve := range verrs {
			fe.Add(ve.Field(), message(ve))
		}
		return Fields{}, fe
	}

	out := Fields{
		CaseNumber: rules.CaseNumber,
		Title:      rules.Title,
		Status:     Status(rules.Status),
	}
	if rules.Description != "" {
		d := rules.Description
		out.Description = &d
	}
	return out, nil
}

func message(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", label)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "case_status":
		return fmt.Sprintf("Please select a status (%s).", strings.Join(StatusNames(), ", "))
	default:
		return fmt.Sprintf("%s is invalid.", label)
	}
}
