// Package validation holds the request-field rules applied before any
// agent application is written.
package validation

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	maxExperience   = 50
	MaxReasonLength = 500
)

// AgentApplicationInput is the raw submission as received from a form or
// JSON body. Experience stays textual until it is checked.
type AgentApplicationInput struct {
	Name                 string `json:"name" validate:"required,max=100"`
	Contact              string `json:"contact" validate:"len=10,number"`
	Email                string `json:"email" validate:"required,max=254,email"`
	Address              string `json:"address" validate:"required,min=10,max=200"`
	JobTitle             string `json:"jobTitle" validate:"required,max=100"`
	Experience           string `json:"experience" validate:"experience"`
	Company              string `json:"company" validate:"required,max=100"`
	InspectionExperience string `json:"inspection" validate:"oneof=Yes No"`
	FraudExperience      string `json:"fraud" validate:"oneof=Yes No"`
	WorkHours            string `json:"workHours" validate:"oneof=Full-time Part-time"`
	ExpectedSalary       string `json:"salary" validate:"required,max=50"`
}

// Violation is one failed field rule.
type Violation struct {
	Field   string
	Message string
}

var fieldLabels = map[string]string{
	"name":       "Name",
	"contact":    "Contact number",
	"email":      "Email",
	"address":    "Address",
	"jobTitle":   "Job title",
	"experience": "Experience",
	"company":    "Company",
	"inspection": "Inspection experience",
	"fraud":      "Fraud detection experience",
	"workHours":  "Work hours",
	"salary":     "Expected salary",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("experience", func(fl validator.FieldLevel) bool {
		_, ok := ParseExperience(fl.Field().String())
		return ok
	})
	return v
}

// Normalize trims every field and lower-cases the email.
func Normalize(in AgentApplicationInput) AgentApplicationInput {
	return AgentApplicationInput{
		Name:                 strings.TrimSpace(in.Name),
		Contact:              strings.TrimSpace(in.Contact),
		Email:                strings.ToLower(strings.TrimSpace(in.Email)),
		Address:              strings.TrimSpace(in.Address),
		JobTitle:             strings.TrimSpace(in.JobTitle),
		Experience:           strings.TrimSpace(in.Experience),
		Company:              strings.TrimSpace(in.Company),
		InspectionExperience: strings.TrimSpace(in.InspectionExperience),
		FraudExperience:      strings.TrimSpace(in.FraudExperience),
		WorkHours:            strings.TrimSpace(in.WorkHours),
		ExpectedSalary:       strings.TrimSpace(in.ExpectedSalary),
	}
}

// ValidateAgentApplication checks a normalized submission and returns the
// violations in field order, at most one per field. An empty result means
// the input is valid.
func ValidateAgentApplication(in AgentApplicationInput) []Violation {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []Violation{{Field: "", Message: err.Error()}}
	}

	out := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, Violation{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

// ValidateRejectionReason bounds the optional reviewer note.
func ValidateRejectionReason(reason string) []Violation {
	if err := validate.Var(reason, "max="+strconv.Itoa(MaxReasonLength)); err != nil {
		return []Violation{{Field: "rejectionReason", Message: "Rejection reason must be at most 500 characters"}}
	}
	return nil
}

// ParseExperience accepts whole years in [0, 50].
func ParseExperience(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	years, err := strconv.Atoi(raw)
	if err != nil || years < 0 || years > maxExperience {
		return 0, false
	}
	return years, true
}

func message(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		return label + " must be at least " + fe.Param() + " characters"
	case "max":
		if fe.Field() == "email" {
			return "Please enter a valid email address"
		}
		return label + " must be at most " + fe.Param() + " characters"
	case "len":
		return label + " must be exactly " + fe.Param() + " digits"
	case "number":
		return label + " must contain digits only"
	case "email":
		return "Please enter a valid email address"
	case "experience":
		return "Experience must be a whole number between 0 and " + strconv.Itoa(maxExperience)
	case "oneof":
		return label + " must be " + strings.Join(strings.Fields(fe.Param()), " or ")
	default:
		return label + " is invalid"
	}
}
