package blog

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// fieldOrder fixes the order in which messages are reported
var fieldOrder = []string{"title", "slug", "content_raw", "excerpt", "category_id", "is_published", "published_at"}

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
	return v
}

// ValidationError lists the rule violations of a payload per field
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// Error returns the first message, followed by a count of the remaining ones
func (e *ValidationError) Error() string {
	var messages []string
	for _, field := range e.orderedFields() {
		messages = append(messages, e.Fields[field]...)
	}
	if len(messages) == 0 {
		return "The given data was invalid."
	}

	switch rest := len(messages) - 1; rest {
	case 0:
		return messages[0]
	case 1:
		return messages[0] + " (and 1 more error)"
	default:
		return fmt.Sprintf("%s (and %d more errors)", messages[0], rest)
	}
}

func (e *ValidationError) orderedFields() []string {
	known := make(map[string]bool, len(fieldOrder))
	fields := make([]string, 0, len(e.Fields))
	for _, f := range fieldOrder {
		known[f] = true
		if _, ok := e.Fields[f]; ok {
			fields = append(fields, f)
		}
	}
	var extra []string
	for f := range e.Fields {
		if !known[f] {
			extra = append(extra, f)
		}
	}
	sort.Strings(extra)
	return append(fields, extra...)
}

// validateInput applies the field rules and the category existence check.
// It returns a *ValidationError, nil, or a store error from the lookup.
func (s *Service) validateInput(ctx context.Context, in *PostInput) error {
	verr := NewValidationError()
	for field, message := range in.invalid {
		verr.Add(field, message)
	}

	if err := validate.Struct(in); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("failed to validate payload: %w", err)
		}
		for _, fe := range fieldErrs {
			if _, typeErr := in.invalid[fe.Field()]; typeErr {
				continue
			}
			verr.Add(fe.Field(), ruleMessage(fe))
		}
	}

	if in.CategoryID != nil {
		exists, err := s.categories.Exists(ctx, *in.CategoryID)
		if err != nil {
			return fmt.Errorf("failed to check category: %w", err)
		}
		if !exists {
			verr.Add("category_id", "The selected category id is invalid.")
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

func ruleMessage(fe validator.FieldError) string {
	attribute := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", attribute)
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", attribute, fe.Param())
	default:
		return fmt.Sprintf("The %s field is invalid.", attribute)
	}
}
