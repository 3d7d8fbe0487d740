package custom_errors

import (
	"fmt"
	"strings"
)

// FieldError is a single rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) Error() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Message)
}

type ValidationError struct {
	Errors []error `json:"errors"`
}

func (c *ValidationError) Add(err error) {
	c.Errors = append(c.Errors, err)
}

func (c *ValidationError) AddField(field, format string, args ...any) {
	c.Add(FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *ValidationError) HasError() bool {
	return len(c.Errors) > 0
}

// Fields returns the names of all rejected fields, in the order they were added.
func (c *ValidationError) Fields() []string {
	var fields []string
	for _, err := range c.Errors {
		if fe, ok := err.(FieldError); ok {
			fields = append(fields, fe.Field)
		}
	}
	return fields
}

func (c *ValidationError) Error() string {
	if len(c.Errors) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(c.Errors))
	for _, err := range c.Errors {
		msgs = append(msgs, err.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// OrNil returns nil when nothing was collected so callers can return it directly.
func (c *ValidationError) OrNil() error {
	if !c.HasError() {
		return nil
	}
	return c
}
