package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

// fieldMessages maps validator tags to messages. %[1]s is the field and %[2]s the
// tag parameter.
var fieldMessages = map[string]string{
	"required":  "Field '%[1]s' is required",
	"email":     "Field '%[1]s' must be a valid email",
	"min":       "Field '%[1]s' must be at least %[2]s",
	"max":       "Field '%[1]s' must be at most %[2]s",
	"len":       "Field '%[1]s' must have length %[2]s",
	"numeric":   "Field '%[1]s' must be numeric",
	"oneof":     "Field '%[1]s' must be one of %[2]s",
	"hhmm":      "Field '%[1]s' must be a time in HH:MM format",
	"weekstart": "Field '%[1]s' must be a Sunday in yyyy-MM-dd format",
	"minutes":   "Field '%[1]s' must be a whole number of minutes",
}

// FormatBindingError turns a gin binding error into a message for the client.
func FormatBindingError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, io.EOF) {
		return "Request body is empty"
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("Invalid JSON at byte offset %d", syntaxErr.Offset)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("Field '%s' should be of type %s", typeErr.Field, typeErr.Type.String())
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make([]string, 0, len(ve))
		for _, fe := range ve {
			out = append(out, formatFieldError(fe))
		}
		return strings.Join(out, ", ")
	}

	return err.Error()
}

func formatFieldError(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Tag()]; ok {
		return fmt.Sprintf(msg, fe.Field(), fe.Param())
	}
	return fmt.Sprintf("Field '%s' failed validation for '%s'", fe.Field(), fe.Tag())
}
