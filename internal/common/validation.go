// File: internal/common/validation.go
package common

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validation limits mirrored by the login DTO.
const (
	EmailMaxLength = 254
	NameMinLength  = 1
	NameMaxLength  = 50
	URLMaxLength   = 2048
)

// nameRegex allows Unicode letters and combining marks plus space, apostrophe
// and hyphen.
var nameRegex = regexp.MustCompile(`^[\p{L}\p{M}' -]+$`)

// Validate is the process-wide validator instance with the custom rules
// registered. Handlers call Validate.Struct after normalizing input.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// personname: restricted character set for human names.
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return nameRegex.MatchString(fl.Field().String())
	})

	// httpsurl: absolute URL that must use the https scheme.
	_ = v.RegisterValidation("httpsurl", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		if !strings.HasPrefix(raw, "https://") {
			return false
		}
		parsed, err := url.Parse(raw)
		return err == nil && parsed.Host != ""
	})

	return v
}

// FieldError is one itemized validation issue attached to an error response.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// FormatValidationErrors converts validator.ValidationErrors into the
// per-field list carried by the error envelope.
func FormatValidationErrors(errs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(errs))
	for _, e := range errs {
		path := strings.ToLower(e.Field()[:1]) + e.Field()[1:]
		var message string
		switch e.Tag() {
		case "required":
			message = "This field is required."
		case "email":
			message = "Invalid email format."
		case "min":
			message = "Value is too short (minimum " + e.Param() + ")."
		case "max":
			message = "Value is too long (maximum " + e.Param() + ")."
		case "personname":
			message = "Contains invalid characters."
		case "httpsurl":
			message = "Must be a valid https:// URL."
		case "oneof":
			message = "Must be one of: " + e.Param() + "."
		default:
			message = "Failed validation on the '" + e.Tag() + "' rule."
		}
		out = append(out, FieldError{Path: path, Message: message})
	}
	return out
}
