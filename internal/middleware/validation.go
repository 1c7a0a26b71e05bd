package middleware

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

var controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

// SanitizeString removes null bytes and control characters except newlines
// and tabs, then trims whitespace.
func SanitizeString(input string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(input, ""))
}

// ValidateStruct runs validator tags on a bound request struct. Handlers
// call it after binding so malformed JSON and invalid field values share
// the same 400 path.
func ValidateStruct(v interface{}) error {
	return validate.Struct(v)
}
