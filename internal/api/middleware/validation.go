package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierrors "video-qa/internal/api/errors"
)

// Validator interface for domain validation
type Validator interface {
	Validate() error
}

// ValidateRequest validates both struct tags and domain rules
func ValidateRequest(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apierrors.NewValidationError("Validation failed", fieldErrors(err, "request", "invalid JSON format"))
	}
	return validateDomain(req)
}

// ValidateQuery validates query parameters
func ValidateQuery(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindQuery(req); err != nil {
		return apierrors.NewValidationError("Invalid query parameters", fieldErrors(err, "query", "invalid query parameters"))
	}
	return validateDomain(req)
}

func validateDomain(req interface{}) error {
	if v, ok := req.(Validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func fieldErrors(err error, fallbackField, fallbackMsg string) map[string]string {
	details := make(map[string]string)

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		details[fallbackField] = fallbackMsg
		return details
	}

	for _, fe := range validationErrs {
		field := toSnake(fe.Field())
		switch fe.Tag() {
		case "required":
			details[field] = "is required"
		case "min", "gte":
			details[field] = "is too small"
		case "max", "lte":
			details[field] = "is too large"
		case "oneof":
			details[field] = "must be one of: " + fe.Param()
		default:
			details[field] = "is invalid"
		}
	}
	return details
}

// toSnake turns a Go field name like TopK into top_k
func toSnake(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range s {
		upper := r >= 'A' && r <= 'Z'
		if upper {
			if prevLower {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		prevLower = !upper
		b.WriteRune(r)
	}
	return b.String()
}
