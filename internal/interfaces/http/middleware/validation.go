package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/fablecraft/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// validationMessages maps validator tags to client messages. A trailing
// space means the tag parameter is appended.
var validationMessages = map[string]string{
	"required": "This field is required",
	"notblank": "Must not be blank",
	"email":    "Invalid email format",
	"uuid":     "Invalid UUID format",
	"url":      "Invalid URL format",
	"numeric":  "Must be numeric",
	"oneof":    "Must be one of: ",
	"gte":      "Must be greater than or equal to ",
	"lte":      "Must be less than or equal to ",
	"gt":       "Must be greater than ",
	"lt":       "Must be less than ",
}

// SetupValidator registers the notblank tag and reports fields by their
// json (or form) names. Safe to call more than once.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterTagNameFunc(fieldName)
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return ""
}

// FormatValidationErrors turns a binding error into the error envelope
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return dto.NewValidationErrorResponse(err.Error(), requestID, nil)
	}
	details := make([]dto.ValidationDetail, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		details = append(details, dto.ValidationDetail{Field: e.Field(), Message: getValidationMessage(e)})
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError writes a 400 validation envelope
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, getRequestIDFromContext(c)))
}

func getRequestIDFromContext(c *gin.Context) string {
	if id := c.GetString(RequestIDContextKey); id != "" {
		return id
	}
	return c.GetHeader(RequestIDHeader)
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "min", "max", "len":
		return lengthMessage(e)
	}
	msg, ok := validationMessages[e.Tag()]
	if !ok {
		return "Invalid value"
	}
	if strings.HasSuffix(msg, " ") {
		return msg + e.Param()
	}
	return msg
}

// lengthMessage counts characters for strings and items for slices
func lengthMessage(e validator.FieldError) string {
	bound := map[string]string{"min": "at least ", "max": "at most ", "len": "exactly "}[e.Tag()]
	switch e.Kind() {
	case reflect.String:
		return "Must be " + bound + e.Param() + " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		return "Must contain " + bound + e.Param() + " items"
	default:
		return "Must be " + bound + e.Param()
	}
}
