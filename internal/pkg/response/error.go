package response

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nekogravitycat/crm-backend/internal/logger"
	"github.com/nekogravitycat/crm-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/crm-backend/internal/pkg/validate"
)

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationResponse lists every invalid field of a request.
type ValidationResponse struct {
	Errors validate.Errors `json:"errors"`
}

// Error sends a JSON error response.
// AppErrors carry their own status, validation errors become 400 with the
// field list, and anything else is logged and reported as a bare 500.
func Error(c *gin.Context, err error) {
	var fieldErrs validate.Errors
	if errors.As(err, &fieldErrs) {
		c.JSON(http.StatusBadRequest, ValidationResponse{Errors: fieldErrs})
		return
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Code, ErrorResponse{Error: appErr.Message})
		return
	}

	logger.WithContext(c.Request.Context()).Error("unhandled error",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// BindError reports a failed ShouldBind* call. Struct tag violations are
// rendered like service-side validation; malformed input gets a plain 400.
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(validate.Errors, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, validate.FieldError{Param: fe.Field(), Msg: tagMessage(fe)})
		}
		c.JSON(http.StatusBadRequest, ValidationResponse{Errors: out})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
}

func tagMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "Valid email is required"
	case "url":
		return field + " must be a valid URL"
	case "oneof":
		return "Invalid " + field + ", must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if isNumber(fe) {
			return field + " must be at least " + fe.Param()
		}
		return field + " must be at least " + fe.Param() + " characters"
	case "max":
		if isNumber(fe) {
			return field + " must be at most " + fe.Param()
		}
		return field + " cannot exceed " + fe.Param() + " characters"
	case "len":
		return field + " must be exactly " + fe.Param() + " characters"
	case "gte":
		return field + " must be greater than or equal to " + fe.Param()
	case "lte":
		return field + " must be less than or equal to " + fe.Param()
	case "eqfield":
		return "Password confirmation does not match password"
	default:
		return "Invalid " + field
	}
}

func isNumber(fe validator.FieldError) bool {
	switch fe.Kind().String() {
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64", "float32", "float64":
		return true
	}
	return false
}
