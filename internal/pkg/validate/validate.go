// Package validate collects field-level validation failures so that every
// problem with a payload is reported at once.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one invalid input field.
type FieldError struct {
	Msg   string `json:"msg"`
	Param string `json:"param"`
}

// Errors is a list of field errors. A non-empty Errors is an error.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Param + ": " + fe.Msg
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Collector accumulates field errors while a payload is checked.
type Collector struct {
	errs Errors
}

// Add records a failure for param.
func (c *Collector) Add(param, format string, args ...any) {
	c.errs = append(c.errs, FieldError{Param: param, Msg: fmt.Sprintf(format, args...)})
}

// Check records msg for param when ok is false.
func (c *Collector) Check(ok bool, param, msg string) {
	if !ok {
		c.Add(param, "%s", msg)
	}
}

// Length checks that s has between min and max runes. A max of 0 means unbounded.
func (c *Collector) Length(param, s string, min, max int) {
	n := utf8.RuneCountInString(s)
	switch {
	case n < min && max > 0:
		c.Add(param, "%s must be between %d and %d characters", param, min, max)
	case n < min:
		c.Add(param, "%s must be at least %d characters", param, min)
	case max > 0 && n > max:
		if min > 0 {
			c.Add(param, "%s must be between %d and %d characters", param, min, max)
		} else {
			c.Add(param, "%s cannot exceed %d characters", param, max)
		}
	}
}

// MaxLength checks optional text fields.
func (c *Collector) MaxLength(param string, s *string, max int) {
	if s != nil {
		c.Length(param, *s, 0, max)
	}
}

// Email checks an optional email. Empty strings are accepted.
func (c *Collector) Email(param string, s *string) {
	if s == nil || *s == "" {
		return
	}
	if !IsEmail(*s) {
		c.Add(param, "Valid email is required")
	}
}

// URL checks an optional http(s) URL. Empty strings are accepted.
func (c *Collector) URL(param string, s *string) {
	if s == nil || *s == "" {
		return
	}
	if !IsHTTPURL(*s) {
		c.Add(param, "%s must be a valid URL", param)
	}
}

// Upper bounds of the NUMERIC columns amounts are stored in.
const (
	MaxMoney = 9_999_999_999_999.99 // NUMERIC(15,2)
	MaxHours = 999.99               // NUMERIC(5,2)
)

// Amount checks that an optional number is between 0 and max.
func (c *Collector) Amount(param string, v *float64, max float64) {
	switch {
	case v == nil:
	case *v < 0:
		c.Add(param, "%s must be a positive number", param)
	case *v > max:
		c.Add(param, "%s cannot exceed %.2f", param, max)
	}
}

// Err returns the collected errors or nil.
func (c *Collector) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}

var (
	urlPattern = regexp.MustCompile(`^https?://.+`)
	fieldCheck = validator.New()
)

// IsHTTPURL reports whether s starts with http:// or https:// and has a host part.
func IsHTTPURL(s string) bool {
	return urlPattern.MatchString(s)
}

// IsEmail reports whether s is a bare address such as bob@example.com.
func IsEmail(s string) bool {
	return fieldCheck.Var(s, "required,email") == nil
}

// IsCurrencyCode reports whether s is a three letter code such as USD.
func IsCurrencyCode(s string) bool {
	return fieldCheck.Var(s, "len=3,alpha") == nil
}
