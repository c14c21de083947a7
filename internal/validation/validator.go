// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrorCode is the API error code for every request validation failure.
const ErrorCode = "VALIDATION_ERROR"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidationError is one rejected field, named by its json tag.
type ValidationError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

func (e *ValidationError) Field() string      { return e.field }
func (e *ValidationError) Tag() string        { return e.tag }
func (e *ValidationError) Param() string      { return e.param }
func (e *ValidationError) Value() interface{} { return e.value }
func (e *ValidationError) Error() string      { return e.message }

// RequestValidationError collects every field a request body got wrong.
type RequestValidationError struct {
	errors []ValidationError
}

// Errors returns the rejected fields in struct order.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(ve.errors))
	for i := range ve.errors {
		parts[i] = ve.errors[i].message
	}
	return strings.Join(parts, "; ")
}

// APIError is the code, message and details triple written into the
// response envelope.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError flattens the failure for the response envelope. A single field
// is reported inline; several are listed under "fields".
func (ve *RequestValidationError) ToAPIError() *APIError {
	switch len(ve.errors) {
	case 0:
		return &APIError{Code: ErrorCode, Message: "Validation failed"}
	case 1:
		fe := ve.errors[0]
		return &APIError{
			Code:    ErrorCode,
			Message: fe.message,
			Details: map[string]interface{}{
				"field": fe.field,
				"tag":   fe.tag,
				"value": fe.value,
			},
		}
	}

	fields := make([]map[string]interface{}, 0, len(ve.errors))
	summary := make([]string, 0, len(ve.errors))
	for _, fe := range ve.errors {
		fields = append(fields, map[string]interface{}{
			"field":   fe.field,
			"tag":     fe.tag,
			"message": fe.message,
		})
		summary = append(summary, fe.field+": "+fe.message)
	}
	return &APIError{
		Code:    ErrorCode,
		Message: strings.Join(summary, "; "),
		Details: map[string]interface{}{"fields": fields},
	}
}

// GetValidator returns the shared validator, building it on first use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
		// Only fails for an empty tag or nil func.
		_ = validate.RegisterValidation("half_step", halfStep)
	})
	return validate
}

// ValidateStruct checks s against its validate tags. It returns nil when s
// is valid.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError: s was not a struct.
		return &RequestValidationError{errors: []ValidationError{
			{field: "unknown", tag: "unknown", message: err.Error()},
		}}
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			param:   fe.Param(),
			value:   fe.Value(),
			message: describe(fe),
		})
	}
	return &RequestValidationError{errors: out}
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	default:
		return name
	}
}

// halfStep accepts ratings on the 0.5 grid.
func halfStep(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.Float32 && f.Kind() != reflect.Float64 {
		return false
	}
	doubled := f.Float() * 2
	return doubled == math.Trunc(doubled)
}

var comparisons = map[string]string{
	"gt":  "greater than",
	"gte": "greater than or equal to",
	"lt":  "less than",
	"lte": "less than or equal to",
}

func describe(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()

	switch tag := fe.Tag(); tag {
	case "required":
		return field + " is required"
	case "half_step":
		return field + " must be a multiple of 0.5"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "gt", "gte", "lt", "lte":
		return fmt.Sprintf("%s must be %s %s", field, comparisons[tag], param)
	case "min", "max":
		bound := "at least"
		if tag == "max" {
			bound = "at most"
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be %s %s characters", field, bound, param)
		}
		return fmt.Sprintf("%s must be %s %s", field, bound, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
