// Package validationerrors describes field-level request validation failures.
package validationerrors

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mugiliam/unitycatalogsrv/internal/catalogmanager/schemavalidator"
)

type ValidationError struct {
	Field  string
	Value  any
	ErrStr string
}

func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.ErrStr
	}
	return ve.Field + ": " + ve.ErrStr
}

type ValidationErrors []ValidationError

func (ves ValidationErrors) Error() string {
	s := make([]string, 0, len(ves))
	for _, ve := range ves {
		s = append(s, ve.Error())
	}
	return strings.Join(s, "; ")
}

func InQuotes(s string) string {
	return "'" + s + "'"
}

func ErrMissingRequiredAttribute(attr string) ValidationError {
	return ValidationError{Field: attr, ErrStr: "missing required attribute"}
}

func ErrInvalidNameFormat(attr string, value ...string) ValidationError {
	errStr := "invalid name format; allowed characters: [A-Za-z0-9_-]"
	if len(value) > 0 {
		errStr = "invalid name format " + InQuotes(value[0]) + "; allowed characters: [A-Za-z0-9_-]"
	}
	return ValidationError{Field: attr, Value: value, ErrStr: errStr}
}

func ErrUnsupportedValue(attr string, value string, allowed string) ValidationError {
	return ValidationError{Field: attr, Value: value, ErrStr: "unsupported value " + InQuotes(value) + "; must be one of [" + allowed + "]"}
}

func ErrInvalidColumnType(attr string, value string) ValidationError {
	return ValidationError{Field: attr, Value: value, ErrStr: "unsupported column type " + InQuotes(value)}
}

func ErrValidationFailed(attr string) ValidationError {
	return ValidationError{Field: attr, ErrStr: "validation failed"}
}

// FromValidator converts the errors reported by the validator package.
func FromValidator(err error) ValidationErrors {
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{ErrStr: err.Error()}}
	}
	var ves ValidationErrors
	for _, e := range ve {
		field := schemavalidator.FieldPath(e.Namespace())
		val, _ := e.Value().(string)
		switch e.Tag() {
		case "required", "required_if":
			ves = append(ves, ErrMissingRequiredAttribute(field))
		case "nameFormatValidator", "fullNameValidator":
			ves = append(ves, ErrInvalidNameFormat(field, val))
		case "oneof":
			ves = append(ves, ErrUnsupportedValue(field, val, e.Param()))
		case "columnTypeValidator":
			ves = append(ves, ErrInvalidColumnType(field, val))
		case "max":
			ves = append(ves, ValidationError{Field: field, ErrStr: "value exceeds maximum length " + e.Param()})
		case "required_without", "required_without_all":
			ves = append(ves, ValidationError{Field: field, ErrStr: "missing required attribute; set it or one of [" + fieldList(e.Param()) + "]"})
		case "excluded_with":
			ves = append(ves, ValidationError{Field: field, ErrStr: "must not be set together with [" + fieldList(e.Param()) + "]"})
		case "url":
			ves = append(ves, ValidationError{Field: field, Value: val, ErrStr: "invalid url " + InQuotes(val)})
		default:
			ves = append(ves, ErrValidationFailed(field))
		}
	}
	return ves
}

// fieldList turns a validator parameter of Go field names into JSON names.
func fieldList(param string) string {
	names := strings.Fields(param)
	for i, n := range names {
		names[i] = strings.ToLower(n[:1]) + n[1:]
	}
	return strings.Join(names, ", ")
}
