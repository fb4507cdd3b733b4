package schemavalidator

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const nameRegex = `^[A-Za-z0-9_-]+$`

var nameRe = regexp.MustCompile(nameRegex)

// nameFormatValidator checks if the given name is alphanumeric with underscores and hyphens.
func nameFormatValidator(fl validator.FieldLevel) bool {
	return nameRe.MatchString(fl.Field().String())
}

// fullNameValidator checks a dotted name whose every segment passes nameFormatValidator.
func fullNameValidator(fl validator.FieldLevel) bool {
	for _, seg := range strings.Split(fl.Field().String(), ".") {
		if !nameRe.MatchString(seg) {
			return false
		}
	}
	return true
}

var columnTypes = map[string]struct{}{
	"BOOLEAN": {}, "BYTE": {}, "SHORT": {}, "INT": {}, "LONG": {}, "FLOAT": {}, "DOUBLE": {},
	"DATE": {}, "TIMESTAMP": {}, "TIMESTAMP_NTZ": {}, "STRING": {}, "BINARY": {}, "DECIMAL": {},
	"INTERVAL": {}, "ARRAY": {}, "STRUCT": {}, "MAP": {}, "CHAR": {}, "NULL": {},
	"USER_DEFINED_TYPE": {}, "TABLE_TYPE": {},
}

func columnTypeValidator(fl validator.FieldLevel) bool {
	_, ok := columnTypes[fl.Field().String()]
	return ok
}

func ValidateObjectName(name string) bool {
	return nameRe.MatchString(name)
}

var (
	v    *validator.Validate
	once sync.Once
)

// V returns the validator shared by all request types.
func V() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			return GetJSONTag(field)
		})
		v.RegisterValidation("nameFormatValidator", nameFormatValidator)
		v.RegisterValidation("fullNameValidator", fullNameValidator)
		v.RegisterValidation("columnTypeValidator", columnTypeValidator)
	})
	return v
}
