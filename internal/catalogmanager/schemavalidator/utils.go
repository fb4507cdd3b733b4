package schemavalidator

import (
	"reflect"
	"strings"
)

// Get the JSON tag for a given field, or fallback to field name if not found
func GetJSONTag(field reflect.StructField) string {
	jsonTag := field.Tag.Get("json")
	if jsonTag == "" || jsonTag == "-" {
		return field.Name
	}
	return strings.Split(jsonTag, ",")[0]
}

// FieldPath turns a validator namespace such as "CreateTableRequest.columns[0].name"
// into the JSON path of the field, "columns[0].name".
func FieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
