package sharing

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/mugiliam/unitycatalogsrv/pkg/api"
)

type structField struct {
	Name     string          `json:"name"`
	Type     json.RawMessage `json:"type"`
	Nullable bool            `json:"nullable"`
	Metadata map[string]any  `json:"metadata"`
}

type structType struct {
	Type   string            `json:"type"`
	Fields []json.RawMessage `json:"fields"`
}

var primitiveTypes = map[string]string{
	"BOOLEAN":       "boolean",
	"BYTE":          "byte",
	"SHORT":         "short",
	"INT":           "integer",
	"LONG":          "long",
	"FLOAT":         "float",
	"DOUBLE":        "double",
	"DATE":          "date",
	"TIMESTAMP":     "timestamp",
	"TIMESTAMP_NTZ": "timestamp_ntz",
	"STRING":        "string",
	"CHAR":          "string",
	"BINARY":        "binary",
	"NULL":          "void",
}

func sparkType(col api.ColumnInfo) string {
	if t, ok := primitiveTypes[col.TypeName]; ok {
		return t
	}
	if col.TypeName == "DECIMAL" {
		precision, scale := col.TypePrecision, col.TypeScale
		if precision == 0 {
			precision = 10
		}
		return "decimal(" + strconv.Itoa(precision) + "," + strconv.Itoa(scale) + ")"
	}
	if col.TypeText != "" {
		return strings.ToLower(col.TypeText)
	}
	return strings.ToLower(col.TypeName)
}

// schemaString renders columns as a Spark struct type in JSON, ordered by position.
// A column's typeJson, when present, is used verbatim as its field.
func schemaString(columns []api.ColumnInfo) (string, error) {
	cols := append([]api.ColumnInfo(nil), columns...)
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Position < cols[j].Position })

	st := structType{Type: "struct", Fields: []json.RawMessage{}}
	for _, col := range cols {
		if col.TypeJson != "" && json.Valid([]byte(col.TypeJson)) {
			st.Fields = append(st.Fields, json.RawMessage(col.TypeJson))
			continue
		}
		t, err := json.Marshal(sparkType(col))
		if err != nil {
			return "", err
		}
		meta := map[string]any{}
		if col.Comment != "" {
			meta["comment"] = col.Comment
		}
		f, err := json.Marshal(structField{Name: col.Name, Type: t, Nullable: col.Nullable, Metadata: meta})
		if err != nil {
			return "", err
		}
		st.Fields = append(st.Fields, f)
	}
	b, err := json.Marshal(st)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// partitionColumns returns the names of partition columns ordered by partition index.
func partitionColumns(columns []api.ColumnInfo) []string {
	var parts []api.ColumnInfo
	for _, col := range columns {
		if col.PartitionIndex != nil {
			parts = append(parts, col)
		}
	}
	sort.SliceStable(parts, func(i, j int) bool { return *parts[i].PartitionIndex < *parts[j].PartitionIndex })
	names := make([]string, 0, len(parts))
	for _, col := range parts {
		names = append(names, col.Name)
	}
	return names
}
