package types

import "encoding/json"

// NullableMap is a string map field of a partial update. Sending null or {} clears it.
type NullableMap struct {
	Value   map[string]string
	Valid   bool
	Present bool
}

func NewNullableMap(value map[string]string) NullableMap {
	return NullableMap{Value: value, Valid: true, Present: true}
}

func (nm NullableMap) IsNil() bool {
	return !nm.Valid
}

func (nm NullableMap) IsSet() bool {
	return nm.Present
}

func (nm NullableMap) Apply(current map[string]string) map[string]string {
	if !nm.Present {
		return current
	}
	if len(nm.Value) == 0 {
		return nil
	}
	return nm.Value
}

var _ json.Marshaler = &NullableMap{}
var _ json.Unmarshaler = &NullableMap{}
var _ Nullable = &NullableMap{}

func (nm NullableMap) MarshalJSON() ([]byte, error) {
	if nm.Valid {
		return json.Marshal(nm.Value)
	}
	return json.Marshal(nil)
}

func (nm *NullableMap) UnmarshalJSON(data []byte) error {
	nm.Present = true
	if len(data) == 0 || string(data) == "null" {
		nm.Value = nil
		nm.Valid = false
		return nil
	}
	if err := json.Unmarshal(data, &nm.Value); err != nil {
		return err
	}
	nm.Valid = true
	return nil
}
