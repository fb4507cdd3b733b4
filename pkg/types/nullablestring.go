package types

import "encoding/json"

type NullableString struct {
	Value   string
	Valid   bool // Valid is true if Value is not null
	Present bool // Present is true if the field appeared in the document
}

func NewNullableString(value string) NullableString {
	return NullableString{Value: value, Valid: true, Present: true}
}

func (ns NullableString) String() string {
	if ns.Valid {
		return ns.Value
	}
	return ""
}

func (ns NullableString) IsNil() bool {
	return !ns.Valid
}

func (ns NullableString) IsSet() bool {
	return ns.Present
}

// Apply returns the updated value of a field currently holding current.
func (ns NullableString) Apply(current string) string {
	if !ns.Present {
		return current
	}
	return ns.String()
}

var _ json.Marshaler = &NullableString{}   // Ensure NullableString implements json.Marshaler
var _ json.Unmarshaler = &NullableString{} // Ensure NullableString implements json.Unmarshaler
var _ Nullable = &NullableString{}         // Ensure NullableString implements Nullable interface

// implement json.Marshaler interface
func (ns NullableString) MarshalJSON() ([]byte, error) {
	if ns.Valid {
		return json.Marshal(ns.Value)
	}
	return json.Marshal(nil)
}

func (ns *NullableString) UnmarshalJSON(data []byte) error {
	ns.Present = true
	if len(data) == 0 || string(data) == "null" {
		ns.Value = ""
		ns.Valid = false
		return nil
	}
	if err := json.Unmarshal(data, &ns.Value); err != nil {
		return err
	}
	ns.Valid = true
	return nil
}
