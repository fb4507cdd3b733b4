package types

// Nullable is implemented by fields of partial-update requests. A field that was
// absent from the request is not set; a field sent as null is set but nil.
type Nullable interface {
	IsSet() bool
	IsNil() bool
}
