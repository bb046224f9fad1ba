package utils

// Ptr returns a pointer to v. Wire structs use optional pointer fields so
// that unset values are omitted from request JSON; Ptr avoids a temporary
// variable when the address of a literal is needed.
//
// Example:
//
//	params.Temperature = utils.Ptr(0.2)
func Ptr[T any](v T) *T {
	return &v
}
