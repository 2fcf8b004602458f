// Package ptr has helpers for the optional fields of ledger records
package ptr

// Of returns a pointer to a copy of v
func Of[T any](v T) *T {
	return &v
}

// Value dereferences p, returning the zero value for nil
func Value[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// Clone returns a pointer to a copy of *p, or nil for nil
func Clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return Of(*p)
}
