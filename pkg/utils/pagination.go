// Package utils provides request validation and paging helpers.
package utils

// ClampPageSize bounds a requested page size to [1, max], substituting def for non-positive values.
func ClampPageSize(requested, def, max int) int {
	if requested <= 0 {
		return def
	}
	if requested > max {
		return max
	}
	return requested
}
