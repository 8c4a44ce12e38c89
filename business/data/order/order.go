// Package order provides support for describing the ordering of data.
package order

import "strings"

// Set of directions for data ordering.
const (
	ASC  = "ASC"
	DESC = "DESC"
)

// By represents a field used to order by and direction.
type By struct {
	Field     string
	Direction string
}

// NewBy constructs a new By value with no checks.
func NewBy(field string, direction string) By {
	return By{
		Field:     field,
		Direction: direction,
	}
}

// Parse builds a By from user input. Unknown fields fall back to the
// default field and unknown directions fall back to ascending.
func Parse(field string, direction string, allowed map[string]bool, defaultOrder By) By {
	by := defaultOrder

	field = strings.ToLower(strings.TrimSpace(field))
	if allowed[field] {
		by.Field = field
	}

	switch strings.ToUpper(strings.TrimSpace(direction)) {
	case DESC:
		by.Direction = DESC
	default:
		by.Direction = ASC
	}

	return by
}
