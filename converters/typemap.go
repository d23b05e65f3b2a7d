package converters

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrUnsupportedType is returned when a column type has no equivalent in the
// target type system
var ErrUnsupportedType = errors.New("unsupported type")

// TypeMap maps type names of one type system onto another.  Lookups are case
// insensitive, and ignore any length or precision modifiers, so VARCHAR(255)
// is looked up as varchar.
type TypeMap struct {
	types    map[string]string
	fallback string
}

// NewTypeMap creates a TypeMap from source -> target pairs.
func NewTypeMap(types map[string]string) *TypeMap {
	m := &TypeMap{types: make(map[string]string, len(types))}
	for k, v := range types {
		m.types[BaseTypeName(k)] = v
	}
	return m
}

// WithFallback returns a copy of the map which converts unknown types to fallback
// instead of failing
func (m *TypeMap) WithFallback(fallback string) *TypeMap {
	return &TypeMap{types: m.types, fallback: fallback}
}

// Convert finds the target type for a source type
func (m *TypeMap) Convert(source string) (string, error) {
	if t, ok := m.types[BaseTypeName(source)]; ok {
		return t, nil
	}
	if m.fallback != "" {
		return m.fallback, nil
	}
	return "", errors.Wrapf(ErrUnsupportedType, "%q", source)
}

// Reverse finds a source type which converts to the given target type.  When
// more than one does, the lexically smallest is returned so the result is stable.
func (m *TypeMap) Reverse(target string) (string, error) {
	var found string
	for k, v := range m.types {
		if v == target && (found == "" || k < found) {
			found = k
		}
	}
	if found == "" {
		return "", errors.Wrapf(ErrUnsupportedType, "no type converts to %q", target)
	}
	return found, nil
}

// BaseTypeName lower cases a type name and strips modifiers,
// e.g. "CHARACTER VARYING(20)" -> "character varying"
func BaseTypeName(t string) string {
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	return strings.ToLower(strings.Join(strings.Fields(t), " "))
}
