// Package typemapper declares the mapping contract between vendor database
// types and Go types, and the registry used to resolve columns during a crawl.
package typemapper

import (
	"fmt"
)

// Type is an intermediate database type expressed as the Go type a column
// value materializes into.
type Type string

const (
	Bool    Type = "bool"
	Int16   Type = "int16"
	Int32   Type = "int32"
	Int64   Type = "int64"
	Float32 Type = "float32"
	Float64 Type = "float64"
	String  Type = "string"
	Bytes   Type = "[]byte"
	Time    Type = "time.Time"
)

// TypeMapper declares that a database type corresponds to exactly one target
// Go type. A column is fully resolved only when a mapper whose database and
// target types both equal the column's resolved type is found.
type TypeMapper interface {
	// Label identifies the mapper for diagnostics
	Label() string
	// DatabaseType returns the intermediate database type this mapper accepts
	DatabaseType() Type
	// TargetType returns the Go type this mapper produces
	TargetType() Type
}

type identityMapper struct {
	t Type
}

func (m identityMapper) Label() string      { return fmt.Sprintf("identity(%s)", m.t) }
func (m identityMapper) DatabaseType() Type { return m.t }
func (m identityMapper) TargetType() Type   { return m.t }

// Identity returns a mapper whose database and target types are both t.
func Identity(t Type) TypeMapper {
	return identityMapper{t: t}
}

// Registry holds the set of registered type mappers
type Registry struct {
	mappers []TypeMapper
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// StandardRegistry creates a registry with identity mappers for every
// built-in intermediate type
func StandardRegistry() *Registry {
	r := NewRegistry()
	for _, t := range []Type{Bool, Int16, Int32, Int64, Float32, Float64, String, Bytes, Time} {
		r.Register(Identity(t))
	}
	return r
}

// Register adds a mapper to the registry
func (r *Registry) Register(m TypeMapper) {
	r.mappers = append(r.mappers, m)
}

// Mappers returns the registered mappers in registration order
func (r *Registry) Mappers() []TypeMapper {
	out := make([]TypeMapper, len(r.mappers))
	copy(out, r.mappers)
	return out
}

// FindIdentity returns the single registered mapper whose database and target
// types both equal t. Zero or multiple matches is an error: silently picking
// one would corrupt downstream code generation.
func (r *Registry) FindIdentity(t Type) (TypeMapper, error) {
	var found TypeMapper
	matches := 0
	for _, m := range r.mappers {
		if m.DatabaseType() == t && m.TargetType() == t {
			found = m
			matches++
		}
	}
	if matches != 1 {
		return nil, fmt.Errorf("found %d identity type mappers for %q, want exactly 1", matches, t)
	}
	return found, nil
}

// SQLTypeInfo describes one vendor-supported SQL type, either declared
// statically by a vendor profile or read from live connection metadata.
type SQLTypeInfo struct {
	Name      string
	DataType  int
	Precision int
}
