package scheme

import (
	"github.com/AlexeyBerezhnoy/mixer/scheme/edge"
	"github.com/AlexeyBerezhnoy/mixer/scheme/field"
)

type (
	// Interface is the interface implemented by scheme definitions.
	//
	//	type User struct{ scheme.Schema }
	//
	//	func (User) Fields() []scheme.Field {
	//	    return []scheme.Field{
	//	        field.String("username").MaxLen(16),
	//	    }
	//	}
	Interface interface {
		// Fields returns the fields of the scheme.
		Fields() []Field
		// Edges returns the relations of the scheme.
		Edges() []Edge
		// Mixin returns an optional list of Mixin to extend the scheme.
		Mixin() []Mixin
	}

	// A Field is a scheme field. Implemented by the builders of the field package.
	Field interface {
		Descriptor() *field.Descriptor
	}

	// An Edge is a relation to another scheme. Implemented by the builders of
	// the edge package.
	Edge interface {
		Descriptor() *edge.Descriptor
	}

	// A Mixin is a reusable set of fields and edges.
	Mixin interface {
		Fields() []Field
		Edges() []Edge
	}

	// Schema is the default implementation for the scheme Interface.
	// It can be embedded in user definitions:
	//
	//	type Hat struct {
	//	    scheme.Schema
	//	}
	Schema struct{}
)

// Fields of the scheme.
func (Schema) Fields() []Field { return nil }

// Edges of the scheme.
func (Schema) Edges() []Edge { return nil }

// Mixin of the scheme.
func (Schema) Mixin() []Mixin { return nil }

// Type is a marker method used to reference the scheme from edges,
// e.g. edge.To("doors", Door.Type).
func (Schema) Type() {}

var _ Interface = (*Schema)(nil)
