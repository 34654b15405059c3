// Package mixin provides reusable field sets for scheme definitions.
//
//	func (User) Mixin() []scheme.Mixin {
//	    return []scheme.Mixin{
//	        mixin.Time{},       // created_at, updated_at
//	        mixin.SoftDelete{}, // deleted_at
//	    }
//	}
package mixin

import (
	"time"

	"github.com/AlexeyBerezhnoy/mixer/scheme"
	"github.com/AlexeyBerezhnoy/mixer/scheme/field"
)

// Schema is the default implementation for the scheme.Mixin interface.
// It should be embedded in custom mixin definitions.
type Schema struct{}

// Fields of the mixin.
func (Schema) Fields() []scheme.Field { return nil }

// Edges of the mixin.
func (Schema) Edges() []scheme.Edge { return nil }

var _ scheme.Mixin = (*Schema)(nil)

// Time adds created_at and updated_at fields, both defaulting to the
// current time.
type Time struct{ Schema }

// Fields of the Time mixin.
func (Time) Fields() []scheme.Field {
	return []scheme.Field{
		field.Time("created_at").Default(time.Now),
		field.Time("updated_at").Default(time.Now),
	}
}

// CreateTime adds a created_at field defaulting to the current time.
type CreateTime struct{ Schema }

// Fields of the CreateTime mixin.
func (CreateTime) Fields() []scheme.Field {
	return []scheme.Field{
		field.Time("created_at").Default(time.Now),
	}
}

// SoftDelete adds a nullable deleted_at field. Blended instances leave it
// empty unless overridden.
type SoftDelete struct{ Schema }

// Fields of the SoftDelete mixin.
func (SoftDelete) Fields() []scheme.Field {
	return []scheme.Field{
		field.Time("deleted_at").Optional().Nillable(),
	}
}
