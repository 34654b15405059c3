// Package edge provides fluent builders for defining relations between schemes.
//
// # Relationship Cardinality
//
// Relationships are determined by the Unique and Through modifiers:
//
//	// Many (default): a Door set on a House
//	edge.To("doors", Door.Type)
//
//	// One: a Hat has one owner
//	edge.To("owner", "User").Unique()
//
//	// ManyThrough: members linked by an intermediate scheme
//	edge.To("others", PointB.Type).Through("links", "Link")
//
// The target is either a scheme name or a value whose Go type names the
// scheme, including method expressions such as Door.Type.
//
// Relations are optional by default: a Mixer leaves them empty unless they
// are Required or forced by an override.
package edge
