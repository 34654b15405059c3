// Package scheme describes the data schemes a Mixer blends.
//
// A scheme is a named, ordered list of typed fields and relations. Schemes
// are defined by implementing Interface, usually by embedding Schema:
//
//	type Hat struct{ scheme.Schema }
//
//	func (Hat) Fields() []scheme.Field {
//	    return []scheme.Field{
//	        field.String("color").MaxLen(8),
//	        field.Enum("brim").Values("flat", "curled"),
//	    }
//	}
//
//	func (Hat) Edges() []scheme.Edge {
//	    return []scheme.Edge{
//	        edge.To("owner", User.Type).Unique(),
//	    }
//	}
//
// Plain structs are adapted from their fields and `mixer` tags, and
// documents are loaded by the load package.
//
// Definitions are registered in a Registry, which builds every Descriptor
// once and caches it until the key is invalidated. Relations resolve their
// target lazily through the registry, so schemes may refer to each other.
package scheme
