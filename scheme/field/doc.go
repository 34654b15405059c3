// Package field provides fluent builders for defining scheme fields.
//
// Field names follow database conventions (snake_case). Every builder returns
// a value with a Descriptor method, so it can be listed in a scheme's Fields:
//
//	func (User) Fields() []scheme.Field {
//	    return []scheme.Field{
//	        field.String("username").MaxLen(16).Unique(),
//	        field.Int("score").Default(50),
//	        field.Enum("role").Values("client", "admin").Default("client"),
//	        field.Time("created_at").Default(time.Now),
//	        field.Email("email").Optional(),
//	    }
//	}
//
// # Field Types
//
// The closed set of types is listed by [Type]. Textual fields carry a maximum
// or exact length, numeric fields carry bounds, enums carry their values.
// Generated strings are exactly as long as the field's size.
//
// # Fake Values
//
// A field may name the corpus category used when a Mixer runs in fake mode:
//
//	field.String("city").Fake("city")
//
// Without a category the field name is used as a hint.
package field
