package mixer

import (
	"context"
	"reflect"
)

// Blend blends an instance of the struct type T and decodes it into a new
// value. Struct fields map to scheme fields as described by scheme.FieldName.
//
//	user, err := mixer.Blend[User](ctx, m, mixer.Values{"name": "ann"})
func Blend[T any](ctx context.Context, m *Mixer, overrides Values) (*T, error) {
	inst, err := m.Blend(ctx, reflect.TypeFor[T](), overrides)
	if err != nil {
		return nil, err
	}
	v := new(T)
	if err := inst.Decode(v); err != nil {
		return nil, err
	}
	return v, nil
}

// Cycle blends n instances of the struct type T.
func Cycle[T any](ctx context.Context, m *Mixer, n int, overrides Values) ([]*T, error) {
	insts, err := m.Cycle(n).Blend(ctx, reflect.TypeFor[T](), overrides)
	if err != nil {
		return nil, err
	}
	vs := make([]*T, len(insts))
	for i, inst := range insts {
		vs[i] = new(T)
		if err := inst.Decode(vs[i]); err != nil {
			return nil, err
		}
	}
	return vs, nil
}
