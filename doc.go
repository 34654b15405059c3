// Package mixer generates fixture instances of data schemes for tests.
//
// A Mixer resolves a scheme from its registry, then fills every field with a
// caller override, a directive, a registered generator, the field default or
// a generated value, in that order. Relations are blended recursively.
//
//	m, err := mixer.New(mixer.WithBackend(memory.New()))
//	if err != nil {
//		return err
//	}
//	hats, err := m.Cycle(3).Blend(ctx, "app.Hat", mixer.Values{
//		"color":        m.RandomOf("red", "green"),
//		"owner__name":  m.Sequence("owner{0}"),
//		"owner__email": m.Fake(),
//	})
//
// Overrides use "__" to reach fields of relations. Values may be literals,
// directives (see package directive) or a gen.Sequence, which is pulled once
// per blend.
package mixer
