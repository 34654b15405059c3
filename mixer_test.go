package mixer_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/AlexeyBerezhnoy/mixer"
	"github.com/AlexeyBerezhnoy/mixer/backend/memory"
	"github.com/AlexeyBerezhnoy/mixer/directive"
	"github.com/AlexeyBerezhnoy/mixer/faker"
	"github.com/AlexeyBerezhnoy/mixer/gen"
	"github.com/AlexeyBerezhnoy/mixer/scheme"
	"github.com/AlexeyBerezhnoy/mixer/scheme/edge"
	"github.com/AlexeyBerezhnoy/mixer/scheme/field"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type (
	User    struct{ scheme.Schema }
	Hole    struct{ scheme.Schema }
	Door    struct{ scheme.Schema }
	Home    struct{ scheme.Schema }
	Tag     struct{ scheme.Schema }
	Post    struct{ scheme.Schema }
	PostTag struct{ scheme.Schema }
	Gadget  struct{ scheme.Schema }
	Token   struct{ scheme.Schema }
)

type Shape struct{ Sides int }

func (User) Fields() []scheme.Field {
	return []scheme.Field{
		field.String("username").MaxLen(16),
		field.String("code").Len(8),
		field.Int("score").Default(50),
		field.Enum("role").Values("client", "admin").Default("client"),
		field.Text("bio").Nillable(),
		field.Int16("level"),
		field.Bool("active"),
	}
}

func (Hole) Fields() []scheme.Field {
	return []scheme.Field{field.String("title").MaxLen(16)}
}

func (Hole) Edges() []scheme.Edge {
	return []scheme.Edge{edge.To("owner", User.Type).Unique().Required()}
}

func (Door) Fields() []scheme.Field {
	return []scheme.Field{field.String("title").MaxLen(16)}
}

func (Door) Edges() []scheme.Edge {
	return []scheme.Edge{edge.To("hole", Hole.Type).Unique().Required()}
}

func (Home) Fields() []scheme.Field {
	return []scheme.Field{field.String("address").MaxLen(32)}
}

func (Home) Edges() []scheme.Edge {
	return []scheme.Edge{
		edge.To("door", Door.Type).Unique().Required(),
		edge.To("tenants", User.Type),
		edge.To("landlord", User.Type).Unique(),
	}
}

func (Tag) Fields() []scheme.Field {
	return []scheme.Field{field.String("name").MaxLen(12)}
}

func (Post) Fields() []scheme.Field {
	return []scheme.Field{field.String("title").MaxLen(20)}
}

func (Post) Edges() []scheme.Edge {
	return []scheme.Edge{edge.To("tags", Tag.Type).Through("post_tags", PostTag.Type).Required()}
}

func (PostTag) Edges() []scheme.Edge {
	return []scheme.Edge{
		edge.To("post", Post.Type).Unique().Required(),
		edge.To("tag", Tag.Type).Unique().Required(),
	}
}

func (Gadget) Fields() []scheme.Field {
	return []scheme.Field{
		field.Other("shape", Shape{}),
		field.String("label").MaxLen(8),
	}
}

func (Token) Fields() []scheme.Field {
	return []scheme.Field{
		field.UUID("id"),
		field.String("value").MaxLen(16),
	}
}

func newRegistry() *scheme.Registry {
	r := scheme.NewRegistry()
	r.Register("app.User", User{})
	r.Register("app.Hole", Hole{})
	r.Register("app.Door", Door{})
	r.Register("app.Home", Home{})
	r.Register("Tag", Tag{})
	r.Register("Post", Post{})
	r.Register("PostTag", PostTag{})
	r.Register("Gadget", Gadget{})
	r.Register("Token", Token{})
	return r
}

func newMixer(t *testing.T, opts ...mixer.Option) (*mixer.Mixer, *memory.Store) {
	t.Helper()
	store := memory.New()
	m, err := mixer.New(append([]mixer.Option{
		mixer.WithRegistry(newRegistry()),
		mixer.WithBackend(store),
	}, opts...)...)
	require.NoError(t, err)
	return m, store
}

func TestBlend(t *testing.T) {
	t.Parallel()
	m, store := newMixer(t)
	ctx := context.Background()

	user, err := m.Blend(ctx, "app.User", nil)
	require.NoError(t, err)
	assert.Len(t, user.Get("username"), 16)
	assert.Len(t, user.Get("code"), 8)
	assert.Equal(t, 50, user.Get("score"))
	assert.Equal(t, "client", user.Get("role"))
	assert.Nil(t, user.Get("bio"))
	assert.IsType(t, int16(0), user.Get("level"))
	assert.IsType(t, false, user.Get("active"))
	assert.Equal(t, int64(1), user.ID())
	assert.Equal(t, 1, store.Count("app.User"))
}

func TestBlendNonNullable(t *testing.T) {
	t.Parallel()
	m, _ := newMixer(t)
	ctx := context.Background()

	for _, name := range []string{"app.User", "app.Hole", "app.Door", "app.Home", "Post"} {
		inst, err := m.Blend(ctx, name, nil)
		require.NoError(t, err, name)
		for _, fd := range inst.Scheme().Fields {
			if fd.Nullable || fd.IsMany() {
				continue
			}
			assert.NotNil(t, inst.Get(fd.Name), "%s.%s", name, fd.Name)
		}
	}
}

func TestBlendRelations(t *testing.T) {
	t.Parallel()
	m, store := newMixer(t)
	ctx := context.Background()

	home, err := m.Blend(ctx, "app.Home", mixer.Values{"door__hole__title": "flash"})
	require.NoError(t, err)
	door := home.Related("door")
	require.NotNil(t, door)
	hole := door.Related("hole")
	require.NotNil(t, hole)
	assert.Equal(t, "flash", hole.Get("title"))
	assert.NotEqual(t, "flash", door.Get("title"))
	assert.NotNil(t, hole.Related("owner"))
	assert.Nil(t, home.Get("landlord"))
	assert.Empty(t, home.Members("tenants"))
	assert.Equal(t, 1, store.Count("app.Hole"))

	owner, err := m.Blend(ctx, "app.User", nil)
	require.NoError(t, err)
	hole, err = m.Blend(ctx, "app.Hole", mixer.Values{"owner": owner})
	require.NoError(t, err)
	assert.Same(t, owner, hole.Related("owner"))
}

func TestBlendMany(t *testing.T) {
	t.Parallel()
	m, store := newMixer(t)
	ctx := context.Background()

	home, err := m.Blend(ctx, "app.Home", mixer.Values{"tenants": 2})
	require.NoError(t, err)
	assert.Len(t, home.Members("tenants"), 2)
	assert.Len(t, store.Linked(home, "tenants"), 2)

	home, err = m.Blend(ctx, "app.Home", mixer.Values{"tenants__role": "admin"})
	require.NoError(t, err)
	tenants := home.Members("tenants")
	require.Len(t, tenants, 1)
	assert.Equal(t, "admin", tenants[0].Get("role"))

	u, err := m.Blend(ctx, "app.User", nil)
	require.NoError(t, err)
	home, err = m.Blend(ctx, "app.Home", mixer.Values{
		"tenants":       []*scheme.Instance{u},
		"tenants__role": "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, []*scheme.Instance{u}, home.Members("tenants"))
	assert.Equal(t, "client", u.Get("role"))

	home, err = m.Blend(ctx, "app.Home", mixer.Values{"tenants": m.Skip()})
	require.NoError(t, err)
	assert.Empty(t, home.Members("tenants"))

	_, err = m.Blend(ctx, "app.Home", mixer.Values{"tenants": -1})
	assert.True(t, mixer.IsPathResolution(err))
}

func TestBlendThrough(t *testing.T) {
	t.Parallel()
	m, store := newMixer(t)
	ctx := context.Background()

	post, err := m.Blend(ctx, "Post", nil)
	require.NoError(t, err)
	tags := post.Members("tags")
	require.Len(t, tags, 1)
	links := store.All("PostTag")
	require.Len(t, links, 1)
	assert.Same(t, post, links[0].Related("post"))
	assert.Same(t, tags[0], links[0].Related("tag"))

	err = m.Ctx(func(m *mixer.Mixer) error {
		post, err := m.Blend(ctx, "Post", mixer.Values{"tags": 3})
		if err != nil {
			return err
		}
		assert.Len(t, post.Members("tags"), 3)
		return nil
	}, mixer.WithCommit(false))
	require.NoError(t, err)
	assert.Len(t, store.All("PostTag"), 1)
}

func TestBlendErrors(t *testing.T) {
	t.Parallel()
	m, _ := newMixer(t)
	ctx := context.Background()
	door, err := m.Blend(ctx, "app.Door", nil)
	require.NoError(t, err)

	tests := []struct {
		name      string
		scheme    any
		overrides mixer.Values
		check     func(error) bool
	}{
		{"UnknownScheme", "app.Unknown", nil, mixer.IsSchemeResolution},
		{"NilScheme", nil, nil, mixer.IsSchemeResolution},
		{"UnknownField", "app.User", mixer.Values{"nickname": "x"}, mixer.IsSchemeResolution},
		{"UnknownNestedField", "app.User", mixer.Values{"unknown__field": 1}, mixer.IsPathResolution},
		{"ThroughPrimitive", "app.User", mixer.Values{"username__size": 1}, mixer.IsPathResolution},
		{"NestedUnknown", "app.Home", mixer.Values{"door__hole__nope": 1}, mixer.IsPathResolution},
		{"InstanceWithNested", "app.Home", mixer.Values{"door": door, "door__title": "x"}, mixer.IsPathResolution},
		{"BadKey", "app.User", mixer.Values{"username__": 1}, mixer.IsPathResolution},
		{"GuardOnField", "app.User", mixer.Values{"username": directive.Guard{}}, mixer.IsDirectiveMisuse},
		{"SelectOnPrimitive", "app.User", mixer.Values{"username": m.Select(nil)}, mixer.IsDirectiveMisuse},
		{"UnknownCategory", "app.User", mixer.Values{"username": m.FakeCategory("nope", faker.Params{})}, mixer.IsDirectiveMisuse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Blend(ctx, tt.scheme, tt.overrides)
			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())
		})
	}

	_, err = m.Blend(ctx, "app.Unknown", nil)
	assert.ErrorIs(t, err, mixer.ErrSchemeResolution)
	assert.True(t, scheme.IsNotFound(err))
}

func TestCycle(t *testing.T) {
	t.Parallel()
	m, _ := newMixer(t)
	ctx := context.Background()

	users, err := m.Cycle(3).Blend(ctx, "app.User", mixer.Values{"username": m.Sequence("lama{0}")})
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "lama0", users[0].Get("username"))
	assert.Equal(t, "lama2", users[2].Get("username"))

	for _, n := range []int{0, 1, 7} {
		insts, err := m.Cycle(n).Blend(ctx, "app.Hole", nil)
		require.NoError(t, err)
		assert.Len(t, insts, n)
	}

	_, err = m.Cycle(-1).Blend(ctx, "app.User", nil)
	assert.True(t, mixer.IsConfigError(err))
}

func TestSequence(t *testing.T) {
	t.Parallel()
	m, _ := newMixer(t)
	ctx := context.Background()

	seq := m.Sequence("")
	for want := range 5 {
		u, err := m.Blend(ctx, "app.User", mixer.Values{"score": seq})
		require.NoError(t, err)
		assert.Equal(t, want, u.Get("score"))
	}

	// Views share the counters of their Mixer.
	v, err := m.With(mixer.WithCommit(false))
	require.NoError(t, err)
	u, err := v.Blend(ctx, "app.User", mixer.Values{"score": seq})
	require.NoError(t, err)
	assert.Equal(t, 5, u.Get("score"))

	// Other Mixers keep their own counters.
	other, _ := newMixer(t)
	u, err = other.Blend(ctx, "app.User", mixer.Values{"score": seq})
	require.NoError(t, err)
	assert.Equal(t, 0, u.Get("score"))

	fn := m.SequenceFunc(func(n int) any { return fmt.Sprintf("u-%02d", n) })
	u, err = m.Blend(ctx, "app.User", mixer.Values{"username": fn})
	require.NoError(t, err)
	assert.Equal(t, "u-00", u.Get("username"))
}

func TestSequenceConcurrent(t *testing.T) {
	t.Parallel()
	m, _ := newMixer(t, mixer.WithCommit(false))
	ctx := context.Background()
	seq := m.Sequence("")

	var (
		g    errgroup.Group
		seen = make(chan int, 80)
	)
	for range 8 {
		g.Go(func() error {
			for range 10 {
				u, err := m.Blend(ctx, "app.User", mixer.Values{"score": seq})
				if err != nil {
					return err
				}
				seen <- u.Get("score").(int)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(seen)
	values := make(map[int]bool)
	for v := range seen {
		values[v] = true
	}
	assert.Len(t, values, 80)
}

func TestDeferred(t *testing.T) {
	t.Parallel()
	m, _ := newMixer(t)
	ctx := context.Background()

	u, err := m.Blend(ctx, "app.User", mixer.Values{"score": gen.Counter(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, u.Get("score"))

	names := gen.Cycle("a", "b")()
	users, err := m.Cycle(3).Blend(ctx, "app.User", mixer.Values{"username": names})
	require.NoError(t, err)
	assert.Equal(t, "a", users[0].Get("username"))
	assert.Equal(t, "b", users[1].Get("username"))
	assert.Equal(t, "a", users[2].Get("username"))
}

func TestMix(t *testing.T) {
	t.Parallel()
	m, _ := newMixer(t)
	ctx := context.Background()

	u, err := m.Blend(ctx, "app.User", mixer.Values{"username": m.Mix("code")})
	require.NoError(t, err)
	assert.Equal(t, u.Get("code"), u.Get("username"))

	u, err = m.Blend(ctx, "app.User", mixer.Values{
		"username": m.Mix("code").Then(func(v any) any { return v.(string) + "!" }),
	})
	require.NoError(t, err)
	assert.Equal(t, u.Get("code").(string)+"!", u.Get("username"))

	door, err := m.Blend(ctx, "app.Door", mixer.Values{"title": m.Mix("hole.title")})
	require.NoError(t, err)
	assert.Equal(t, door.Related("hole").Get("title"), door.Get("title"))

	home, err := m.Blend(ctx, "app.Home", mixer.Values{"address": m.Mix("landlord.username")})
	require.NoError(t, err)
	assert.Nil(t, home.Get("address"))

	_, err = m.Blend(ctx, "app.User", mixer.Values{
		"username": m.Mix("code"),
		"code":     m.Mix("username"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, mixer.ErrDependencyCycle)
	assert.True(t, mixer.IsPathResolution(err))

	_, err = m.Blend(ctx, "app.User", mixer.Values{"username": m.Mix("missing")})
	assert.True(t, mixer.IsPathResolution(err))
	_, err = m.Blend(ctx, "app.Door", mixer.Values{"title": m.Mix("title.size")})
	assert.True(t, mixer.IsPathResolution(err))
}

func TestGuard(t *testing.T) {
	t.Parallel()
	m, store := newMixer(t)
	ctx := context.Background()

	g := m.Guard(mixer.Values{"username": "ann"})
	first, err := g.Blend(ctx, "app.User", nil)
	require.NoError(t, err)
	assert.Equal(t, "ann", first.Get("username"))
	second, err := g.Blend(ctx, "app.User", mixer.Values{"score": 1})
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, store.Count("app.User"))

	err = m.Ctx(func(m *mixer.Mixer) error {
		a, err := m.Guard(mixer.Values{"username": "bob"}).Blend(ctx, "app.User", nil)
		if err != nil {
			return err
		}
		b, err := m.Guard(mixer.Values{"username": "bob"}).Blend(ctx, "app.User", nil)
		if err != nil {
			return err
		}
		assert.NotSame(t, a, b)
		return nil
	}, mixer.WithCommit(false))
	require.NoError(t, err)
	assert.Equal(t, 1, store.Count("app.User"))

	_, err = m.Guard(mixer.Values{"nickname": "ann"}).Blend(ctx, "app.User", nil)
	assert.True(t, mixer.IsSchemeResolution(err))
}

func TestGuardBy(t *testing.T) {
	t.Parallel()
	m, store := newMixer(t)
	ctx := context.Background()

	g := m.GuardBy(directive.Guard{Filters: map[string]any{"username": "cid"}})
	first, err := g.Blend(ctx, "app.User", nil)
	require.NoError(t, err)
	assert.Equal(t, "cid", first.Get("username"))
	second, err := m.Guard(mixer.Values{"username": "cid"}).Blend(ctx, "app.User", nil)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, store.Count("app.User"))

	_, err = m.GuardBy(directive.Guard{Filters: map[string]any{"nickname": "cid"}}).Blend(ctx, "app.User", nil)
	assert.True(t, mixer.IsSchemeResolution(err))
}

func TestGuardWithoutBackend(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	m, err := mixer.New(
		mixer.WithRegistry(newRegistry()),
		mixer.WithLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))),
		mixer.WithLogLevel(slog.LevelDebug),
	)
	require.NoError(t, err)
	ctx := context.Background()

	g := m.Guard(mixer.Values{"username": "ann"})
	a, err := g.Blend(ctx, "app.User", nil)
	require.NoError(t, err)
	b, err := g.Blend(ctx, "app.User", nil)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Contains(t, buf.String(), "guard without a backend")

	buf.Reset()
	v, err := m.With(mixer.WithBackend(memory.New()))
	require.NoError(t, err)
	_, err = v.Guard(mixer.Values{"username": "ann"}).Blend(ctx, "app.User", nil)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "guard without a backend")
}

func TestBlendGeneratedID(t *testing.T) {
	t.Parallel()
	m, store := newMixer(t)
	ctx := context.Background()

	tok, err := m.Blend(ctx, "Token", nil)
	require.NoError(t, err)
	id, ok := tok.ID().(uuid.UUID)
	require.True(t, ok, "%T", tok.ID())
	assert.NotEqual(t, uuid.Nil, id)
	got, err := m.Get(ctx, "Token", id.String())
	require.NoError(t, err)
	assert.Same(t, tok, got)

	other, err := m.Blend(ctx, "Token", nil)
	require.NoError(t, err)
	assert.NotEqual(t, id, other.ID())
	assert.Equal(t, 2, store.Count("Token"))

	// Without persistence the identity is still blended, in both modes.
	for _, fake := range []bool{false, true} {
		v, err := m.With(mixer.WithCommit(false), mixer.WithFake(fake))
		require.NoError(t, err)
		tok, err := v.Blend(ctx, "Token", nil)
		require.NoError(t, err)
		assert.IsType(t, uuid.UUID{}, tok.ID())
		assert.NotEqual(t, uuid.Nil, tok.ID())

		// Store-assigned identities stay unset.
		u, err := v.Blend(ctx, "app.User", nil)
		require.NoError(t, err)
		assert.Nil(t, u.ID())
	}
	assert.Equal(t, 2, store.Count("Token"))
}

func TestSelect(t *testing.T) {
	t.Parallel()
	m, _ := newMixer(t)
	ctx := context.Background()

	home, err := m.Blend(ctx, "app.Home", mixer.Values{"landlord": m.Select(nil)})
	require.NoError(t, err)
	// The door owner is the only user stored so far.
	owner := home.Related("door").Related("hole").Related("owner")
	assert.Same(t, owner, home.Related("landlord"))

	home, err = m.Blend(ctx, "app.Home", mixer.Values{"landlord": m.Select(map[string]any{"username": "nobody"})})
	require.NoError(t, err)
	assert.Nil(t, home.Get("landlord"))

	admin, err := m.Blend(ctx, "app.User", mixer.Values{"role": "admin"})
	require.NoError(t, err)
	home, err = m.Blend(ctx, "app.Home", mixer.Values{"landlord": m.Select(map[string]any{"role": "admin"})})
	require.NoError(t, err)
	assert.Same(t, admin, home.Related("landlord"))

	home, err = m.Blend(ctx, "app.Home", mixer.Values{"tenants": m.Select(map[string]any{"id": admin.ID()})})
	require.NoError(t, err)
	assert.Equal(t, []*scheme.Instance{admin}, home.Members("tenants"))

	err = m.Ctx(func(m *mixer.Mixer) error {
		home, err := m.Blend(ctx, "app.Home", mixer.Values{"landlord": m.Select(nil)})
		if err != nil {
			return err
		}
		assert.Nil(t, home.Get("landlord"))
		return nil
	}, mixer.WithCommit(false))
	require.NoError(t, err)
}

func TestCommit(t *testing.T) {
	t.Parallel()
	m, store := newMixer(t)
	ctx := context.Background()

	u, err := m.Blend(ctx, "app.User", nil)
	require.NoError(t, err)
	got, err := m.Get(ctx, "app.User", u.ID())
	require.NoError(t, err)
	assert.Equal(t, u.Values(), got.Values())

	err = m.Ctx(func(m *mixer.Mixer) error {
		assert.False(t, m.Config().Commit)
		_, err := m.Cycle(3).Blend(ctx, "app.Door", nil)
		return err
	}, mixer.WithCommit(false))
	require.NoError(t, err)
	assert.True(t, m.Config().Commit)
	assert.Equal(t, 1, store.Count("app.User"))
	assert.Zero(t, store.Count("app.Door"))

	errBoom := errors.New("boom")
	err = m.Ctx(func(*mixer.Mixer) error { return errBoom }, mixer.WithFake(true))
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, m.Config().Fake)
}

type failingBackend struct {
	mixer.Backend
	err error
}

func (b failingBackend) Commit(context.Context, *scheme.Instance) (*scheme.Instance, error) {
	return nil, b.err
}

func TestCommitError(t *testing.T) {
	t.Parallel()
	errBoom := errors.New("boom")
	m, _ := newMixer(t, mixer.WithBackend(failingBackend{Backend: memory.New(), err: errBoom}))

	_, err := m.Blend(context.Background(), "app.User", nil)
	assert.Same(t, errBoom, err)
}

func TestRegister(t *testing.T) {
	t.Parallel()
	m, _ := newMixer(t)
	ctx := context.Background()

	err := m.Register("app.User", map[string]any{
		"username": func() any { return "fixed" },
		"code":     gen.Constant("ABCDEFGH"),
		"role":     m.RandomOf("admin"),
	}, func(_ context.Context, inst *scheme.Instance) (*scheme.Instance, error) {
		return inst, inst.Set("bio", "processed")
	})
	require.NoError(t, err)

	u, err := m.Blend(ctx, "app.User", nil)
	require.NoError(t, err)
	assert.Equal(t, "fixed", u.Get("username"))
	assert.Equal(t, "ABCDEFGH", u.Get("code"))
	assert.Equal(t, "admin", u.Get("role"))
	assert.Equal(t, "processed", u.Get("bio"))

	u, err = m.Blend(ctx, "app.User", mixer.Values{"username": "caller"})
	require.NoError(t, err)
	assert.Equal(t, "caller", u.Get("username"))

	// Nested blends use the registration too.
	hole, err := m.Blend(ctx, "app.Hole", nil)
	require.NoError(t, err)
	assert.Equal(t, "fixed", hole.Related("owner").Get("username"))

	// Registrations belong to the Mixer.
	other, err := mixer.New(mixer.WithRegistry(m.Registry()), mixer.WithCommit(false))
	require.NoError(t, err)
	u, err = other.Blend(ctx, "app.User", nil)
	require.NoError(t, err)
	assert.NotEqual(t, "fixed", u.Get("username"))

	err = m.Register("app.User", map[string]any{"nickname": "x"})
	assert.True(t, mixer.IsSchemeResolution(err))

	errBoom := errors.New("boom")
	require.NoError(t, m.Register("Tag", nil, func(context.Context, *scheme.Instance) (*scheme.Instance, error) {
		return nil, errBoom
	}))
	_, err = m.Blend(ctx, "Tag", nil)
	assert.ErrorIs(t, err, errBoom)
}

func TestGeneratorGap(t *testing.T) {
	t.Parallel()
	var (
		buf      bytes.Buffer
		warnings []*mixer.GeneratorGapWarning
	)
	m, _ := newMixer(t,
		mixer.WithLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))),
		mixer.WithWarningHandler(func(w *mixer.GeneratorGapWarning) {
			warnings = append(warnings, w)
		}),
	)

	g, err := m.Blend(context.Background(), "Gadget", nil)
	require.NoError(t, err)
	assert.Equal(t, Shape{}, g.Get("shape"))
	assert.Len(t, g.Get("label"), 8)
	require.Len(t, warnings, 1)
	assert.Equal(t, "Gadget", warnings[0].Scheme)
	assert.Equal(t, "shape", warnings[0].Field)
	assert.ErrorIs(t, warnings[0], mixer.ErrGeneratorGap)
	assert.Contains(t, buf.String(), "no generator for field")
	assert.NotContains(t, buf.String(), "blended instance")

	// A custom generator closes the gap.
	f := gen.NewFactory(gen.WithGenerator(field.TypeOther, func(*field.Descriptor) gen.Producer {
		return gen.Constant(Shape{Sides: 3})
	}))
	v, err := m.With(mixer.WithFactory(f), mixer.WithLogLevel(slog.LevelDebug))
	require.NoError(t, err)
	g, err = v.Blend(context.Background(), "Gadget", nil)
	require.NoError(t, err)
	assert.Equal(t, Shape{Sides: 3}, g.Get("shape"))
	assert.Len(t, warnings, 1)
	assert.Contains(t, buf.String(), "blended instance")
}

func TestOptions(t *testing.T) {
	t.Parallel()
	_, err := mixer.New(mixer.WithFactory(nil))
	assert.True(t, mixer.IsConfigError(err))
	_, err = mixer.New(mixer.WithRegistry(nil))
	assert.True(t, mixer.IsConfigError(err))
	_, err = mixer.New(mixer.WithProvider(nil))
	assert.True(t, mixer.IsConfigError(err))

	m, err := mixer.New()
	require.NoError(t, err)
	cfg := m.Config()
	assert.True(t, cfg.Commit)
	assert.False(t, cfg.Fake)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.NotNil(t, cfg.Factory)
	assert.NotNil(t, cfg.Registry)

	_, err = m.With(mixer.WithFactory(nil))
	assert.True(t, mixer.IsConfigError(err))
	err = m.Ctx(func(*mixer.Mixer) error {
		t.Fatal("unreachable")
		return nil
	}, mixer.WithRegistry(nil))
	assert.True(t, mixer.IsConfigError(err))
}

func TestInvalidate(t *testing.T) {
	t.Parallel()
	m, _ := newMixer(t)
	before, err := m.Registry().Lookup("app.User")
	require.NoError(t, err)
	_, err = m.Blend(context.Background(), "app.User", nil)
	require.NoError(t, err)

	assert.True(t, m.Invalidate("app.User"))
	assert.False(t, m.Invalidate("app.User"))
	after, err := m.Registry().Lookup("app.User")
	require.NoError(t, err)
	assert.NotSame(t, before, after)

	u, err := m.Blend(context.Background(), "app.User", nil)
	require.NoError(t, err)
	assert.Same(t, after, u.Scheme())
}

func TestDefault(t *testing.T) {
	t.Parallel()
	assert.Same(t, mixer.Default(), mixer.Default())

	type Note struct {
		Title string `mixer:"title,size=6"`
	}
	inst, err := mixer.Mix(context.Background(), Note{}, nil)
	require.NoError(t, err)
	assert.Len(t, inst.Get("title"), 6)
	assert.Nil(t, inst.ID())
}
