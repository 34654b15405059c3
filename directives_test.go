package mixer_test

import (
	"context"
	"net/mail"
	"testing"

	"github.com/AlexeyBerezhnoy/mixer"
	"github.com/AlexeyBerezhnoy/mixer/faker"
	"github.com/AlexeyBerezhnoy/mixer/gen"
	"github.com/AlexeyBerezhnoy/mixer/scheme/field"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandom(t *testing.T) {
	t.Parallel()
	m, _ := newMixer(t, mixer.WithCommit(false))
	ctx := context.Background()

	users, err := m.Cycle(10).Blend(ctx, "app.User", mixer.Values{
		"username": m.RandomOf("a", "b"),
		"code":     m.Random(),
		"level":    m.RandomType(field.TypeInt8),
		"active":   m.RandomOf(true),
	})
	require.NoError(t, err)
	for _, u := range users {
		assert.Contains(t, []any{"a", "b"}, u.Get("username"))
		assert.Len(t, u.Get("code"), 8)
		assert.IsType(t, int8(0), u.Get("level"))
		assert.Equal(t, true, u.Get("active"))
	}

	hole, err := m.Blend(ctx, "app.Hole", mixer.Values{
		"owner":           m.Random(),
		"owner__role":     "admin",
		"owner__bio":      m.Skip(),
		"owner__score":    m.Skip(),
		"owner__level":    int16(7),
		"owner__active":   false,
		"owner__code":     "12345678",
		"owner__username": "root",
	})
	require.NoError(t, err)
	owner := hole.Related("owner")
	require.NotNil(t, owner)
	assert.Equal(t, "admin", owner.Get("role"))
	assert.Nil(t, owner.Get("bio"))
	assert.Equal(t, 50, owner.Get("score"))
	assert.Equal(t, int16(7), owner.Get("level"))
}

func TestRandomRelation(t *testing.T) {
	t.Parallel()
	m, store := newMixer(t)
	ctx := context.Background()

	users, err := m.Cycle(2).Blend(ctx, "app.User", nil)
	require.NoError(t, err)
	ids := []any{users[0].ID(), users[1].ID()}
	for range 5 {
		hole, err := m.Blend(ctx, "app.Hole", mixer.Values{"owner": m.RandomOf(users[0], users[1])})
		require.NoError(t, err)
		assert.Contains(t, ids, hole.Related("owner").ID())
	}
	assert.Equal(t, 2, store.Count("app.User"))

	// The door of a home blends one more user as the owner of its hole.
	home, err := m.Blend(ctx, "app.Home", mixer.Values{"tenants": m.RandomOf(users[0], users[1])})
	require.NoError(t, err)
	tenants := store.Linked(home, "tenants")
	require.Len(t, tenants, 1)
	assert.Contains(t, ids, tenants[0].ID())
	assert.Equal(t, 3, store.Count("app.User"))

	hole, err := m.Blend(ctx, "app.Hole", mixer.Values{"owner": users[0]})
	require.NoError(t, err)
	tests := []struct {
		name      string
		overrides mixer.Values
		check     func(error) bool
	}{
		{"Literal", mixer.Values{"owner": m.RandomOf("x")}, mixer.IsDirectiveMisuse},
		{"OtherScheme", mixer.Values{"owner": m.RandomOf(hole)}, mixer.IsDirectiveMisuse},
		{"Type", mixer.Values{"owner": m.RandomType(field.TypeInt)}, mixer.IsDirectiveMisuse},
		{"Nested", mixer.Values{"owner": m.RandomOf(users[0]), "owner__role": "admin"}, mixer.IsPathResolution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := m.Blend(ctx, "app.Hole", tt.overrides)
			assert.True(t, tt.check(err), "%v", err)
		})
	}
	_, err = m.Blend(ctx, "app.Home", mixer.Values{"tenants": m.RandomOf(hole)})
	assert.True(t, mixer.IsDirectiveMisuse(err))
}

func TestFake(t *testing.T) {
	t.Parallel()
	m, _ := newMixer(t, mixer.WithCommit(false))
	ctx := context.Background()

	u, err := m.Blend(ctx, "app.User", mixer.Values{
		"username": m.Fake(),
		"bio":      m.FakeCategory(faker.Lorem, faker.Params{Length: 40}),
		"code":     m.FakeCategory(faker.Numerify, faker.Params{Pattern: "########"}),
	})
	require.NoError(t, err)
	username := u.Get("username").(string)
	assert.NotEmpty(t, username)
	assert.LessOrEqual(t, len(username), 16)
	assert.Len(t, u.Get("bio"), 40)
	assert.Regexp(t, `^\d{8}$`, u.Get("code"))

	u, err = m.Blend(ctx, "app.User", mixer.Values{"username": m.FakeType(field.TypeEmail)})
	require.NoError(t, err)
	assert.Contains(t, u.Get("username"), "@")

	hole, err := m.Blend(ctx, "app.Hole", mixer.Values{"owner": m.Fake()})
	require.NoError(t, err)
	assert.NotNil(t, hole.Related("owner"))
}

// echo is a corpus provider returning the requested category.
type echo struct{}

func (echo) Generator(category string, _ faker.Params) (func() any, error) {
	return func() any { return category }, nil
}

func TestFakeTypeCategory(t *testing.T) {
	t.Parallel()
	m, _ := newMixer(t, mixer.WithCommit(false), mixer.WithFactory(gen.NewFactory(gen.WithProvider(echo{}))))
	ctx := context.Background()

	// A field with neither a category nor a telling name draws from the
	// corpus category of its type.
	g, err := m.Blend(ctx, "Gadget", mixer.Values{"label": m.Fake()})
	require.NoError(t, err)
	assert.Equal(t, faker.Word, g.Get("label"))

	v, err := m.With(mixer.WithFake(true))
	require.NoError(t, err)
	g, err = v.Blend(ctx, "Gadget", nil)
	require.NoError(t, err)
	assert.Equal(t, faker.Word, g.Get("label"))

	g, err = m.Blend(ctx, "Gadget", nil)
	require.NoError(t, err)
	assert.Len(t, g.Get("label"), 8)
}

type Contact struct {
	ID    int64
	Name  string `mixer:"name,size=24"`
	Email string `mixer:"email,type=email,size=64"`
	City  string `mixer:"city,size=32"`
}

func TestFakeMode(t *testing.T) {
	t.Parallel()
	m, _ := newMixer(t, mixer.WithFake(true), mixer.WithCommit(false))

	c, err := mixer.Blend[Contact](context.Background(), m, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, c.Name)
	assert.LessOrEqual(t, len(c.Name), 24)
	assert.NotEmpty(t, c.City)
	_, err = mail.ParseAddress(c.Email)
	assert.NoError(t, err, c.Email)

	// Structural and fake blenders are cached apart.
	s, err := m.With(mixer.WithFake(false))
	require.NoError(t, err)
	sc, err := mixer.Blend[Contact](context.Background(), s, nil)
	require.NoError(t, err)
	assert.Len(t, sc.Name, 24)
}

func TestSkip(t *testing.T) {
	t.Parallel()
	m, _ := newMixer(t)
	u, err := m.Blend(context.Background(), "app.User", mixer.Values{
		"score": m.Skip(),
		"bio":   m.Skip(),
		"level": m.Skip(),
	})
	require.NoError(t, err)
	assert.Equal(t, 50, u.Get("score"))
	assert.Nil(t, u.Get("bio"))
	v, set := u.Lookup("level")
	assert.False(t, set)
	assert.Nil(t, v)
}
