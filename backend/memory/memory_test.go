package memory_test

import (
	"context"
	"testing"

	"github.com/AlexeyBerezhnoy/mixer/backend/memory"
	"github.com/AlexeyBerezhnoy/mixer/scheme"
	"github.com/AlexeyBerezhnoy/mixer/scheme/edge"
	"github.com/AlexeyBerezhnoy/mixer/scheme/field"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	City   struct{ scheme.Schema }
	Street struct{ scheme.Schema }
	Region struct{ scheme.Schema }
	Town   struct{ scheme.Schema }
)

func (City) Fields() []scheme.Field {
	return []scheme.Field{
		field.String("name"),
		field.Int("population"),
	}
}

func (City) Edges() []scheme.Edge {
	return []scheme.Edge{edge.To("streets", Street.Type)}
}

func (Street) Fields() []scheme.Field {
	return []scheme.Field{field.String("name")}
}

func (Street) Edges() []scheme.Edge {
	return []scheme.Edge{edge.To("city", City.Type).Unique()}
}

func (Region) Fields() []scheme.Field {
	return []scheme.Field{
		field.UUID("id"),
		field.String("name"),
	}
}

func (Town) Fields() []scheme.Field {
	return []scheme.Field{field.String("name")}
}

func (Town) Edges() []scheme.Edge {
	return []scheme.Edge{edge.To("region", Region.Type).Unique()}
}

func descriptors(t *testing.T) (city, street *scheme.Descriptor) {
	t.Helper()
	r := scheme.NewRegistry()
	r.Register("City", City{})
	r.Register("Street", Street{})
	city, err := r.Lookup("City")
	require.NoError(t, err)
	street, err = r.Lookup("Street")
	require.NoError(t, err)
	return city, street
}

func newCity(t *testing.T, d *scheme.Descriptor, name string, population int) *scheme.Instance {
	t.Helper()
	c := scheme.NewInstance(d)
	require.NoError(t, c.Set("name", name))
	require.NoError(t, c.Set("population", population))
	return c
}

func TestCommit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	city, _ := descriptors(t)
	s := memory.New()

	a, err := s.Commit(ctx, newCity(t, city, "Oslo", 700))
	require.NoError(t, err)
	b, err := s.Commit(ctx, newCity(t, city, "Bergen", 290))
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID())
	assert.Equal(t, int64(2), b.ID())
	assert.Equal(t, 2, s.Count("City"))

	// Committing a stored identity replaces the row.
	c := newCity(t, city, "Kristiania", 700)
	c.SetID(int64(1))
	_, err = s.Commit(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count("City"))
	got, err := s.Get(ctx, city, 1)
	require.NoError(t, err)
	assert.Same(t, c, got)

	_, err = s.Get(ctx, city, 42)
	assert.ErrorIs(t, err, memory.ErrNotFound)

	_, err = s.Commit(ctx, nil)
	assert.Error(t, err)

	s.Clear()
	assert.Zero(t, s.Count("City"))
}

func TestSelect(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	city, street := descriptors(t)
	s := memory.New()

	got, err := s.Select(ctx, city, nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	oslo, err := s.Commit(ctx, newCity(t, city, "Oslo", 700))
	require.NoError(t, err)
	_, err = s.Commit(ctx, newCity(t, city, "Bergen", 290))
	require.NoError(t, err)

	tests := []struct {
		name    string
		filters map[string]any
		want    *scheme.Instance
	}{
		{"ByName", map[string]any{"name": "Oslo"}, oslo},
		{"ByLooseNumber", map[string]any{"population": float64(700)}, oslo},
		{"ByID", map[string]any{"id": 1}, oslo},
		{"NoMatch", map[string]any{"name": "Tromsø"}, nil},
		{"UnknownField", map[string]any{"mayor": "x"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Select(ctx, city, tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	st := scheme.NewInstance(street)
	require.NoError(t, st.Set("name", "Karl Johans gate"))
	require.NoError(t, st.Set("city", oslo))
	_, err = s.Commit(ctx, st)
	require.NoError(t, err)
	got, err = s.Select(ctx, street, map[string]any{"city": oslo})
	require.NoError(t, err)
	assert.Same(t, st, got)
	got, err = s.Select(ctx, street, map[string]any{"city": oslo.ID()})
	require.NoError(t, err)
	assert.Same(t, st, got)
}

func TestLink(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	city, street := descriptors(t)
	s := memory.New()

	oslo, err := s.Commit(ctx, newCity(t, city, "Oslo", 700))
	require.NoError(t, err)
	members := []*scheme.Instance{scheme.NewInstance(street), scheme.NewInstance(street)}
	rel, ok := city.Field("streets")
	require.True(t, ok)
	require.NoError(t, s.Link(ctx, oslo, rel, members))
	assert.Equal(t, members, s.Linked(oslo, "streets"))
	assert.Empty(t, s.Linked(oslo, "parks"))
}

func TestCommitUUID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := scheme.NewRegistry()
	r.Register("Region", Region{})
	r.Register("Town", Town{})
	region, err := r.Lookup("Region")
	require.NoError(t, err)
	town, err := r.Lookup("Town")
	require.NoError(t, err)
	s := memory.New()

	id := uuid.New()
	north := scheme.NewInstance(region)
	require.NoError(t, north.Set("name", "north"))
	north.SetID(id)
	got, err := s.Commit(ctx, north)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID())

	// The store only assigns ID and integer identities.
	anon := scheme.NewInstance(region)
	require.NoError(t, anon.Set("name", "anon"))
	_, err = s.Commit(ctx, anon)
	require.NoError(t, err)
	assert.Nil(t, anon.ID())
	assert.Equal(t, 2, s.Count("Region"))

	found, err := s.Get(ctx, region, id.String())
	require.NoError(t, err)
	assert.Same(t, north, found)
	_, err = s.Get(ctx, region, uuid.New())
	assert.ErrorIs(t, err, memory.ErrNotFound)

	oslo := scheme.NewInstance(town)
	require.NoError(t, oslo.Set("name", "Oslo"))
	require.NoError(t, oslo.Set("region", north))
	_, err = s.Commit(ctx, oslo)
	require.NoError(t, err)
	assert.Equal(t, int64(1), oslo.ID())
	found, err = s.Select(ctx, town, map[string]any{"region": id.String()})
	require.NoError(t, err)
	assert.Same(t, oslo, found)
}
