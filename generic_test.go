package mixer_test

import (
	"context"
	"testing"

	"github.com/AlexeyBerezhnoy/mixer"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	Author struct {
		ID    int64
		Name  string `mixer:"name,size=10"`
		Books []*Book
	}
	Book struct {
		ID     int64
		Title  string `mixer:"title,size=20"`
		Pages  int16  `mixer:"pages,min=10,max=500"`
		Author *Author
	}
	Session struct {
		ID   uuid.UUID
		Name string `mixer:"name,size=10"`
	}
)

func TestBlendGeneric(t *testing.T) {
	t.Parallel()
	m, store := newMixer(t)
	ctx := context.Background()

	a, err := mixer.Blend[Author](ctx, m, mixer.Values{"name": "ann", "books": 2})
	require.NoError(t, err)
	assert.Equal(t, "ann", a.Name)
	assert.NotZero(t, a.ID)
	require.Len(t, a.Books, 2)
	for _, b := range a.Books {
		assert.Len(t, b.Title, 20)
		assert.GreaterOrEqual(t, b.Pages, int16(10))
		assert.LessOrEqual(t, b.Pages, int16(500))
	}
	assert.Equal(t, 1, store.Count("Author"))

	books, err := mixer.Cycle[Book](ctx, m, 3, mixer.Values{"title": m.Sequence("vol. %d")})
	require.NoError(t, err)
	require.Len(t, books, 3)
	want := []string{"vol. 0", "vol. 1", "vol. 2"}
	got := []string{books[0].Title, books[1].Title, books[2].Title}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}

	_, err = mixer.Cycle[Book](ctx, m, -1, nil)
	assert.True(t, mixer.IsConfigError(err))
}

func TestBlendGenericUUID(t *testing.T) {
	t.Parallel()
	m, store := newMixer(t)
	ctx := context.Background()

	s, err := mixer.Blend[Session](ctx, m, nil)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.Len(t, s.Name, 10)
	got, err := m.Get(ctx, Session{}, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID())

	v, err := m.With(mixer.WithCommit(false))
	require.NoError(t, err)
	sessions, err := mixer.Cycle[Session](ctx, v, 2, nil)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.NotEqual(t, uuid.Nil, sessions[0].ID)
	assert.NotEqual(t, sessions[0].ID, sessions[1].ID)
	assert.Equal(t, 1, store.Count("Session"))
}
