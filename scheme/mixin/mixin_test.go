package mixin_test

import (
	"testing"

	"github.com/AlexeyBerezhnoy/mixer/scheme"
	"github.com/AlexeyBerezhnoy/mixer/scheme/field"
	"github.com/AlexeyBerezhnoy/mixer/scheme/mixin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaBaseMixin(t *testing.T) {
	m := mixin.Schema{}
	assert.Nil(t, m.Fields())
	assert.Nil(t, m.Edges())
}

type Post struct{ scheme.Schema }

func (Post) Mixin() []scheme.Mixin {
	return []scheme.Mixin{mixin.Time{}, mixin.SoftDelete{}}
}

func (Post) Fields() []scheme.Field {
	return []scheme.Field{field.String("title")}
}

func TestMixinFieldOrder(t *testing.T) {
	d, err := scheme.Build("Post", Post{}, nil)
	require.NoError(t, err)
	var names []string
	for _, f := range d.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"id", "created_at", "updated_at", "deleted_at", "title"}, names)

	deleted, ok := d.Field("deleted_at")
	require.True(t, ok)
	assert.True(t, deleted.Nullable)
	_, ok = deleted.DefaultValue()
	assert.False(t, ok)

	created, _ := d.Field("created_at")
	v, ok := created.DefaultValue()
	require.True(t, ok)
	assert.False(t, v.(interface{ IsZero() bool }).IsZero())
}

func TestCreateTime(t *testing.T) {
	fields := mixin.CreateTime{}.Fields()
	require.Len(t, fields, 1)
	assert.Equal(t, "created_at", fields[0].Descriptor().Name)
}
