package scheme_test

import (
	"testing"

	"github.com/AlexeyBerezhnoy/mixer/scheme"

	"github.com/stretchr/testify/assert"
)

func TestSnake(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]string{
		"ID":        "id",
		"UserID":    "user_id",
		"Username":  "username",
		"CreatedAt": "created_at",
		"HTTPCode":  "http_code",
	} {
		assert.Equal(t, want, scheme.Snake(in), in)
	}
}

func TestTable(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "users", scheme.Table("app.User"))
	assert.Equal(t, "doors", scheme.Table("Door"))
	assert.Equal(t, "house_doors", scheme.JoinTable("app.House", "doors"))
}
