package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.redux.dev/redux/internal/core/domain"
)

func TestNewPathKey_Normalizes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean relative", "foo/bar.c", "foo/bar.c"},
		{"leading dot-slash", "./foo/bar.c", "foo/bar.c"},
		{"double dot-slash", "././foo/bar.c", "foo/bar.c"},
		{"dot collapses to root", ".", ""},
		{"trailing slash trimmed by Clean", "foo/bar/", "foo/bar"},
		{"redundant separators", "foo//bar", "foo/bar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.NewPathKey(tt.in)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestPathKey_Equality(t *testing.T) {
	a := domain.NewPathKey("foo/bar.c")
	b := domain.NewPathKey("./foo/bar.c")
	c := domain.NewPathKey("foo/baz.c")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestPathKey_Empty(t *testing.T) {
	assert.True(t, domain.NewPathKey(".").Empty())
	assert.False(t, domain.NewPathKey("foo").Empty())
}
