package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.redux.dev/redux/internal/core/domain"
)

func TestDigestBytes_Deterministic(t *testing.T) {
	d1 := domain.DigestBytes([]byte("hello"))
	d2 := domain.DigestBytes([]byte("hello"))
	d3 := domain.DigestBytes([]byte("world"))

	assert.Equal(t, d1, d2)
	assert.NotEqual(t, d1, d3)
}

func TestDigestReader(t *testing.T) {
	want := domain.DigestBytes([]byte("hello"))
	got, err := domain.DigestReader(strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDigest_String_ParseDigest_RoundTrip(t *testing.T) {
	d := domain.DigestBytes([]byte("round trip"))
	parsed, err := domain.ParseDigest(d.String())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}

func TestParseDigest_WrongLength(t *testing.T) {
	_, err := domain.ParseDigest("deadbeef")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadDigestLength)
}

func TestParseDigest_BadHex(t *testing.T) {
	_, err := domain.ParseDigest("not-hex!!")
	require.Error(t, err)
}

func TestDigest_IsMissing(t *testing.T) {
	assert.True(t, domain.MissingDigest.IsMissing())
	assert.False(t, domain.DigestBytes([]byte("x")).IsMissing())
}

func TestDigest_Prefix(t *testing.T) {
	d := domain.DigestBytes([]byte("prefix me"))
	full := d.String()

	assert.Equal(t, full[:4], d.Prefix(4))
	assert.Equal(t, full, d.Prefix(1000))
}
