package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.redux.dev/redux/internal/core/domain"
)

func TestBuildContext_ClaimOrJoin_SingleClaimer(t *testing.T) {
	bc := domain.NewBuildContext("build-1")
	target := domain.NewPathKey("out.o")

	wait, claimed := bc.ClaimOrJoin(target)
	assert.True(t, claimed)
	assert.Nil(t, wait)

	// A second caller for the same target joins instead of claiming.
	wait2, claimed2 := bc.ClaimOrJoin(target)
	assert.False(t, claimed2)
	require.NotNil(t, wait2)

	want := domain.DigestBytes([]byte("built"))
	bc.Commit(target, want, nil)

	<-wait2
	got, err := bc.ResultOf(target)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBuildContext_Resolved_BeforeAndAfterCommit(t *testing.T) {
	bc := domain.NewBuildContext("build-1")
	target := domain.NewPathKey("out.o")

	_, _, ok := bc.Resolved(target)
	assert.False(t, ok)

	bc.Commit(target, domain.DigestBytes([]byte("x")), nil)

	digest, err, ok := bc.Resolved(target)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, domain.DigestBytes([]byte("x")), digest)
}

func TestBuildContext_Commit_PropagatesError(t *testing.T) {
	bc := domain.NewBuildContext("build-1")
	target := domain.NewPathKey("broken.o")

	_, claimed := bc.ClaimOrJoin(target)
	require.True(t, claimed)

	bc.Commit(target, domain.Digest{}, domain.ErrRuleFailed)

	_, err, ok := bc.Resolved(target)
	require.True(t, ok)
	assert.ErrorIs(t, err, domain.ErrRuleFailed)
}

func TestBuildContext_ConcurrentJoiners(t *testing.T) {
	bc := domain.NewBuildContext("build-1")
	target := domain.NewPathKey("shared.o")

	_, claimed := bc.ClaimOrJoin(target)
	require.True(t, claimed)

	const n = 8
	results := make(chan domain.Digest, n)
	for i := 0; i < n; i++ {
		go func() {
			wait, claimed := bc.ClaimOrJoin(target)
			require.False(t, claimed)
			<-wait
			got, err := bc.ResultOf(target)
			require.NoError(t, err)
			results <- got
		}()
	}

	want := domain.DigestBytes([]byte("shared result"))
	bc.Commit(target, want, nil)

	for i := 0; i < n; i++ {
		assert.Equal(t, want, <-results)
	}
}
