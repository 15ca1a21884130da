package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.redux.dev/redux/internal/core/domain"
)

func TestAncestorChain_ContainsAndPush(t *testing.T) {
	var chain domain.AncestorChain
	a := domain.NewPathKey("a.o")
	b := domain.NewPathKey("b.o")

	assert.False(t, chain.Contains(a))

	chain = chain.Push(a)
	assert.True(t, chain.Contains(a))
	assert.False(t, chain.Contains(b))

	withB := chain.Push(b)
	assert.True(t, withB.Contains(a))
	assert.True(t, withB.Contains(b))

	// Push must not mutate the receiver: chain still lacks b.
	assert.False(t, chain.Contains(b))
}

func TestJob_PrefixKey_TracksTentativeDeps(t *testing.T) {
	j := &domain.Job{}
	emptyKey := j.PrefixKey()

	j.TentativeDeps = append(j.TentativeDeps, domain.SourceDep{
		Path:   domain.NewPathKey("a.h"),
		Digest: domain.DigestBytes([]byte("a")),
	})
	afterOne := j.PrefixKey()

	assert.NotEqual(t, emptyKey, afterOne)
}

func TestVerdict_String(t *testing.T) {
	tests := []struct {
		v    domain.Verdict
		want string
	}{
		{domain.VerdictRunning, "running"},
		{domain.VerdictCommittedOk, "committed-ok"},
		{domain.VerdictKilledForCacheHit, "killed-for-cache-hit"},
		{domain.VerdictFailed, "failed"},
		{domain.Verdict(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.v.String())
	}
}
