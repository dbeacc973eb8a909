package hasher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSummaryHash_StableAcrossMapOrder(t *testing.T) {
	a := map[string]string{"pkg.TypeA": "aaaa", "pkg.TypeB": "bbbb"}
	b := map[string]string{"pkg.TypeB": "bbbb", "pkg.TypeA": "aaaa"}

	hashA, err := LocalSummaryHash(a)
	require.NoError(t, err)
	hashB, err := LocalSummaryHash(b)
	require.NoError(t, err)

	assert.Equal(t, hashA, hashB)
	assert.Len(t, hashA, 64)
}

func TestLocalSummaryHash_EmptyMapIsStable(t *testing.T) {
	hashA, err := LocalSummaryHash(map[string]string{})
	require.NoError(t, err)
	hashB, err := LocalSummaryHash(map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, hashA, hashB)
}

func TestCrateSummary_DeterministicAndSensitiveToInputs(t *testing.T) {
	deps := map[string]string{"dep_a": "deadbeef"}
	local := "cafebabe"

	summaryA, err := CrateSummary(deps, local)
	require.NoError(t, err)
	summaryB, err := CrateSummary(deps, local)
	require.NoError(t, err)
	assert.Equal(t, summaryA, summaryB)

	otherLocal, err := CrateSummary(deps, "00000000")
	require.NoError(t, err)
	assert.NotEqual(t, summaryA, otherLocal)

	otherDeps, err := CrateSummary(map[string]string{"dep_a": "00000000"}, local)
	require.NoError(t, err)
	assert.NotEqual(t, summaryA, otherDeps)
}

func TestCrateSummary_NoDependenciesStillProducesSummary(t *testing.T) {
	summary, err := CrateSummary(map[string]string{}, "cafebabe")
	require.NoError(t, err)
	assert.Len(t, summary, 64)
}
