package networkio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/module/reachability/internal/testutil"
	"github.com/module/reachability/pkg/model"
	"github.com/module/reachability/pkg/value"
)

func loadChainDoc(t *testing.T) *Document {
	t.Helper()
	doc, err := Decode(testutil.LoadFixtureReader(t, "chain.json"))
	require.NoError(t, err)
	return doc
}

func TestDocument_NetworkBuildsFromFixture(t *testing.T) {
	doc := loadChainDoc(t)

	n, err := doc.Network()
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.Node{1}, n.SourceNodes)
	assert.Len(t, n.Edges, 2)
}

func TestDocument_ToDiamondsAtNode_FallsBackToDecomposer(t *testing.T) {
	doc := loadChainDoc(t)
	n, err := doc.Network()
	require.NoError(t, err)

	dan, err := doc.ToDiamondsAtNode(n)
	require.NoError(t, err)
	assert.Empty(t, dan, "a chain has no node with two parents to decompose")
}

func TestDocument_ToDiamondsAtNode_PrefersExplicitDecomposition(t *testing.T) {
	doc := loadChainDoc(t)
	doc.DiamondsAtNode = []DiamondsAtNodeDoc{
		{Node: 3, NonDiamondParents: []uint64{2}},
	}
	n, err := doc.Network()
	require.NoError(t, err)

	dan, err := doc.ToDiamondsAtNode(n)
	require.NoError(t, err)
	require.Contains(t, dan, model.Node(3))
	assert.Equal(t, []model.Node{2}, dan[model.Node(3)].NonDiamondParents)
}

func TestHash_StableAcrossDiamondDecomposition(t *testing.T) {
	doc := loadChainDoc(t)
	base, err := Hash(doc)
	require.NoError(t, err)

	doc.DiamondsAtNode = []DiamondsAtNodeDoc{{Node: 3, NonDiamondParents: []uint64{2}}}
	withDiamonds, err := Hash(doc)
	require.NoError(t, err)

	assert.Equal(t, base, withDiamonds, "supplying a decomposition shouldn't change the network's identity")
}

func TestCompressArchive_RoundTrips(t *testing.T) {
	doc := loadChainDoc(t)

	archived, err := CompressArchive(doc)
	require.NoError(t, err)
	assert.NotEmpty(t, archived)

	restored, err := DecompressArchive(archived)
	require.NoError(t, err)
	assert.Equal(t, doc.Kind, restored.Kind)
	assert.ElementsMatch(t, doc.Edges, restored.Edges)
}

func TestEncodeDecodeBeliefs_RoundTrips(t *testing.T) {
	beliefs := map[model.Node]value.Belief{
		1: value.Scalar(1),
		2: value.Scalar(0.5),
		3: value.Scalar(0.25),
	}

	encoded, err := EncodeBeliefs(beliefs)
	require.NoError(t, err)

	decoded, err := DecodeBeliefs(encoded, value.KindScalar)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	assert.InDelta(t, 0.25, float64(decoded[3].(value.Scalar)), 1e-9)
}

func TestEncode_ProducesValidJSON(t *testing.T) {
	doc := loadChainDoc(t)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))
	assert.Contains(t, buf.String(), `"kind": "scalar"`)
}
