package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/module/reachability/pkg/model"
)

func buildDiamondsAtNode() map[model.Node]*model.DiamondsAtNode {
	small := &model.Diamond{JoinNode: 4, HighestNodes: []model.Node{1}, Edgelist: make([]model.Edge, 4)}
	large := &model.Diamond{JoinNode: 9, HighestNodes: []model.Node{5, 6, 7}, Edgelist: make([]model.Edge, 6)}
	return map[model.Node]*model.DiamondsAtNode{
		4: {Node: 4, Diamonds: []*model.Diamond{small}},
		9: {Node: 9, Diamonds: []*model.Diamond{large}},
	}
}

func TestDiamondStatsCalculator_Calculate_OrdersByConditioningSetSize(t *testing.T) {
	calc := NewDiamondStatsCalculator()
	result := calc.Calculate(buildDiamondsAtNode())

	require.Len(t, result.Diamonds, 2)
	assert.Equal(t, model.Node(9), result.Diamonds[0].JoinNode)
	assert.Equal(t, 3, result.Diamonds[0].ConditioningNodes)
	assert.Equal(t, 8, result.Diamonds[0].EnumerationStates)
	assert.Equal(t, model.Node(4), result.Diamonds[1].JoinNode)
	assert.Equal(t, 2, result.Diamonds[1].EnumerationStates)
	assert.Equal(t, 10, result.TotalEdges)
}

func TestDiamondStatsCalculator_MaxDiamondsLimit(t *testing.T) {
	calc := NewDiamondStatsCalculator(WithMaxDiamonds(1))
	result := calc.Calculate(buildDiamondsAtNode())
	require.Len(t, result.Diamonds, 1)
	assert.Equal(t, model.Node(9), result.Diamonds[0].JoinNode)
}

func TestDiamondStatsResult_GetByJoinNode(t *testing.T) {
	result := NewDiamondStatsCalculator().Calculate(buildDiamondsAtNode())
	entry := result.GetByJoinNode(4)
	require.NotNil(t, entry)
	assert.Equal(t, 1, entry.ConditioningNodes)

	assert.Nil(t, result.GetByJoinNode(99))
}
