package ml

import (
	"errors"
	"fmt"
)

// RandomForest votes a set of decision trees. Ties go to no churn.
type RandomForest struct {
	trees []*DecisionTree
}

func NewRandomForest(forest [][]TreeNode) (*RandomForest, error) {
	if len(forest) == 0 {
		return nil, errors.New("forest has no trees")
	}
	trees := make([]*DecisionTree, len(forest))
	for i, nodes := range forest {
		tree, err := NewDecisionTree(nodes)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		trees[i] = tree
	}
	return &RandomForest{trees: trees}, nil
}

func (rf *RandomForest) Predict(features []float64) (int, float64, error) {
	votes := 0
	for i, tree := range rf.trees {
		label, _, err := tree.Predict(features)
		if err != nil {
			return 0, 0, fmt.Errorf("tree %d: %w", i, err)
		}
		if label == LabelChurn {
			votes++
		}
	}
	share := float64(votes) / float64(len(rf.trees))
	if votes*2 > len(rf.trees) {
		return LabelChurn, share, nil
	}
	return LabelNoChurn, share, nil
}
