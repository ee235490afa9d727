package pipeline

import (
	"errors"
	"math"
	"sort"
)

// BoostingOptions configures each per-category gradient boosting classifier.
type BoostingOptions struct {
	Estimators     int
	LearningRate   float64
	MaxDepth       int
	MinSamplesLeaf int
}

// DefaultBoostingOptions mirrors the classic gradient boosting defaults.
func DefaultBoostingOptions() BoostingOptions {
	return BoostingOptions{
		Estimators:     100,
		LearningRate:   0.1,
		MaxDepth:       3,
		MinSamplesLeaf: 1,
	}
}

// TreeNode is one node of a regression tree stored as a flat array.
// Feature is -1 for leaves.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// Predict walks x down the tree: x[feature] <= threshold goes left.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		node := t.Nodes[i]
		if node.Feature < 0 {
			return node.Value
		}
		var v float64
		if node.Feature < len(x) {
			v = x[node.Feature]
		}
		if v <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

// GradientBoosting is a binary classifier trained with log-loss boosting of regression trees.
// A target column that never varies produces a constant predictor instead of trees.
type GradientBoosting struct {
	Options  BoostingOptions
	Init     float64
	Trees    []Tree
	Constant *float64
}

func NewGradientBoosting(opts BoostingOptions) *GradientBoosting {
	return &GradientBoosting{Options: opts}
}

// Fit trains on dense rows X and 0/1 targets y, replacing any previous fit.
func (g *GradientBoosting) Fit(X [][]float64, y []float64) error {
	n := len(X)
	if n == 0 || n != len(y) {
		return errors.New("gradient boosting: empty input or mismatched target length")
	}
	g.Trees = nil
	g.Constant = nil

	var pos float64
	for _, v := range y {
		pos += v
	}
	if pos == 0 || pos == float64(n) {
		c := y[0]
		g.Constant = &c
		return nil
	}
	g.Init = math.Log(pos / (float64(n) - pos))

	cols := buildColumns(X)
	raw := make([]float64, n)
	for i := range raw {
		raw[i] = g.Init
	}
	resid := make([]float64, n)
	hess := make([]float64, n)

	for m := 0; m < g.Options.Estimators; m++ {
		for i := range raw {
			p := sigmoid(raw[i])
			resid[i] = y[i] - p
			hess[i] = p * (1 - p)
		}
		tree, assign := growTree(X, cols, resid, hess, g.Options)
		for i := range raw {
			raw[i] += g.Options.LearningRate * tree.Nodes[assign[i]].Value
		}
		g.Trees = append(g.Trees, tree)
	}
	return nil
}

// PredictProba returns the probability of the positive class for x.
func (g *GradientBoosting) PredictProba(x []float64) float64 {
	if g.Constant != nil {
		return *g.Constant
	}
	return sigmoid(g.decision(x))
}

func (g *GradientBoosting) decision(x []float64) float64 {
	raw := g.Init
	for i := range g.Trees {
		raw += g.Options.LearningRate * g.Trees[i].Predict(x)
	}
	return raw
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// columnEntry is a non-zero cell of the training matrix.
type columnEntry struct {
	row   int
	value float64
}

// buildColumns indexes the non-zero cells of X per feature, sorted by value. Tf-idf rows are
// mostly zero, so split search walks these lists and treats the zeros of a node as one group.
func buildColumns(X [][]float64) [][]columnEntry {
	width := 0
	for _, row := range X {
		if len(row) > width {
			width = len(row)
		}
	}
	cols := make([][]columnEntry, width)
	for i, row := range X {
		for f, v := range row {
			if v != 0 {
				cols[f] = append(cols[f], columnEntry{row: i, value: v})
			}
		}
	}
	for f := range cols {
		col := cols[f]
		sort.SliceStable(col, func(a, b int) bool { return col[a].value < col[b].value })
	}
	return cols
}

type splitCandidate struct {
	gain      float64
	feature   int
	threshold float64
}

// scanState tracks the left side of a node while sweeping one feature in ascending order.
type scanState struct {
	nzCount    int
	nzSum      float64
	leftCount  int
	leftSum    float64
	lastValue  float64
	zerosAdded bool
}

// growTree fits one regression tree on the residuals, level by level, using Friedman's
// mean-squared-error improvement. Leaf values are Newton steps sum(resid)/sum(hess).
// It returns the tree and the leaf index of every training row.
func growTree(X [][]float64, cols [][]columnEntry, resid, hess []float64, opts BoostingOptions) (Tree, []int) {
	n := len(X)
	nodes := []TreeNode{{Feature: -1}}
	assign := make([]int, n)
	count := []int{n}
	var total float64
	for _, r := range resid {
		total += r
	}
	sum := []float64{total}

	active := []int{0}
	for depth := 0; depth < opts.MaxDepth && len(active) > 0; depth++ {
		isActive := make([]bool, len(nodes))
		best := make([]splitCandidate, len(nodes))
		states := make([]scanState, len(nodes))
		for _, id := range active {
			if count[id] >= 2*opts.MinSamplesLeaf && count[id] >= 2 {
				isActive[id] = true
			}
		}

		evaluate := func(id int, threshold float64, f int) {
			st := &states[id]
			nL := st.leftCount
			nR := count[id] - nL
			if nL < opts.MinSamplesLeaf || nR < opts.MinSamplesLeaf {
				return
			}
			diff := st.leftSum/float64(nL) - (sum[id]-st.leftSum)/float64(nR)
			gain := float64(nL) * float64(nR) / float64(count[id]) * diff * diff
			if gain > best[id].gain+1e-12 {
				best[id] = splitCandidate{gain: gain, feature: f, threshold: threshold}
			}
		}
		addGroup := func(id int, value float64, cnt int, s float64, f int) {
			st := &states[id]
			if st.leftCount > 0 && value != st.lastValue {
				evaluate(id, (st.lastValue+value)/2, f)
			}
			st.leftCount += cnt
			st.leftSum += s
			st.lastValue = value
		}

		for f, col := range cols {
			if len(col) == 0 {
				continue
			}
			for _, id := range active {
				states[id] = scanState{}
			}
			for _, e := range col {
				id := assign[e.row]
				if isActive[id] {
					states[id].nzCount++
					states[id].nzSum += resid[e.row]
				}
			}
			for _, e := range col {
				id := assign[e.row]
				if !isActive[id] {
					continue
				}
				st := &states[id]
				if !st.zerosAdded && e.value > 0 {
					st.zerosAdded = true
					if zc := count[id] - st.nzCount; zc > 0 {
						addGroup(id, 0, zc, sum[id]-st.nzSum, f)
					}
				}
				addGroup(id, e.value, 1, resid[e.row], f)
			}
			for _, id := range active {
				st := &states[id]
				if !isActive[id] || st.zerosAdded || st.nzCount == 0 {
					continue
				}
				st.zerosAdded = true
				if zc := count[id] - st.nzCount; zc > 0 {
					addGroup(id, 0, zc, sum[id]-st.nzSum, f)
				}
			}
		}

		split := make(map[int]bool)
		var next []int
		for _, id := range active {
			if !isActive[id] || best[id].gain <= 0 {
				continue
			}
			left := len(nodes)
			right := left + 1
			nodes = append(nodes, TreeNode{Feature: -1}, TreeNode{Feature: -1})
			count = append(count, 0, 0)
			sum = append(sum, 0, 0)
			nodes[id].Feature = best[id].feature
			nodes[id].Threshold = best[id].threshold
			nodes[id].Left = left
			nodes[id].Right = right
			split[id] = true
			next = append(next, left, right)
		}
		if len(next) == 0 {
			break
		}
		for i := range assign {
			id := assign[i]
			if !split[id] {
				continue
			}
			node := nodes[id]
			child := node.Right
			if X[i][node.Feature] <= node.Threshold {
				child = node.Left
			}
			assign[i] = child
			count[child]++
			sum[child] += resid[i]
		}
		active = next
	}

	numer := make([]float64, len(nodes))
	denom := make([]float64, len(nodes))
	for i, id := range assign {
		numer[id] += resid[i]
		denom[id] += hess[i]
	}
	for id := range nodes {
		if nodes[id].Feature >= 0 {
			continue
		}
		if math.Abs(denom[id]) < 1e-150 {
			nodes[id].Value = 0
		} else {
			nodes[id].Value = numer[id] / denom[id]
		}
	}
	return Tree{Nodes: nodes}, assign
}
