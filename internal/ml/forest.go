package ml

import (
	"math"
	"math/rand"
	"sort"
)

// TreeNode is one node of a fitted decision tree. Nodes are stored in a flat
// slice with child indexes so trees serialize cleanly to JSON.
type TreeNode struct {
	Dist      []float64 `json:"dist,omitempty"` // leaf class distribution
	Threshold float64   `json:"threshold"`
	Feature   int       `json:"feature"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Leaf      bool      `json:"leaf"`
}

// Tree is a single CART-style decision tree.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// Forest is a random-forest classifier: bagged decision trees with per-node
// feature subsampling and class-balanced sample weights.
type Forest struct {
	Trees      []Tree   `json:"trees"`
	Classes    []string `json:"classes"`
	NumTrees   int      `json:"num_trees"`
	MaxDepth   int      `json:"max_depth"`
	MinSamples int      `json:"min_samples"`
	Seed       int64    `json:"seed"`
}

// NewForest creates an unfitted forest with the default hyperparameters.
func NewForest(classes []string) *Forest {
	return &Forest{
		Classes:    classes,
		NumTrees:   100,
		MaxDepth:   12,
		MinSamples: 2,
		Seed:       42,
	}
}

// Fit trains the forest. y holds class indexes into f.Classes. Sample
// weights are balanced so rare categories are not drowned out.
func (f *Forest) Fit(x [][]float64, y []int) {
	n := len(x)
	if n == 0 {
		return
	}
	k := len(f.Classes)

	// class_weight="balanced": weight = n / (k * count(class))
	counts := make([]float64, k)
	for _, label := range y {
		counts[label]++
	}
	weights := make([]float64, n)
	for i, label := range y {
		if counts[label] > 0 {
			weights[i] = float64(n) / (float64(k) * counts[label])
		}
	}

	rng := rand.New(rand.NewSource(f.Seed))
	featureCount := len(x[0])
	perNode := int(math.Ceil(math.Sqrt(float64(featureCount))))
	if perNode < 1 {
		perNode = 1
	}

	f.Trees = make([]Tree, f.NumTrees)
	for t := 0; t < f.NumTrees; t++ {
		// Bootstrap sample.
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}

		builder := &treeBuilder{
			x:          x,
			y:          y,
			weights:    weights,
			classes:    k,
			maxDepth:   f.MaxDepth,
			minSamples: f.MinSamples,
			perNode:    perNode,
			rng:        rng,
		}
		f.Trees[t] = Tree{Nodes: builder.build(idx, 0)}
	}
}

// PredictProba returns the averaged class distribution across all trees.
func (f *Forest) PredictProba(x []float64) []float64 {
	probs := make([]float64, len(f.Classes))
	if len(f.Trees) == 0 {
		return probs
	}
	for _, tree := range f.Trees {
		dist := tree.predict(x)
		for j, p := range dist {
			probs[j] += p
		}
	}
	for j := range probs {
		probs[j] /= float64(len(f.Trees))
	}
	return probs
}

// Predict returns the index of the most probable class.
func (f *Forest) Predict(x []float64) int {
	probs := f.PredictProba(x)
	best := 0
	for j, p := range probs {
		if p > probs[best] {
			best = j
		}
	}
	return best
}

func (t *Tree) predict(x []float64) []float64 {
	i := 0
	for {
		node := t.Nodes[i]
		if node.Leaf {
			return node.Dist
		}
		if node.Feature < len(x) && x[node.Feature] <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

type treeBuilder struct {
	rng        *rand.Rand
	x          [][]float64
	y          []int
	weights    []float64
	nodes      []TreeNode
	classes    int
	maxDepth   int
	minSamples int
	perNode    int
}

// build grows a subtree over the given sample indexes and returns the node
// slice. The root is always node 0.
func (b *treeBuilder) build(idx []int, depth int) []TreeNode {
	b.nodes = b.nodes[:0]
	b.grow(idx, depth)
	out := make([]TreeNode, len(b.nodes))
	copy(out, b.nodes)
	return out
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	nodeIdx := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{})

	dist := b.classDist(idx)
	if depth >= b.maxDepth || len(idx) < b.minSamples || isPure(dist) {
		b.nodes[nodeIdx] = TreeNode{Leaf: true, Dist: dist}
		return nodeIdx
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		b.nodes[nodeIdx] = TreeNode{Leaf: true, Dist: dist}
		return nodeIdx
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		b.nodes[nodeIdx] = TreeNode{Leaf: true, Dist: dist}
		return nodeIdx
	}

	leftIdx := b.grow(left, depth+1)
	rightIdx := b.grow(right, depth+1)
	b.nodes[nodeIdx] = TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      leftIdx,
		Right:     rightIdx,
	}
	return nodeIdx
}

// classDist returns the weighted, normalized class distribution of a sample.
func (b *treeBuilder) classDist(idx []int) []float64 {
	dist := make([]float64, b.classes)
	var total float64
	for _, i := range idx {
		dist[b.y[i]] += b.weights[i]
		total += b.weights[i]
	}
	if total > 0 {
		for j := range dist {
			dist[j] /= total
		}
	}
	return dist
}

func isPure(dist []float64) bool {
	for _, p := range dist {
		if p > 0.9999 {
			return true
		}
	}
	return false
}

// bestSplit scans a random feature subset for the split with the lowest
// weighted gini impurity.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	featureCount := len(b.x[0])
	candidates := b.rng.Perm(featureCount)
	if len(candidates) > b.perNode {
		candidates = candidates[:b.perNode]
	}

	bestGini := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	for _, feature := range candidates {
		values := make([]float64, 0, len(idx))
		for _, i := range idx {
			values = append(values, b.x[i][feature])
		}
		sort.Float64s(values)

		for v := 0; v+1 < len(values); v++ {
			if values[v] == values[v+1] {
				continue
			}
			threshold := (values[v] + values[v+1]) / 2
			gini := b.splitGini(idx, feature, threshold)
			if gini < bestGini {
				bestGini = gini
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func (b *treeBuilder) splitGini(idx []int, feature int, threshold float64) float64 {
	leftDist := make([]float64, b.classes)
	rightDist := make([]float64, b.classes)
	var leftTotal, rightTotal float64

	for _, i := range idx {
		w := b.weights[i]
		if b.x[i][feature] <= threshold {
			leftDist[b.y[i]] += w
			leftTotal += w
		} else {
			rightDist[b.y[i]] += w
			rightTotal += w
		}
	}

	total := leftTotal + rightTotal
	if total == 0 {
		return math.Inf(1)
	}
	return (leftTotal*gini(leftDist, leftTotal) + rightTotal*gini(rightDist, rightTotal)) / total
}

func gini(dist []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	g := 1.0
	for _, w := range dist {
		p := w / total
		g -= p * p
	}
	return g
}
