package stitcher

import (
	"fmt"
	"math/bits"
)

// MaxNodesFor returns the node capacity needed for two reads of at most maxReadLen bases joined by a
// separator and terminated.
func MaxNodesFor(maxReadLen int) int {
	return 2 * (2*maxReadLen + 2)
}

// LCAIndex answers lowest common ancestor queries on a suffix tree in constant time (Schieber-Vishkin).
//
// Bit positions are 1-based throughout: position p is the bit with value 1<<(p-1). The bit tables depend only
// on the capacity and are built once; the per-tree arrays are refilled by every Preprocess call. An LCAIndex
// is not safe for concurrent use.
type LCAIndex struct {
	maxNodes int
	numBits  int

	leftmost  []int // position of the highest set bit, -1 for 0
	rightmost []int // position of the lowest set bit, -1 for 0
	shifts    []int // shifts[p] has only bit p set
	masks     []int // masks[p] has every bit at position >= p set

	tree *SuffixTree
	// Indexed by preorder label.
	inlabel   []int // I(v): the label in v's subtree with the most trailing zeros
	ancestors []int // A(v): bit h(I(u)) set for every ancestor u of v, v included
	runHead   []int // runHead[I] is the label of the shallowest node of the run I
}

func NewLCAIndex(maxNodes int) *LCAIndex {
	numBits := bits.Len(uint(maxNodes))
	x := &LCAIndex{
		maxNodes:  maxNodes,
		numBits:   numBits,
		leftmost:  make([]int, 1<<numBits),
		rightmost: make([]int, 1<<numBits),
		shifts:    make([]int, numBits+2),
		masks:     make([]int, numBits+2),
		inlabel:   make([]int, maxNodes+1),
		ancestors: make([]int, maxNodes+1),
		runHead:   make([]int, maxNodes+1),
	}

	for p := 1; p <= numBits+1; p++ {
		x.shifts[p] = 1 << (p - 1)
	}
	mask := 0
	for p := numBits + 1; p >= 1; p-- {
		mask |= x.shifts[p]
		x.masks[p] = mask
	}

	x.leftmost[0], x.rightmost[0] = -1, -1
	for v := 1; v < len(x.leftmost); v++ {
		x.leftmost[v] = bits.Len(uint(v))
		x.rightmost[v] = bits.TrailingZeros(uint(v)) + 1
	}
	return x
}

// MaxNodes returns the largest tree the index accepts.
func (x *LCAIndex) MaxNodes() int { return x.maxNodes }

// Preprocess prepares the index for queries on t. Queries refer to the most recently preprocessed tree.
func (x *LCAIndex) Preprocess(t *SuffixTree) error {
	n := t.NodeCount()
	if n > x.maxNodes {
		return fmt.Errorf("%w: %d nodes, capacity %d", ErrCapacity, n, x.maxNodes)
	}
	x.tree = nil
	clear(x.inlabel[:n+1])
	clear(x.ancestors[:n+1])
	clear(x.runHead[:n+1])

	// Children carry larger labels than their parent, so a reverse preorder sweep sees every subtree first.
	for l := n; l >= 1; l-- {
		v := t.NodeByLabel(l)
		best, h := l, x.rightmost[l]
		for c := alphabetSize - 1; c >= 0; c-- {
			child := t.nodes[v].children[c]
			if child == 0 {
				continue
			}
			if ci := x.inlabel[t.nodes[child].label]; x.rightmost[ci] >= h {
				best, h = ci, x.rightmost[ci]
			}
		}
		x.inlabel[l] = best
		x.runHead[best] = l
	}

	x.ancestors[1] = x.shifts[x.rightmost[x.inlabel[1]]]
	for l := 2; l <= n; l++ {
		parent := t.nodes[t.NodeByLabel(l)].parent
		x.ancestors[l] = x.shifts[x.rightmost[x.inlabel[l]]] | x.ancestors[t.nodes[parent].label]
	}

	x.tree = t
	return nil
}

// LCA returns the lowest common ancestor of u and v in the preprocessed tree.
func (x *LCAIndex) LCA(u, v Node) Node {
	t := x.tree
	if t == nil {
		panic("stitcher: LCA query before Preprocess")
	}
	lu, lv := t.nodes[u].label, t.nodes[v].label
	if lv >= lu && lv <= lu+t.nodes[u].descendants {
		return u
	}
	if lu >= lv && lu <= lv+t.nodes[v].descendants {
		return v
	}

	iu, iv := x.inlabel[lu], x.inlabel[lv]
	// b is the lowest common ancestor of I(u) and I(v) in the complete binary tree over labels.
	b := iu
	if iu != iv {
		k := x.leftmost[iu^iv]
		switch {
		case x.rightmost[iu] > k:
			b = iu
		case x.rightmost[iv] > k:
			b = iv
		default:
			b = (iu & x.masks[k+1]) | x.shifts[k]
		}
	}

	common := x.masks[x.rightmost[b]] & x.ancestors[lu] & x.ancestors[lv]
	if common == 0 {
		panic(fmt.Sprintf("stitcher: no common run for labels %d and %d", lu, lv))
	}
	j := x.rightmost[common]

	ub, vb := x.enterRun(u, lu, j), x.enterRun(v, lv, j)
	if t.nodes[ub].label < t.nodes[vb].label {
		return ub
	}
	return vb
}

// enterRun returns the node where the root path of v first reaches the run whose I value has its lowest set
// bit at position j.
func (x *LCAIndex) enterRun(v Node, lv, j int) Node {
	av := x.ancestors[lv]
	if x.rightmost[av] == j {
		return v
	}
	k := x.leftmost[av&^x.masks[j]]
	if k < 1 {
		panic(fmt.Sprintf("stitcher: label %d has no run below bit %d", lv, j))
	}
	head := x.runHead[(x.inlabel[lv]&x.masks[k+1])|x.shifts[k]]
	if head == 0 {
		panic(fmt.Sprintf("stitcher: missing run head for label %d", lv))
	}
	return x.tree.nodes[x.tree.NodeByLabel(head)].parent
}

// LongestCommonExtension returns the length of the longest common prefix of the suffixes starting at a and b.
func (x *LCAIndex) LongestCommonExtension(a, b int) int {
	t := x.tree
	return t.nodes[x.LCA(t.leaves[a], t.leaves[b])].depth
}
