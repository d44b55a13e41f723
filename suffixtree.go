package stitcher

import (
	"fmt"
	"strings"
)

// Node is a handle to a node of a SuffixTree. Handles index the tree's node arena and stay valid for the
// lifetime of the tree.
type Node int

// NoNode is returned where a relation does not exist, e.g. the parent of the root.
const NoNode Node = -1

const root Node = 0

// openEnd marks an edge whose end is the tree's shared end. Every leaf edge is open until the tree is built.
const openEnd = -1

type treeNode struct {
	// The edge entering this node spans text[start..end], both inclusive.
	start, end int
	parent     Node
	link       Node
	// children[c] is the child whose edge starts with symbol c. 0 means none, the root is never a child.
	children [alphabetSize]Node

	depth       int
	label       int
	descendants int
}

// SuffixTree is the compressed trie of all suffixes of a text terminated by Terminator. It is built online in
// a single left-to-right pass and labeled in preorder afterwards.
type SuffixTree struct {
	text  []byte // symbol codes, terminator included
	nodes []treeNode
	// end is shared by every open edge; advancing it extends all current leaves at once.
	end int

	byLabel []Node // byLabel[l-1] is the node labeled l
	leaves  []Node // leaves[i] is the leaf of the suffix starting at i
}

// BuildSuffixTree builds the suffix tree of text followed by Terminator. The text may hold A, C, G, T and
// Separator.
func BuildSuffixTree(text []byte) (*SuffixTree, error) {
	codes, err := encodeText(text)
	if err != nil {
		return nil, err
	}

	t := &SuffixTree{
		text: codes,
		// n leaves, at most n-1 internal nodes and the root.
		nodes: make([]treeNode, 0, 2*len(codes)),
	}
	t.build()
	t.label()
	return t, nil
}

func (t *SuffixTree) newNode(parent Node, start, end int) Node {
	t.nodes = append(t.nodes, treeNode{start: start, end: end, parent: parent, link: root})
	return Node(len(t.nodes) - 1)
}

func (t *SuffixTree) edgeEnd(v Node) int {
	if e := t.nodes[v].end; e != openEnd {
		return e
	}
	return t.end
}

func (t *SuffixTree) edgeLength(v Node) int {
	return t.edgeEnd(v) - t.nodes[v].start + 1
}

// build runs Ukkonen's construction. The active point (activeNode, activeEdge, activeLen) is where the next
// extension happens; remainder counts the suffixes of the current prefix not yet explicit in the tree.
func (t *SuffixTree) build() {
	t.newNode(NoNode, -1, -1)

	activeNode, activeEdge, activeLen := root, 0, 0
	remainder := 0
	for i, c := range t.text {
		t.end = i
		remainder++
		pendingLink := NoNode

		for remainder > 0 {
			if activeLen == 0 {
				activeEdge = i
			}
			next := t.nodes[activeNode].children[t.text[activeEdge]]
			if next == 0 {
				leaf := t.newNode(activeNode, i, openEnd)
				t.nodes[activeNode].children[c] = leaf
				if pendingLink != NoNode {
					t.nodes[pendingLink].link = activeNode
					pendingLink = NoNode
				}
			} else {
				if l := t.edgeLength(next); activeLen >= l {
					activeEdge += l
					activeLen -= l
					activeNode = next
					continue
				}
				if t.text[t.nodes[next].start+activeLen] == c {
					// The suffix is already present; so are all shorter ones.
					if pendingLink != NoNode && activeNode != root {
						t.nodes[pendingLink].link = activeNode
						pendingLink = NoNode
					}
					activeLen++
					break
				}

				// Split: the upper part of the edge is frozen, the lower part keeps next's end (open for a leaf).
				start := t.nodes[next].start
				split := t.newNode(activeNode, start, start+activeLen-1)
				t.nodes[activeNode].children[t.text[activeEdge]] = split
				t.nodes[next].start = start + activeLen
				t.nodes[next].parent = split
				t.nodes[split].children[t.text[start+activeLen]] = next
				leaf := t.newNode(split, i, openEnd)
				t.nodes[split].children[c] = leaf

				if pendingLink != NoNode {
					t.nodes[pendingLink].link = split
				}
				pendingLink = split
			}

			remainder--
			if activeNode == root && activeLen > 0 {
				activeLen--
				activeEdge = i - remainder + 1
			} else if activeNode != root {
				activeNode = t.nodes[activeNode].link
			}
		}
	}
}

// label assigns preorder labels, depths and descendant counts, and fills the leaf table.
func (t *SuffixTree) label() {
	n := len(t.text)
	t.byLabel = make([]Node, 0, len(t.nodes))
	t.leaves = make([]Node, n)

	stack := []Node{root}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		nd := &t.nodes[v]
		if v != root {
			nd.depth = t.nodes[nd.parent].depth + t.edgeLength(v)
		}
		t.byLabel = append(t.byLabel, v)
		nd.label = len(t.byLabel)

		leaf := true
		for c := alphabetSize - 1; c >= 0; c-- {
			if child := nd.children[c]; child != 0 {
				stack = append(stack, child)
				leaf = false
			}
		}
		if leaf {
			t.leaves[n-nd.depth] = v
		}
	}

	for l := len(t.byLabel) - 1; l > 0; l-- {
		v := t.byLabel[l]
		t.nodes[t.nodes[v].parent].descendants += t.nodes[v].descendants + 1
	}
}

// Len returns the length of the indexed text, terminator included.
func (t *SuffixTree) Len() int { return len(t.text) }

// NodeCount returns the number of nodes, root and leaves included.
func (t *SuffixTree) NodeCount() int { return len(t.nodes) }

// LeafCount returns the number of leaves, one per suffix.
func (t *SuffixTree) LeafCount() int { return len(t.leaves) }

func (t *SuffixTree) Root() Node { return root }

// Leaf returns the leaf of the suffix starting at position i of the text.
func (t *SuffixTree) Leaf(i int) Node { return t.leaves[i] }

func (t *SuffixTree) Parent(v Node) Node { return t.nodes[v].parent }

// SuffixLink returns the node for the path label of v without its first symbol. It is only meaningful for
// internal nodes; leaves and the root link to the root.
func (t *SuffixTree) SuffixLink(v Node) Node { return t.nodes[v].link }

// Depth returns the length of the path label of v.
func (t *SuffixTree) Depth(v Node) int { return t.nodes[v].depth }

// Label returns the preorder label of v, in [1, NodeCount()].
func (t *SuffixTree) Label(v Node) int { return t.nodes[v].label }

// Descendants returns the size of the subtree of v, v excluded. The subtree occupies the label interval
// [Label(v), Label(v)+Descendants(v)].
func (t *SuffixTree) Descendants(v Node) int { return t.nodes[v].descendants }

// NodeByLabel returns the node with preorder label l.
func (t *SuffixTree) NodeByLabel(l int) Node { return t.byLabel[l-1] }

func (t *SuffixTree) IsLeaf(v Node) bool { return t.nodes[v].descendants == 0 && v != root }

// Children returns the children of v in symbol order.
func (t *SuffixTree) Children(v Node) []Node {
	var out []Node
	for _, child := range t.nodes[v].children {
		if child != 0 {
			out = append(out, child)
		}
	}
	return out
}

// EdgeLabel returns the symbols on the edge entering v.
func (t *SuffixTree) EdgeLabel(v Node) string {
	if v == root {
		return ""
	}
	return t.decode(t.nodes[v].start, t.edgeEnd(v)+1)
}

// PathLabel returns the symbols on the path from the root to v.
func (t *SuffixTree) PathLabel(v Node) string {
	if v == root {
		return ""
	}
	end := t.edgeEnd(v) + 1
	return t.decode(end-t.nodes[v].depth, end)
}

func (t *SuffixTree) decode(from, to int) string {
	var b strings.Builder
	b.Grow(to - from)
	for _, c := range t.text[from:to] {
		b.WriteByte(symbolChars[c])
	}
	return b.String()
}

func (t *SuffixTree) String() string {
	var b strings.Builder
	t.print(&b, root, 0)
	return b.String()
}

func (t *SuffixTree) print(b *strings.Builder, v Node, indent int) {
	for _, child := range t.Children(v) {
		fmt.Fprintf(b, "%s* %s (label %d, depth %d)\n", strings.Repeat("  ", indent), t.EdgeLabel(child),
			t.Label(child), t.Depth(child))
		t.print(b, child, indent+1)
	}
}
