package stitcher

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
)

func randomText(r *rand.Rand, n int, alphabet string) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(b)
}

func mustBuild(t *testing.T, text string) *SuffixTree {
	t.Helper()
	tree, err := BuildSuffixTree([]byte(text))
	if err != nil {
		t.Fatalf("BuildSuffixTree(%q): %v", text, err)
	}
	return tree
}

// checkTree verifies the structural invariants of a built tree against the text it indexes.
func checkTree(t *testing.T, text string, tree *SuffixTree) {
	t.Helper()
	full := text + string(Terminator)

	if got, want := tree.LeafCount(), len(full); got != want {
		t.Fatalf("%q: %d leaves, want %d", text, got, want)
	}
	for i := range full {
		leaf := tree.Leaf(i)
		if !tree.IsLeaf(leaf) {
			t.Fatalf("%q: Leaf(%d) is not a leaf", text, i)
		}
		if got := tree.PathLabel(leaf); got != full[i:] {
			t.Fatalf("%q: leaf %d spells %q, want %q", text, i, got, full[i:])
		}
	}

	leaves := 0
	for l := 1; l <= tree.NodeCount(); l++ {
		v := tree.NodeByLabel(l)
		if tree.Label(v) != l {
			t.Fatalf("%q: NodeByLabel(%d) has label %d", text, l, tree.Label(v))
		}
		children := tree.Children(v)
		if len(children) == 0 {
			leaves++
			continue
		}
		if v != tree.Root() && len(children) < 2 {
			t.Fatalf("%q: internal node %q has %d children", text, tree.PathLabel(v), len(children))
		}
		// Children tile the label interval of their parent.
		next := l + 1
		for _, c := range children {
			if tree.Parent(c) != v {
				t.Fatalf("%q: parent of %q is wrong", text, tree.PathLabel(c))
			}
			if tree.Label(c) != next {
				t.Fatalf("%q: child %q has label %d, want %d", text, tree.PathLabel(c), tree.Label(c), next)
			}
			if tree.Depth(c) != tree.Depth(v)+len(tree.EdgeLabel(c)) {
				t.Fatalf("%q: depth of %q is %d", text, tree.PathLabel(c), tree.Depth(c))
			}
			next += tree.Descendants(c) + 1
		}
		if next != l+tree.Descendants(v)+1 {
			t.Fatalf("%q: subtree of %q ends at %d, want %d", text, tree.PathLabel(v), next-1, l+tree.Descendants(v))
		}
	}
	if leaves != len(full) {
		t.Fatalf("%q: %d childless nodes, want %d", text, leaves, len(full))
	}

	for l := 2; l <= tree.NodeCount(); l++ {
		v := tree.NodeByLabel(l)
		if tree.IsLeaf(v) {
			continue
		}
		path := tree.PathLabel(v)
		if got := tree.PathLabel(tree.SuffixLink(v)); got != path[1:] {
			t.Fatalf("%q: suffix link of %q points to %q", text, path, got)
		}
	}
}

func TestBuildSuffixTreeFixture(t *testing.T) {
	// Same shape as BANANA: C->B, A->A, G->N.
	tree := mustBuild(t, "CAGAGA")
	checkTree(t, "CAGAGA", tree)

	if got := tree.LeafCount(); got != 7 {
		t.Errorf("leaves: got %d, want 7", got)
	}
	internal := tree.NodeCount() - tree.LeafCount()
	if internal != 4 {
		t.Errorf("internal nodes (root included): got %d, want 4\n%s", internal, tree)
	}

	var paths []string
	for l := 1; l <= tree.NodeCount(); l++ {
		if v := tree.NodeByLabel(l); !tree.IsLeaf(v) && v != tree.Root() {
			paths = append(paths, tree.PathLabel(v))
		}
	}
	if got, want := strings.Join(paths, ","), "A,AGA,GA"; got != want {
		t.Errorf("internal path labels in preorder: got %s, want %s", got, want)
	}
}

func TestBuildSuffixTreeShapes(t *testing.T) {
	texts := []string{
		"A",
		"AAAAAAAA",
		"ACGT",
		"ACACACAC",
		"GATTACA",
		"ACGTACGTAA#GTAAGGCTTT",
		"AAAA#AAAA",
		"#",
		"##A##",
		"TTTTTTTTTTGGGGGGGGGGCCCCCCCCCCAAAAAAAAAA",
	}
	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			checkTree(t, text, mustBuild(t, text))
		})
	}
}

func TestBuildSuffixTreeRandom(t *testing.T) {
	r := rand.New(rand.NewSource(1187238845))
	for i := 0; i < 300; i++ {
		alphabet := "ACGT"
		if i%3 == 0 {
			alphabet = "AC"
		}
		if i%5 == 0 {
			alphabet += "#"
		}
		text := randomText(r, 1+r.Intn(60), alphabet)
		checkTree(t, text, mustBuild(t, text))
	}
}

func TestBuildSuffixTreeErrors(t *testing.T) {
	if _, err := BuildSuffixTree(nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("empty text: got %v, want ErrEmptyInput", err)
	}
	for _, text := range []string{"ACGN", "acgt", "AC$GT", "AC GT"} {
		if _, err := BuildSuffixTree([]byte(text)); !errors.Is(err, ErrAlphabet) {
			t.Errorf("%q: got %v, want ErrAlphabet", text, err)
		}
	}
}

func FuzzBuildSuffixTree(f *testing.F) {
	f.Add([]byte("CAGAGA"))
	f.Add([]byte("ACGTACGTAA#GTAAGGCTTT"))
	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) == 0 || len(data) > 200 {
			return
		}
		text := make([]byte, len(data))
		for i, c := range data {
			text[i] = "ACGT#"[int(c)%5]
		}
		checkTree(t, string(text), mustBuild(t, string(text)))
	})
}
