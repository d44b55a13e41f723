package stitcher

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/viniciusth/rmq"
)

// Backend selects the structure answering longest-common-extension queries for the aligner.
type Backend int

const (
	// BackendSuffixTree builds a suffix tree per read pair and answers queries with an LCAIndex.
	BackendSuffixTree Backend = iota
	// BackendSuffixArray builds a suffix array and LCP array per read pair and answers queries with range
	// minimum queries over the LCP array.
	BackendSuffixArray
)

func (b Backend) String() string {
	switch b {
	case BackendSuffixTree:
		return "tree"
	case BackendSuffixArray:
		return "array"
	default:
		return fmt.Sprintf("Backend(%d)", int(b))
	}
}

// ParseBackend maps "tree" or "array" to its Backend.
func ParseBackend(s string) (Backend, error) {
	switch s {
	case "tree":
		return BackendSuffixTree, nil
	case "array":
		return BackendSuffixArray, nil
	}
	return 0, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, s)
}

// extender indexes one generalized text at a time and answers longest-common-extension queries on it.
type extender interface {
	index(text []byte) error
	extend(a, b int) int
}

func newExtender(b Backend, maxReadLen int) extender {
	if b == BackendSuffixArray {
		return &arrayExtender{maxLen: 2*maxReadLen + 2}
	}
	return &treeExtender{lca: NewLCAIndex(MaxNodesFor(maxReadLen))}
}

type treeExtender struct {
	lca *LCAIndex
}

func (e *treeExtender) index(text []byte) error {
	tree, err := BuildSuffixTree(text)
	if err != nil {
		return err
	}
	return e.lca.Preprocess(tree)
}

func (e *treeExtender) extend(a, b int) int {
	return e.lca.LongestCommonExtension(a, b)
}

type arrayExtender struct {
	maxLen int
	text   []byte
	rank   []int
	lcp    []int
	lcpRMQ *rmq.RMQHybridNaive[int]
}

func (e *arrayExtender) index(text []byte) error {
	codes, err := encodeText(text)
	if err != nil {
		return err
	}
	if len(codes) > e.maxLen {
		return fmt.Errorf("%w: %d symbols, capacity %d", ErrCapacity, len(codes), e.maxLen)
	}

	suffixArray := BuildSuffixArray(codes)
	e.text = codes
	e.rank = make([]int, len(suffixArray))
	for i, s := range suffixArray {
		e.rank[s] = i
	}
	e.lcp = BuildLCPArray(suffixArray, codes)
	e.lcpRMQ = nil
	if len(e.lcp) > 0 {
		e.lcpRMQ = rmq.NewRMQHybridNaive(e.lcp)
	}
	return nil
}

func (e *arrayExtender) extend(a, b int) int {
	if a == b {
		return len(e.text) - a
	}
	ra, rb := e.rank[a], e.rank[b]
	if ra > rb {
		ra, rb = rb, ra
	}
	return e.lcp[e.lcpRMQ.Query(ra, rb-1)]
}

// BuildSuffixArray sorts the suffixes of text. Reads are short, so a comparison sort is enough.
func BuildSuffixArray(text []byte) []int {
	suffixArray := make([]int, len(text))
	for i := range suffixArray {
		suffixArray[i] = i
	}
	slices.SortFunc(suffixArray, func(a, b int) int {
		return bytes.Compare(text[a:], text[b:])
	})
	return suffixArray
}

// Kasai's algorithm for building the LCP array in O(n) time.
// lcp[i] is the length of the common prefix of the suffixes at suffixArray[i] and suffixArray[i+1].
func BuildLCPArray(suffixArray []int, text []byte) []int {
	rank := make([]int, len(suffixArray))
	for i := range suffixArray {
		rank[suffixArray[i]] = i
	}

	lcp := make([]int, max(len(suffixArray)-1, 0))
	l := 0
	for i := range suffixArray {
		if rank[i]+1 == len(suffixArray) {
			l = 0
			continue
		}
		j := suffixArray[rank[i]+1]
		for i+l < len(text) && j+l < len(text) && text[i+l] == text[j+l] {
			l++
		}
		lcp[rank[i]] = l
		if l > 0 {
			l--
		}
	}

	return lcp
}
