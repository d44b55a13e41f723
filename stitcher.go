package stitcher

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput    = errors.New("stitcher: empty input text")
	ErrAlphabet      = errors.New("stitcher: symbol outside the nucleotide alphabet")
	ErrCapacity      = errors.New("stitcher: input exceeds index capacity")
	ErrInvalidConfig = errors.New("stitcher: invalid aligner configuration")
	ErrQualityLength = errors.New("stitcher: sequence and quality lengths differ")
	ErrOffset        = errors.New("stitcher: merge offset out of range")
)

const (
	// Separator joins the two reads of a generalized text.
	Separator = '#'
	// Terminator is appended to every text before the tree is built. It must not occur in the input.
	Terminator = '$'
)

// Symbol codes. Their order is the child order of every node and therefore fixes the preorder labels.
const (
	symA = iota
	symC
	symG
	symT
	symEnd
	symSep
	alphabetSize
)

var symbolCodes = func() [256]int8 {
	var codes [256]int8
	for i := range codes {
		codes[i] = -1
	}
	codes['A'] = symA
	codes['C'] = symC
	codes['G'] = symG
	codes['T'] = symT
	codes[Terminator] = symEnd
	codes[Separator] = symSep
	return codes
}()

var symbolChars = [alphabetSize]byte{'A', 'C', 'G', 'T', Terminator, Separator}

func alphabetError(c byte, pos int) error {
	return fmt.Errorf("%w: %q at position %d", ErrAlphabet, c, pos)
}

// encodeText maps text to symbol codes and appends the terminator.
func encodeText(text []byte) ([]byte, error) {
	if len(text) == 0 {
		return nil, ErrEmptyInput
	}
	codes := make([]byte, len(text)+1)
	for i, c := range text {
		code := symbolCodes[c]
		if code < 0 || code == symEnd {
			return nil, alphabetError(c, i)
		}
		codes[i] = byte(code)
	}
	codes[len(text)] = symEnd
	return codes, nil
}

// validateBases checks that seq holds only A, C, G and T.
func validateBases(seq string) error {
	for i := 0; i < len(seq); i++ {
		if code := symbolCodes[seq[i]]; code < 0 || code > symT {
			return alphabetError(seq[i], i)
		}
	}
	return nil
}
