package stitcher

import (
	"fmt"
	"strings"
)

// Read is one sequencing read with its per-base quality string.
type Read struct {
	ID   string
	Seq  string
	Qual string
}

func NewRead(id, seq, qual string) (Read, error) {
	if len(seq) != len(qual) {
		return Read{}, fmt.Errorf("%w: read %q has %d bases and %d qualities", ErrQualityLength, id, len(seq), len(qual))
	}
	return Read{ID: id, Seq: seq, Qual: qual}, nil
}

func (r Read) Len() int { return len(r.Seq) }

func (r Read) Empty() bool { return len(r.Seq) == 0 }

func (r Read) slice(from, to int) Read {
	if from >= to {
		return Read{ID: r.ID}
	}
	return Read{ID: r.ID, Seq: r.Seq[from:to], Qual: r.Qual[from:to]}
}

// TrimNTails drops leading and trailing N bases.
func (r Read) TrimNTails() Read {
	start, end := 0, len(r.Seq)
	for start < end && r.Seq[start] == 'N' {
		start++
	}
	for end > start && r.Seq[end-1] == 'N' {
		end--
	}
	return r.slice(start, end)
}

// TrimLowQualityEnds drops leading and trailing bases whose quality character is below minQual.
func (r Read) TrimLowQualityEnds(minQual byte) Read {
	start, end := 0, len(r.Qual)
	for start < end && r.Qual[start] < minQual {
		start++
	}
	for end > start && r.Qual[end-1] < minQual {
		end--
	}
	return r.slice(start, end)
}

var complement = [256]byte{'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'N': 'N'}

// ReverseComplement reverse-complements the sequence and reverses the qualities. Only A, C, G, T and N are
// accepted.
func (r Read) ReverseComplement() (Read, error) {
	n := len(r.Seq)
	var seq, qual strings.Builder
	seq.Grow(n)
	qual.Grow(n)
	for i := n - 1; i >= 0; i-- {
		c := complement[r.Seq[i]]
		if c == 0 {
			return Read{}, alphabetError(r.Seq[i], i)
		}
		seq.WriteByte(c)
		qual.WriteByte(r.Qual[i])
	}
	return Read{ID: r.ID, Seq: seq.String(), Qual: qual.String()}, nil
}
