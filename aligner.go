package stitcher

import (
	"fmt"
)

// Config holds the aligner parameters.
type Config struct {
	// MaxReadLen bounds the length of either read and sizes the extension index.
	MaxReadLen int
	// MaxMismatches is the largest number of mismatching bases an overlap may contain.
	MaxMismatches int
	// MinOverlap is the smallest number of overlapping bases considered.
	MinOverlap int
	// MinFracCorrect is a strict lower bound on the fraction of matching bases in an overlap.
	MinFracCorrect float64
	Backend        Backend
}

func DefaultConfig() Config {
	return Config{
		MaxReadLen:     100,
		MaxMismatches:  10,
		MinOverlap:     10,
		MinFracCorrect: 0.9,
		Backend:        BackendSuffixTree,
	}
}

func (c Config) Validate() error {
	switch {
	case c.MaxReadLen < 1:
		return fmt.Errorf("%w: max read length %d", ErrInvalidConfig, c.MaxReadLen)
	case c.MaxMismatches < 0:
		return fmt.Errorf("%w: max mismatches %d", ErrInvalidConfig, c.MaxMismatches)
	case c.MinOverlap < 1:
		return fmt.Errorf("%w: min overlap %d", ErrInvalidConfig, c.MinOverlap)
	case c.MinFracCorrect < 0 || c.MinFracCorrect >= 1:
		return fmt.Errorf("%w: min fraction correct %g not in [0, 1)", ErrInvalidConfig, c.MinFracCorrect)
	case c.Backend != BackendSuffixTree && c.Backend != BackendSuffixArray:
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.Backend)
	}
	return nil
}

type AlignerBuilder struct {
	cfg Config
}

// NewBuilder starts an aligner for reads of at most maxReadLen bases, with the remaining parameters at their
// defaults.
func NewBuilder(maxReadLen int) *AlignerBuilder {
	cfg := DefaultConfig()
	cfg.MaxReadLen = maxReadLen
	return &AlignerBuilder{cfg: cfg}
}

func (b *AlignerBuilder) MaxMismatches(k int) *AlignerBuilder {
	b.cfg.MaxMismatches = k
	return b
}

func (b *AlignerBuilder) MinOverlap(n int) *AlignerBuilder {
	b.cfg.MinOverlap = n
	return b
}

func (b *AlignerBuilder) MinFracCorrect(f float64) *AlignerBuilder {
	b.cfg.MinFracCorrect = f
	return b
}

// UseSuffixArray answers extension queries from a suffix array with an LCP range-minimum structure instead
// of a suffix tree with an LCA index. Results are identical.
func (b *AlignerBuilder) UseSuffixArray() *AlignerBuilder {
	b.cfg.Backend = BackendSuffixArray
	return b
}

func (b *AlignerBuilder) Backend(backend Backend) *AlignerBuilder {
	b.cfg.Backend = backend
	return b
}

func (b *AlignerBuilder) Build() (*Aligner, error) {
	return NewAligner(b.cfg)
}

// Overlap places the start of the second read at Offset in the first read.
type Overlap struct {
	Offset     int
	Length     int
	Mismatches int
}

func (o Overlap) Matches() int { return o.Length - o.Mismatches }

func (o Overlap) Fraction() float64 {
	return float64(o.Matches()) / float64(o.Length)
}

// Aligner finds the best k-mismatch overlap between the tail of one read and the head of another. It reuses
// one extension index across calls and is not safe for concurrent use; give each goroutine its own Aligner.
type Aligner struct {
	cfg  Config
	ext  extender
	text []byte
}

func NewAligner(cfg Config) (*Aligner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Aligner{
		cfg:  cfg,
		ext:  newExtender(cfg.Backend, cfg.MaxReadLen),
		text: make([]byte, 0, 2*cfg.MaxReadLen+1),
	}, nil
}

func (a *Aligner) Config() Config { return a.cfg }

// FindOverlap scans the offsets of s2 within s1 from left to right and returns the first one with the highest
// fraction of matching bases. An offset qualifies when the walk reaches the end of s1, or the end of s2 for a
// contained read, with at most MaxMismatches mismatches and a match fraction above MinFracCorrect.
//
// Reads that are empty or shorter than MinOverlap have no overlap. Reads holding anything but A, C, G and T
// return ErrAlphabet; reads too long for the configured MaxReadLen return ErrCapacity.
func (a *Aligner) FindOverlap(s1, s2 string) (Overlap, bool, error) {
	if len(s1) == 0 || len(s2) == 0 || len(s1) < a.cfg.MinOverlap || len(s2) < a.cfg.MinOverlap {
		return Overlap{}, false, nil
	}
	if len(s1) > a.cfg.MaxReadLen || len(s2) > a.cfg.MaxReadLen {
		return Overlap{}, false, fmt.Errorf("%w: reads of %d and %d bases, max read length %d",
			ErrCapacity, len(s1), len(s2), a.cfg.MaxReadLen)
	}
	if err := validateBases(s1); err != nil {
		return Overlap{}, false, fmt.Errorf("first read: %w", err)
	}
	if err := validateBases(s2); err != nil {
		return Overlap{}, false, fmt.Errorf("second read: %w", err)
	}

	a.text = append(a.text[:0], s1...)
	a.text = append(a.text, Separator)
	a.text = append(a.text, s2...)
	if err := a.ext.index(a.text); err != nil {
		return Overlap{}, false, err
	}

	var (
		best     Overlap
		bestFrac float64
		found    bool
	)
	for i := 0; i <= len(s1)-a.cfg.MinOverlap; i++ {
		o, ok := a.overlapAt(i, len(s1), len(s2))
		if !ok {
			continue
		}
		frac := o.Fraction()
		if frac <= a.cfg.MinFracCorrect {
			continue
		}
		if !found || frac > bestFrac {
			best, bestFrac, found = o, frac, true
		}
		if o.Mismatches == 0 {
			// Nothing to the right can beat a perfect match.
			break
		}
	}
	return best, found, nil
}

// overlapAt walks s1 from offset i against s2 from its start, one extension query per matching run.
func (a *Aligner) overlapAt(i, n1, n2 int) (Overlap, bool) {
	start2 := n1 + 1
	end2 := start2 + n2
	p1, p2 := i, start2
	mismatches := 0
	for {
		run := a.ext.extend(p1, p2)
		p1 += run
		p2 += run
		if p1 == n1 || p2 == end2 {
			break
		}
		mismatches++
		if mismatches > a.cfg.MaxMismatches {
			return Overlap{}, false
		}
		p1++
		p2++
		if p1 == n1 || p2 == end2 {
			break
		}
	}
	return Overlap{Offset: i, Length: p2 - start2, Mismatches: mismatches}, true
}
