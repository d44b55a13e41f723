package pairs

import (
	"errors"
	"fmt"
	"io"
	"strings"

	stitcher "github.com/tfwillems/read-stitcher"
)

var ErrUnsorted = errors.New("pairs: input must be sorted by read identifier")

// Source yields reads until it returns io.EOF.
type Source interface {
	Next() (stitcher.Read, error)
}

type jobKind int

const (
	mates jobKind = iota
	onlyFirst
	onlySecond
)

type job struct {
	kind   jobKind
	r1, r2 stitcher.Read
}

// joiner walks two sorted sources in step and pairs reads with equal identifiers.
type joiner struct {
	src  [2]Source
	cur  [2]stitcher.Read
	ok   [2]bool
	prev [2]string
	seen [2]bool
}

func newJoiner(in1, in2 Source) (*joiner, error) {
	j := &joiner{src: [2]Source{in1, in2}}
	for side := range j.src {
		if err := j.advance(side); err != nil {
			return nil, err
		}
	}
	return j, nil
}

func (j *joiner) advance(side int) error {
	r, err := j.src[side].Next()
	if err == io.EOF {
		j.ok[side] = false
		return nil
	}
	if err != nil {
		return err
	}
	if j.seen[side] && r.ID <= j.prev[side] {
		return fmt.Errorf("%w: input %d has %q after %q", ErrUnsorted, side+1, r.ID, j.prev[side])
	}
	j.cur[side], j.ok[side] = r, true
	j.prev[side], j.seen[side] = r.ID, true
	return nil
}

// next returns the next job in identifier order, or false when both sources are exhausted.
func (j *joiner) next() (job, bool, error) {
	var (
		jb    job
		sides []int
	)
	switch {
	case j.ok[0] && j.ok[1]:
		switch c := strings.Compare(j.cur[0].ID, j.cur[1].ID); {
		case c == 0:
			jb, sides = job{kind: mates, r1: j.cur[0], r2: j.cur[1]}, []int{0, 1}
		case c < 0:
			jb, sides = job{kind: onlyFirst, r1: j.cur[0]}, []int{0}
		default:
			jb, sides = job{kind: onlySecond, r2: j.cur[1]}, []int{1}
		}
	case j.ok[0]:
		jb, sides = job{kind: onlyFirst, r1: j.cur[0]}, []int{0}
	case j.ok[1]:
		jb, sides = job{kind: onlySecond, r2: j.cur[1]}, []int{1}
	default:
		return job{}, false, nil
	}
	for _, side := range sides {
		if err := j.advance(side); err != nil {
			return job{}, false, err
		}
	}
	return jb, true, nil
}
