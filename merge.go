package stitcher

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// QualityStats counts, for every overlapping position of a merge, the lower of the two quality characters,
// split by whether the two reads agreed on the base. The counts live in a prometheus counter vector on a
// registry owned by the value, so workers may share one. The zero value is ready to use.
type QualityStats struct {
	once     sync.Once
	registry *prometheus.Registry
	overlaps *prometheus.CounterVec
}

const overlapMetric = "stitcher_overlap_bases_total"

func NewQualityStats() *QualityStats {
	s := new(QualityStats)
	s.init()
	return s
}

func (s *QualityStats) init() {
	s.once.Do(func() {
		s.registry = prometheus.NewRegistry()
		s.overlaps = promauto.With(s.registry).NewCounterVec(prometheus.CounterOpts{
			Name: overlapMetric,
			Help: "Overlapping bases of merged reads by lower quality character and base agreement",
		}, []string{"qual", "agree"})
	})
}

// Registry exposes the counters, e.g. for a metrics endpoint.
func (s *QualityStats) Registry() *prometheus.Registry {
	s.init()
	return s.registry
}

func (s *QualityStats) observe(b1, b2, q1, q2 byte) {
	s.init()
	s.overlaps.WithLabelValues(strconv.Itoa(int(min(q1, q2))), strconv.FormatBool(b1 == b2)).Inc()
}

// counts gathers the registry into matched [0] and mismatched [1] totals per quality character.
func (s *QualityStats) counts() (map[byte][2]int64, error) {
	s.init()
	families, err := s.registry.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[byte][2]int64)
	for _, mf := range families {
		if mf.GetName() != overlapMetric {
			continue
		}
		for _, m := range mf.GetMetric() {
			var (
				q     = -1
				agree bool
			)
			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "qual":
					q, err = strconv.Atoi(lp.GetValue())
				case "agree":
					agree, err = strconv.ParseBool(lp.GetValue())
				}
				if err != nil {
					return nil, fmt.Errorf("stitcher: bad label %s=%q: %w", lp.GetName(), lp.GetValue(), err)
				}
			}
			if q < 0 || q > 255 {
				return nil, fmt.Errorf("stitcher: overlap sample without a quality label")
			}
			c := out[byte(q)]
			if agree {
				c[0] += int64(m.GetCounter().GetValue())
			} else {
				c[1] += int64(m.GetCounter().GetValue())
			}
			out[byte(q)] = c
		}
	}
	return out, nil
}

// Matched returns how many agreeing positions had q as their lower quality.
func (s *QualityStats) Matched(q byte) int64 {
	c, err := s.counts()
	if err != nil {
		panic(err)
	}
	return c[q][0]
}

// Mismatched returns how many disagreeing positions had q as their lower quality.
func (s *QualityStats) Mismatched(q byte) int64 {
	c, err := s.counts()
	if err != nil {
		panic(err)
	}
	return c[q][1]
}

// Add folds the counts of other into s.
func (s *QualityStats) Add(other *QualityStats) error {
	s.init()
	c, err := other.counts()
	if err != nil {
		return err
	}
	for q, n := range c {
		label := strconv.Itoa(int(q))
		if n[0] > 0 {
			s.overlaps.WithLabelValues(label, "true").Add(float64(n[0]))
		}
		if n[1] > 0 {
			s.overlaps.WithLabelValues(label, "false").Add(float64(n[1]))
		}
	}
	return nil
}

// WriteTo writes one tab-separated line per quality character seen: the character, its Phred+33 score and the
// matched and mismatched counts.
func (s *QualityStats) WriteTo(w io.Writer) (int64, error) {
	c, err := s.counts()
	if err != nil {
		return 0, err
	}
	quals := make([]int, 0, len(c))
	for q, n := range c {
		if n[0] > 0 || n[1] > 0 {
			quals = append(quals, int(q))
		}
	}
	slices.Sort(quals)

	var b strings.Builder
	b.WriteString("QUAL\tPHRED\tMATCHED\tMISMATCHED\n")
	for _, q := range quals {
		n := c[byte(q)]
		fmt.Fprintf(&b, "%c\t%d\t%d\t%d\n", byte(q), q-33, n[0], n[1])
	}
	nw, err := io.WriteString(w, b.String())
	return int64(nw), err
}

// Merger builds consensus reads and records the qualities of the overlapping bases in Stats, when set.
type Merger struct {
	Stats *QualityStats
}

func NewMerger(stats *QualityStats) *Merger {
	return &Merger{Stats: stats}
}

// Merge combines two reads of the same fragment when r2 starts at offset in r1: the unique prefix of r1, then
// for every overlapping position the base with the higher quality (r1 on ties), then whichever read extends
// past the overlap. The result carries r1's identifier.
func Merge(r1, r2 Read, offset int) (Read, error) {
	return (&Merger{}).Merge(r1, r2, offset)
}

func (m *Merger) Merge(r1, r2 Read, offset int) (Read, error) {
	if len(r1.Seq) != len(r1.Qual) || len(r2.Seq) != len(r2.Qual) {
		return Read{}, ErrQualityLength
	}
	if offset < 0 || offset > len(r1.Seq) {
		return Read{}, fmt.Errorf("%w: offset %d for a read of length %d", ErrOffset, offset, len(r1.Seq))
	}

	s1, q1 := r1.Seq[offset:], r1.Qual[offset:]
	s2, q2 := r2.Seq, r2.Qual
	overlap := min(len(s1), len(s2))

	total := offset + max(len(s1), len(s2))
	seq := make([]byte, 0, total)
	qual := make([]byte, 0, total)
	seq = append(seq, r1.Seq[:offset]...)
	qual = append(qual, r1.Qual[:offset]...)

	for i := 0; i < overlap; i++ {
		if m.Stats != nil {
			m.Stats.observe(s1[i], s2[i], q1[i], q2[i])
		}
		if q1[i] >= q2[i] {
			seq = append(seq, s1[i])
			qual = append(qual, q1[i])
		} else {
			seq = append(seq, s2[i])
			qual = append(qual, q2[i])
		}
	}

	if overlap < len(s1) {
		seq = append(seq, s1[overlap:]...)
		qual = append(qual, q1[overlap:]...)
	} else {
		seq = append(seq, s2[overlap:]...)
		qual = append(qual, q2[overlap:]...)
	}
	return Read{ID: r1.ID, Seq: string(seq), Qual: string(qual)}, nil
}
