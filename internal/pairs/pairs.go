package pairs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	stitcher "github.com/tfwillems/read-stitcher"
)

// Sink receives reads in input order.
type Sink interface {
	Write(stitcher.Read) error
}

// Sinks are the three outputs of a run.
type Sinks struct {
	Unstitched1 Sink
	Unstitched2 Sink
	Stitched    Sink
}

// Config controls a run.
type Config struct {
	Threads   int // worker goroutines, each with its own aligner (>=1)
	BatchSize int // jobs aligned concurrently before writing; defaults to 256 per thread
	// TrySwap retries a pair that does not overlap with the second read upstream of the first.
	TrySwap bool
	TrimN   bool // drop leading and trailing N bases before aligning
	MinQual byte // trim ends with quality characters below MinQual before aligning; 0 disables

	Show  io.Writer // when set, each stitched pair is drawn here
	Warn  io.Writer // per-pair warnings
	Quiet bool
}

// Stats counts what a run did with its input.
type Stats struct {
	Pairs        int // mates found in both inputs
	Stitched     int
	Swapped      int // stitched with the second read upstream
	Unstitched   int // pairs written to the unstitched outputs, for any reason
	Invalid      int // pairs holding symbols other than A, C, G and T
	OverCapacity int // pairs longer than the aligner was sized for
	Unpaired1    int
	Unpaired2    int
}

type outcome int

const (
	noOverlap outcome = iota
	stitched
	swapped
	invalid
	overCapacity
)

type result struct {
	outcome outcome
	merged  stitcher.Read
	overlap stitcher.Overlap
	// upstream and downstream are the aligned sequences after trimming, in stitching order.
	upstream, downstream string
	err                  error
}

type worker struct {
	cfg     Config
	aligner *stitcher.Aligner
	merger  *stitcher.Merger
}

// Run stitches the mates of in1 and in2 into out. newAligner is called once per thread. quals may be nil.
// The first I/O or ordering error stops the run; per-pair alignment errors do not.
func Run(
	ctx context.Context,
	cfg Config,
	newAligner func() (*stitcher.Aligner, error),
	quals *stitcher.QualityStats,
	in1, in2 Source,
	out Sinks,
) (Stats, error) {
	if cfg.Threads < 1 {
		cfg.Threads = 1
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 256 * cfg.Threads
	}

	workers := make([]*worker, cfg.Threads)
	for i := range workers {
		a, err := newAligner()
		if err != nil {
			return Stats{}, err
		}
		workers[i] = &worker{cfg: cfg, aligner: a, merger: stitcher.NewMerger(quals)}
	}

	j, err := newJoiner(in1, in2)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	batch := make([]job, 0, cfg.BatchSize)
	results := make([]result, cfg.BatchSize)
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		batch = batch[:0]
		for len(batch) < cfg.BatchSize {
			jb, ok, err := j.next()
			if err != nil {
				return stats, err
			}
			if !ok {
				break
			}
			batch = append(batch, jb)
		}
		if len(batch) == 0 {
			return stats, nil
		}

		var wg sync.WaitGroup
		wg.Add(len(workers))
		for w := range workers {
			go func(w int) {
				defer wg.Done()
				for i := w; i < len(batch); i += len(workers) {
					if batch[i].kind == mates {
						results[i] = workers[w].stitch(batch[i].r1, batch[i].r2)
					}
				}
			}(w)
		}
		wg.Wait()

		for i, jb := range batch {
			if err := emit(cfg, &stats, jb, results[i], out); err != nil {
				return stats, err
			}
		}
	}
}

func (w *worker) prepare(r stitcher.Read) stitcher.Read {
	if w.cfg.TrimN {
		r = r.TrimNTails()
	}
	if w.cfg.MinQual > 0 {
		r = r.TrimLowQualityEnds(w.cfg.MinQual)
	}
	return r
}

func (w *worker) stitch(r1, r2 stitcher.Read) result {
	r1, r2 = w.prepare(r1), w.prepare(r2)

	o, ok, err := w.aligner.FindOverlap(r1.Seq, r2.Seq)
	res := result{outcome: stitched}
	if err == nil && !ok && w.cfg.TrySwap {
		o, ok, err = w.aligner.FindOverlap(r2.Seq, r1.Seq)
		r1, r2 = r2, r1
		res.outcome = swapped
	}
	switch {
	case errors.Is(err, stitcher.ErrAlphabet):
		return result{outcome: invalid, err: err}
	case errors.Is(err, stitcher.ErrCapacity):
		return result{outcome: overCapacity, err: err}
	case err != nil:
		panic(fmt.Sprintf("pairs: unexpected alignment error: %v", err))
	case !ok:
		return result{outcome: noOverlap}
	}

	merged, err := w.merger.Merge(r1, r2, o.Offset)
	if err != nil {
		panic(fmt.Sprintf("pairs: merge of an aligned pair failed: %v", err))
	}
	res.merged, res.overlap = merged, o
	res.upstream, res.downstream = r1.Seq, r2.Seq
	return res
}

func emit(cfg Config, stats *Stats, jb job, res result, out Sinks) error {
	switch jb.kind {
	case onlyFirst:
		stats.Unpaired1++
		return out.Unstitched1.Write(jb.r1)
	case onlySecond:
		stats.Unpaired2++
		return out.Unstitched2.Write(jb.r2)
	}

	stats.Pairs++
	switch res.outcome {
	case stitched, swapped:
		stats.Stitched++
		if res.outcome == swapped {
			stats.Swapped++
		}
		if cfg.Show != nil {
			if err := showStitching(cfg.Show, res.upstream, res.downstream, res.overlap.Offset); err != nil {
				return err
			}
		}
		return out.Stitched.Write(res.merged)
	case invalid:
		stats.Invalid++
		warnf(cfg, "pair %q left unstitched: %v", jb.r1.ID, res.err)
	case overCapacity:
		stats.OverCapacity++
		warnf(cfg, "pair %q left unstitched: %v", jb.r1.ID, res.err)
	}
	stats.Unstitched++
	if err := out.Unstitched1.Write(jb.r1); err != nil {
		return err
	}
	return out.Unstitched2.Write(jb.r2)
}

// showStitching draws the second read under the first, shifted to its offset.
func showStitching(w io.Writer, s1, s2 string, offset int) error {
	_, err := fmt.Fprintf(w, "%s\n%s%s\n\n", s1, strings.Repeat(" ", offset), s2)
	return err
}

func warnf(cfg Config, format string, a ...any) {
	if cfg.Quiet || cfg.Warn == nil {
		return
	}
	_, _ = fmt.Fprintf(cfg.Warn, "WARN: "+format+"\n", a...)
}
