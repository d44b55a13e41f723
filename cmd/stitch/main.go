// Command stitch merges overlapping paired-end reads into single reads.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	stitcher "github.com/tfwillems/read-stitcher"
	"github.com/tfwillems/read-stitcher/internal/fastq"
	"github.com/tfwillems/read-stitcher/internal/pairs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	f1, f2, out    string
	maxReadLen     int
	maxMismatches  int
	minOverlap     int
	minFracCorrect float64
	threads        int
	swap           bool
	trimN          bool
	minQual        int
	rc2            bool
	backend        string
	show           bool
	qualStats      string
	quiet          bool
}

func newFlagSet(o *options) *flag.FlagSet {
	def := stitcher.DefaultConfig()
	fs := flag.NewFlagSet("stitch", flag.ContinueOnError)
	fs.StringVar(&o.f1, "f1", "", "FASTQ file with the first reads (- for stdin, .gz accepted)")
	fs.StringVar(&o.f2, "f2", "", "FASTQ file with the second reads")
	fs.StringVar(&o.out, "o", "stitched", "output prefix")
	fs.IntVar(&o.maxReadLen, "max-read-length", def.MaxReadLen, "maximum read length to be considered")
	fs.IntVar(&o.maxMismatches, "max-mismatches", def.MaxMismatches, "maximum number of overlapping bases that can not match")
	fs.IntVar(&o.minOverlap, "min-overlap", def.MinOverlap, "minimum number of overlapping bases required")
	fs.Float64Var(&o.minFracCorrect, "min-frac-correct", def.MinFracCorrect, "fraction of overlapping bases that must match (exclusive)")
	fs.IntVar(&o.threads, "threads", 1, "worker goroutines")
	fs.BoolVar(&o.swap, "swap", false, "retry pairs with the second read upstream of the first")
	fs.BoolVar(&o.trimN, "trim-n", false, "trim leading and trailing N bases before aligning")
	fs.IntVar(&o.minQual, "min-qual", 0, "trim read ends below this Phred+33 score before aligning (0 disables)")
	fs.BoolVar(&o.rc2, "rc2", false, "reverse-complement the second reads")
	fs.StringVar(&o.backend, "backend", def.Backend.String(), "extension index: tree or array")
	fs.BoolVar(&o.show, "show", false, "draw each stitched pair on stdout")
	fs.StringVar(&o.qualStats, "qual-stats", "", "write per-quality match counts of overlapping bases to this file")
	fs.BoolVar(&o.quiet, "quiet", false, "suppress warnings")
	return fs
}

func (o *options) config() (stitcher.Config, error) {
	backend, err := stitcher.ParseBackend(o.backend)
	if err != nil {
		return stitcher.Config{}, err
	}
	cfg := stitcher.Config{
		MaxReadLen:     o.maxReadLen,
		MaxMismatches:  o.maxMismatches,
		MinOverlap:     o.minOverlap,
		MinFracCorrect: o.minFracCorrect,
		Backend:        backend,
	}
	if o.threads < 1 {
		return cfg, fmt.Errorf("%w: threads %d", stitcher.ErrInvalidConfig, o.threads)
	}
	if o.minQual < 0 || o.minQual > 93 {
		return cfg, fmt.Errorf("%w: min quality %d not in [0, 93]", stitcher.ErrInvalidConfig, o.minQual)
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var o options
	fs := newFlagSet(&o)
	fs.SetOutput(stderr)
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: stitch -f1 <fq_1> -f2 <fq_2> [options]")
		fs.PrintDefaults()
		return 0
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if o.f1 == "" || o.f2 == "" {
		fmt.Fprintln(stderr, "ERROR: missing input file(s)")
		return 2
	}
	cfg, err := o.config()
	if err != nil {
		fmt.Fprintln(stderr, "ERROR:", err)
		return 2
	}

	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	stats, quals, err := stitchFiles(ctx, &o, cfg, outw, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "ERROR:", err)
		if ctx.Err() != nil {
			return 130
		}
		return 1
	}
	if o.qualStats != "" {
		if err := writeQualStats(o.qualStats, quals); err != nil {
			fmt.Fprintln(stderr, "ERROR:", err)
			return 1
		}
	}
	printSummary(outw, stats)
	return 0
}

func stitchFiles(ctx context.Context, o *options, cfg stitcher.Config, stdout, stderr io.Writer) (pairs.Stats, *stitcher.QualityStats, error) {
	in1, err := fastq.Open(o.f1)
	if err != nil {
		return pairs.Stats{}, nil, err
	}
	defer in1.Close()
	in2, err := fastq.Open(o.f2)
	if err != nil {
		return pairs.Stats{}, nil, err
	}
	defer in2.Close()

	var (
		files   []io.WriteCloser
		writers []*fastq.Writer
	)
	for _, suffix := range []string{"_1.fastq", "_2.fastq", "_stitched.fastq"} {
		f, err := fastq.Create(o.out + suffix)
		if err != nil {
			for _, f := range files {
				_ = f.Close()
			}
			return pairs.Stats{}, nil, err
		}
		files = append(files, f)
		writers = append(writers, fastq.NewWriter(f))
	}

	quals := stitcher.NewQualityStats()
	pcfg := pairs.Config{
		Threads: o.threads,
		TrySwap: o.swap,
		TrimN:   o.trimN,
		Warn:    stderr,
		Quiet:   o.quiet,
	}
	if o.minQual > 0 {
		pcfg.MinQual = byte(o.minQual + 33)
	}
	if o.show {
		pcfg.Show = stdout
	}

	stats, runErr := pairs.Run(ctx, pcfg,
		func() (*stitcher.Aligner, error) { return stitcher.NewAligner(cfg) },
		quals,
		fastq.NewReader(in1, fastq.Options{PairedEnd: true}),
		fastq.NewReader(in2, fastq.Options{PairedEnd: true, ReverseComplement: o.rc2}),
		pairs.Sinks{Unstitched1: writers[0], Unstitched2: writers[1], Stitched: writers[2]},
	)

	err = runErr
	for i, w := range writers {
		if ferr := w.Flush(); ferr != nil && err == nil {
			err = ferr
		}
		if cerr := files[i].Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return stats, quals, err
}

func writeQualStats(path string, quals *stitcher.QualityStats) error {
	f, err := fastq.Create(path)
	if err != nil {
		return err
	}
	if _, err := quals.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printSummary(w io.Writer, s pairs.Stats) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "read pairs:      %d\n", s.Pairs)
	p.Fprintf(w, "stitched:        %d (%.2f%%)\n", s.Stitched, percent(s.Stitched, s.Pairs))
	if s.Swapped > 0 {
		p.Fprintf(w, "  swapped:       %d\n", s.Swapped)
	}
	p.Fprintf(w, "unstitched:      %d\n", s.Unstitched)
	if s.Invalid > 0 {
		p.Fprintf(w, "  invalid bases: %d\n", s.Invalid)
	}
	if s.OverCapacity > 0 {
		p.Fprintf(w, "  too long:      %d\n", s.OverCapacity)
	}
	if s.Unpaired1+s.Unpaired2 > 0 {
		p.Fprintf(w, "unpaired:        %d / %d\n", s.Unpaired1, s.Unpaired2)
	}
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}
