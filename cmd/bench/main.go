package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"runtime/pprof"
	"sort"
	"time"

	stitcher "github.com/tfwillems/read-stitcher"
)

type variant struct {
	name   string
	config func(*stitcher.AlignerBuilder) *stitcher.AlignerBuilder
}

var variants = map[string]variant{
	"tree":  {name: "tree", config: func(b *stitcher.AlignerBuilder) *stitcher.AlignerBuilder { return b }},
	"array": {name: "array", config: func(b *stitcher.AlignerBuilder) *stitcher.AlignerBuilder { return b.UseSuffixArray() }},
}

func variantNames() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type memMonitor struct {
	maxAlloc uint64
	stop     chan struct{}
	done     chan struct{}
}

func newMemMonitor() *memMonitor {
	mm := &memMonitor{stop: make(chan struct{}), done: make(chan struct{})}
	go func() {
		defer close(mm.done)
		for {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			if m.Alloc > mm.maxAlloc {
				mm.maxAlloc = m.Alloc
			}
			select {
			case <-mm.stop:
				return
			default:
				time.Sleep(10 * time.Millisecond)
			}
		}
	}()
	return mm
}

func (mm *memMonitor) Stop() uint64 {
	close(mm.stop)
	<-mm.done
	return mm.maxAlloc
}

func getCurrentAlloc() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc
}

// generatePairs cuts two reads of length n from each of count random fragments of length 2n, the second
// starting at or after the first.
func generatePairs(r *rand.Rand, count, n int, mutationRate float64) (reads1, reads2 []string) {
	const bases = "ACGT"
	fragment := make([]byte, 2*n)
	for i := 0; i < count; i++ {
		for j := range fragment {
			fragment[j] = bases[r.Intn(4)]
		}
		a := r.Intn(n + 1)
		b := a + r.Intn(n-a+1)
		reads1 = append(reads1, mutate(r, string(fragment[a:a+n]), mutationRate))
		reads2 = append(reads2, mutate(r, string(fragment[b:b+n]), mutationRate))
	}
	return reads1, reads2
}

// mutate replaces each base with a random one at the given rate. One draw in four picks the same base, so
// the draw rate is scaled by 4/3.
func mutate(r *rand.Rand, read string, rate float64) string {
	const bases = "ACGT"
	out := []byte(read)
	for i := range out {
		if r.Float64() <= rate*4/3 {
			out[i] = bases[r.Intn(4)]
		}
	}
	return string(out)
}

func measureStitch(aligner *stitcher.Aligner, reads1, reads2 []string) (time.Duration, uint64, uint64, int) {
	runtime.GC()
	mm := newMemMonitor()
	start := time.Now()
	found := 0
	for i := range reads1 {
		_, ok, err := aligner.FindOverlap(reads1[i], reads2[i])
		if err != nil {
			panic(err)
		}
		if ok {
			found++
		}
	}
	dur := time.Since(start)
	peak := mm.Stop()
	runtime.GC()
	alloc := getCurrentAlloc()
	return dur, peak, alloc, found
}

func runBenchmark(v variant, n, length, k, minOverlap int, rate float64, runs int) {
	for run := 0; run < runs; run++ {
		r := rand.New(rand.NewSource(int64(run)))
		reads1, reads2 := generatePairs(r, n, length, rate)
		builder := stitcher.NewBuilder(length).MaxMismatches(k).MinOverlap(minOverlap)
		aligner, err := v.config(builder).Build()
		if err != nil {
			panic(err)
		}
		st, sp, sa, found := measureStitch(aligner, reads1, reads2)
		fmt.Printf("%s,%d,%d,%d,%d,%g,%d,%.0f,%d,%d\n",
			v.name, n, length, k, minOverlap, rate, found,
			float64(st.Nanoseconds()), sp, sa)
	}
}

func main() {
	variantName := flag.String("variant", "", "Variant to benchmark")
	n := flag.Int("n", 0, "Number of read pairs")
	l := flag.Int("l", 100, "Read length")
	k := flag.Int("k", 10, "Maximum mismatches")
	o := flag.Int("o", 10, "Minimum overlap")
	rate := flag.Float64("rate", 0.01, "Per-base mutation rate")
	runs := flag.Int("runs", 3, "Number of runs for averaging")
	cpuprofile := flag.String("cpuprofile", "", "Write CPU profile to file")
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *variantName == "" || *n <= 0 || *l <= 0 || *k < 0 || *o <= 0 || *o > *l {
		fmt.Println("Usage: go run main.go -variant=<variant> -n=<pairs> [-l=<length>] [-k=<mismatches>] [-o=<overlap>] [-rate=<rate>] [-runs=<runs>]")
		fmt.Println("Available variants:", variantNames())
		os.Exit(1)
	}

	v, ok := variants[*variantName]
	if !ok {
		fmt.Println("Invalid variant:", *variantName)
		os.Exit(1)
	}

	runBenchmark(v, *n, *l, *k, *o, *rate, *runs)
}
