package fastq

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	stitcher "github.com/tfwillems/read-stitcher"
)

const pairedR1 = `@frag1/1 extra words
ACGTACGTAA
+
IIIIIIIIII
@frag2/1
GGGG
+frag2
5555
`

func readAll(t *testing.T, r *Reader) []stitcher.Read {
	t.Helper()
	var out []stitcher.Read
	for {
		read, err := r.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, read)
	}
}

func TestReaderPairedEnd(t *testing.T) {
	got := readAll(t, NewReader(strings.NewReader(pairedR1), Options{PairedEnd: true}))
	want := []stitcher.Read{
		{ID: "frag1", Seq: "ACGTACGTAA", Qual: "IIIIIIIIII"},
		{ID: "frag2", Seq: "GGGG", Qual: "5555"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d reads, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("read %d: got %+v, want %+v", i, got[i], want[i])
		}
	}

	single := readAll(t, NewReader(strings.NewReader(pairedR1), Options{}))
	if single[0].ID != "frag1/1" {
		t.Errorf("single-end ID: got %q", single[0].ID)
	}
}

func TestReaderReverseComplement(t *testing.T) {
	in := "@r/2\nAACG\n+\n1234\n"
	got := readAll(t, NewReader(strings.NewReader(in), Options{PairedEnd: true, ReverseComplement: true}))
	if want := (stitcher.Read{ID: "r", Seq: "CGTT", Qual: "4321"}); len(got) != 1 || got[0] != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		opts Options
		want error
	}{
		{"missing @", "r1\nACGT\n+\nIIII\n", Options{}, ErrFormat},
		{"missing +", "@r1\nACGT\n-\nIIII\n", Options{}, ErrFormat},
		{"truncated", "@r1\nACGT\n+\n", Options{}, ErrFormat},
		{"bad pair suffix", "@r1/3\nACGT\n+\nIIII\n", Options{PairedEnd: true}, ErrPairSuffix},
		{"quality length", "@r1\nACGT\n+\nIII\n", Options{}, stitcher.ErrQualityLength},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(tc.in), tc.opts).Next()
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestWriterRoundTrip(t *testing.T) {
	reads := []stitcher.Read{
		{ID: "a", Seq: "ACGT", Qual: "IIII"},
		{ID: "b", Seq: "", Qual: ""},
		{ID: "c", Seq: "TTTTTTTT", Qual: "#+5?I#+5"},
	}
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, r := range reads {
		if err := w.Write(r); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	got := readAll(t, NewReader(&buf, Options{}))
	if len(got) != len(reads) {
		t.Fatalf("got %d reads, want %d", len(got), len(reads))
	}
	for i := range reads {
		if got[i] != reads[i] {
			t.Errorf("read %d: got %+v, want %+v", i, got[i], reads[i])
		}
	}
}

func TestOpenGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reads.fq.gz")

	wc, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := NewWriter(wc)
	if err := w.Write(stitcher.Read{ID: "g", Seq: "ACGT", Qual: "IIII"}); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := wc.Close(); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := gzip.NewReader(bytes.NewReader(raw)); err != nil {
		t.Fatalf("output is not gzip: %v", err)
	}

	rc, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = rc.Close() }()
	got := readAll(t, NewReader(rc, Options{}))
	if len(got) != 1 || got[0].ID != "g" || got[0].Seq != "ACGT" {
		t.Fatalf("got %+v", got)
	}
}

func TestOpenPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reads.fq")
	if err := os.WriteFile(path, []byte(pairedR1), 0o644); err != nil {
		t.Fatal(err)
	}
	rc, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = rc.Close() }()
	if got := readAll(t, NewReader(rc, Options{PairedEnd: true})); len(got) != 2 {
		t.Fatalf("got %d reads, want 2", len(got))
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.fq")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestOpenUnreadable(t *testing.T) {
	// A directory opens but cannot be read.
	if rc, err := Open(t.TempDir()); err == nil {
		_ = rc.Close()
		t.Fatal("expected an error for a directory")
	}

	empty := filepath.Join(t.TempDir(), "empty.fq")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	rc, err := Open(empty)
	if err != nil {
		t.Fatalf("empty file: %v", err)
	}
	defer func() { _ = rc.Close() }()
	if got := readAll(t, NewReader(rc, Options{})); len(got) != 0 {
		t.Fatalf("got %d reads from an empty file", len(got))
	}
}
