// Package fastq reads and writes the four-line FASTQ records consumed and produced by the stitcher.
package fastq

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	stitcher "github.com/tfwillems/read-stitcher"
)

var (
	ErrFormat     = errors.New("fastq: malformed record")
	ErrPairSuffix = errors.New("fastq: paired-end identifiers must end in /1 or /2")
)

// Options controls how records are turned into reads.
type Options struct {
	// PairedEnd strips a trailing /1 or /2 from identifiers so mates share an ID.
	PairedEnd bool
	// ReverseComplement reverse-complements sequences and reverses qualities.
	ReverseComplement bool
}

// Reader parses FASTQ records from an io.Reader.
type Reader struct {
	sc   *bufio.Scanner
	opts Options
	line int
}

func NewReader(r io.Reader, opts Options) *Reader {
	sc := bufio.NewScanner(r)
	const maxLine = 16 * 1024 * 1024
	sc.Buffer(make([]byte, 64*1024), maxLine)
	return &Reader{sc: sc, opts: opts}
}

func (r *Reader) next() ([]byte, bool) {
	if !r.sc.Scan() {
		return nil, false
	}
	r.line++
	return r.sc.Bytes(), true
}

// Next returns the next read, or io.EOF after the last one.
func (r *Reader) Next() (stitcher.Read, error) {
	header, ok := r.next()
	for ok && len(bytes.TrimSpace(header)) == 0 {
		header, ok = r.next()
	}
	if !ok {
		if err := r.sc.Err(); err != nil {
			return stitcher.Read{}, fmt.Errorf("fastq scan: %w", err)
		}
		return stitcher.Read{}, io.EOF
	}
	if header[0] != '@' {
		return stitcher.Read{}, fmt.Errorf("%w: line %d: header must start with @", ErrFormat, r.line)
	}
	id, err := r.parseID(header[1:])
	if err != nil {
		return stitcher.Read{}, fmt.Errorf("line %d: %w", r.line, err)
	}

	var lines [3]string
	for i := range lines {
		l, ok := r.next()
		if !ok {
			if err := r.sc.Err(); err != nil {
				return stitcher.Read{}, fmt.Errorf("fastq scan: %w", err)
			}
			return stitcher.Read{}, fmt.Errorf("%w: record %q is truncated", ErrFormat, id)
		}
		lines[i] = string(bytes.TrimRight(l, "\r"))
	}
	if len(lines[1]) == 0 || lines[1][0] != '+' {
		return stitcher.Read{}, fmt.Errorf("%w: line %d: separator must start with +", ErrFormat, r.line-1)
	}

	read, err := stitcher.NewRead(id, lines[0], lines[2])
	if err != nil {
		return stitcher.Read{}, err
	}
	if r.opts.ReverseComplement {
		return read.ReverseComplement()
	}
	return read, nil
}

func (r *Reader) parseID(hdr []byte) (string, error) {
	hdr = bytes.TrimSpace(hdr)
	if i := bytes.IndexAny(hdr, " \t"); i >= 0 {
		hdr = hdr[:i]
	}
	if r.opts.PairedEnd && len(hdr) > 2 && hdr[len(hdr)-2] == '/' {
		switch hdr[len(hdr)-1] {
		case '1', '2':
			hdr = hdr[:len(hdr)-2]
		default:
			return "", fmt.Errorf("%w: %q", ErrPairSuffix, hdr)
		}
	}
	return string(hdr), nil
}

// Writer writes reads as FASTQ records. Call Flush before discarding it.
type Writer struct {
	w *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) Write(r stitcher.Read) error {
	_, err := fmt.Fprintf(w.w, "@%s\n%s\n+\n%s\n", r.ID, r.Seq, r.Qual)
	return err
}

func (w *Writer) Flush() error { return w.w.Flush() }
