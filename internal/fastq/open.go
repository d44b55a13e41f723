package fastq

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// multiReadCloser closes multiple io.Closers when Close() is called.
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Open opens a FASTQ file for reading. "-" is stdin; gzip input is detected by its magic number or a .gz
// suffix.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	gz, err := isGzip(fh)
	if err != nil {
		_ = fh.Close()
		return nil, fmt.Errorf("fastq: open %s: %w", path, err)
	}
	if gz || strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(fh)
		if err != nil {
			_ = fh.Close()
			return nil, err
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, fh}}, nil
	}
	return fh, nil
}

// isGzip reports whether f starts with the gzip magic number and rewinds it.
func isGzip(f *os.File) (bool, error) {
	var sig [2]byte
	n, err := io.ReadFull(f, sig[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false, err
	}
	return n == 2 && sig[0] == 0x1f && sig[1] == 0x8b, nil
}

// Create opens path for writing, gzip-compressed when it ends in .gz.
func Create(path string) (io.WriteCloser, error) {
	fh, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return fh, nil
	}
	return &gzipFile{Writer: gzip.NewWriter(fh), fh: fh}, nil
}

type gzipFile struct {
	*gzip.Writer
	fh *os.File
}

func (g *gzipFile) Close() error {
	err := g.Writer.Close()
	if cerr := g.fh.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
