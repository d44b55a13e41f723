package stitcher

import (
	"errors"
	"testing"
)

func TestNewRead(t *testing.T) {
	if _, err := NewRead("r", "ACGT", "III"); !errors.Is(err, ErrQualityLength) {
		t.Errorf("got %v, want ErrQualityLength", err)
	}
	r, err := NewRead("r", "ACGT", "IIII")
	if err != nil || r.Len() != 4 || r.Empty() {
		t.Errorf("got %+v, %v", r, err)
	}
}

func TestTrim(t *testing.T) {
	tests := []struct {
		name string
		in   Read
		trim func(Read) Read
		want Read
	}{
		{"n tails", Read{"r", "NNACGNTN", "12345678"}, Read.TrimNTails, Read{"r", "ACGNT", "34567"}},
		{"all n", Read{"r", "NNN", "###"}, Read.TrimNTails, Read{ID: "r"}},
		{"no n", Read{"r", "ACGT", "IIII"}, Read.TrimNTails, Read{"r", "ACGT", "IIII"}},
		{
			"low quality ends",
			Read{"r", "ACGTACGT", "#+I#II+#"},
			func(r Read) Read { return r.TrimLowQualityEnds('5') },
			Read{"r", "GTAC", "I#II"},
		},
		{
			"all low quality",
			Read{"r", "ACGT", "####"},
			func(r Read) Read { return r.TrimLowQualityEnds('5') },
			Read{ID: "r"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.trim(tc.in); got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestReverseComplement(t *testing.T) {
	got, err := Read{ID: "r", Seq: "AACGTN", Qual: "123456"}.ReverseComplement()
	if err != nil {
		t.Fatal(err)
	}
	if want := (Read{ID: "r", Seq: "NACGTT", Qual: "654321"}); got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if _, err := (Read{ID: "r", Seq: "ACXT", Qual: "IIII"}).ReverseComplement(); !errors.Is(err, ErrAlphabet) {
		t.Fatalf("got %v, want ErrAlphabet", err)
	}
}
