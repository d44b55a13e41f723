// Package pairs drives the stitcher over two identifier-sorted read streams: mates are aligned and merged
// into one read when they overlap, everything else is passed through to the unstitched outputs.
//
// Alignment errors that concern a single pair (bad symbols, reads longer than the aligner was sized for) are
// counted and the pair is written unstitched; they never stop the run.
package pairs
