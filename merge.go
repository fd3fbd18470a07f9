package bimjoin

import (
	"fmt"

	"github.com/carbocation/pfx"
)

// Joiner drives a k-way sorted-merge inner join over variant streams. Its
// whole state is one current variant per stream plus an exhausted flag per
// stream; no input is ever buffered beyond that.
//
// Inputs must be sorted ascending by (chromosome, coordinate). That is a
// precondition, not something the Joiner verifies.
type Joiner struct {
	readers []*VariantReader
	cur     []*Variant
	done    []bool
}

// NewJoiner returns a Joiner over the given streams. A join needs at least
// two of them.
func NewJoiner(readers []*VariantReader) (*Joiner, error) {
	if len(readers) < 2 {
		return nil, fmt.Errorf("joining requires at least 2 input streams, got %d", len(readers))
	}

	return &Joiner{
		readers: readers,
		cur:     make([]*Variant, len(readers)),
		done:    make([]bool, len(readers)),
	}, nil
}

// Run consumes the streams to completion, emitting every match and every
// same-locus mismatch group to sink. It returns on the first reader or
// sink error, or once any one stream is exhausted: the join is computed
// only over the common prefix, so records remaining in longer streams
// after the shortest one ends are never visited.
func (j *Joiner) Run(sink Sink) error {
	for i := range j.readers {
		if err := j.advance(i); err != nil {
			return err
		}
	}

	for !j.anyExhausted() {
		switch {
		case j.frontierMatches():
			if err := sink.Match(j.cur); err != nil {
				return pfx.Err(err)
			}
			if err := j.advanceAll(); err != nil {
				return err
			}

		case j.sameLocusFrontier():
			// Every cursor already sits at the maximum locus, so stepping
			// only the laggards would advance nothing and re-evaluate this
			// frontier forever. The group is a genuine allele mismatch:
			// record it and move every stream past the locus.
			if err := sink.Mismatch(j.cur); err != nil {
				return pfx.Err(err)
			}
			if err := j.advanceAll(); err != nil {
				return err
			}

		default:
			// Step the laggards towards the furthest-advanced stream.
			max := j.maxIndex()
			for i := range j.cur {
				if Compare(j.cur[i], j.cur[max]) < 0 && !j.done[i] {
					if err := j.advance(i); err != nil {
						return err
					}
				}
			}
		}
	}

	return nil
}

// frontierMatches reports whether every current variant is the same
// variant as the one from stream 0. Each record is checked against that
// reference only, not all pairs.
func (j *Joiner) frontierMatches() bool {
	first := j.cur[0]
	for _, v := range j.cur[1:] {
		if !AllelesEqual(v, first) {
			return false
		}
	}
	return true
}

func (j *Joiner) sameLocusFrontier() bool {
	first := j.cur[0]
	for _, v := range j.cur[1:] {
		if !SameLocus(v, first) {
			return false
		}
	}
	return true
}

// maxIndex returns the index of the greatest current variant. Selection is
// by strict greater-than over an index-ordered scan, so the earliest index
// wins ties.
func (j *Joiner) maxIndex() int {
	greatest := 0
	for i := 1; i < len(j.cur); i++ {
		if Compare(j.cur[i], j.cur[greatest]) > 0 {
			greatest = i
		}
	}
	return greatest
}

func (j *Joiner) advanceAll() error {
	for i := range j.readers {
		if j.done[i] {
			continue
		}
		if err := j.advance(i); err != nil {
			return err
		}
	}
	return nil
}

// advance replaces stream i's cursor with its next record, or marks the
// stream exhausted at end of input. A reader error (a malformed line under
// ParseStrict, or an I/O failure) is terminal for the whole join.
func (j *Joiner) advance(i int) error {
	v := j.readers[i].Read()
	if v == nil {
		if err := j.readers[i].Error(); err != nil {
			return pfx.Err(fmt.Errorf("input %d: %w", i+1, err))
		}
		j.done[i] = true
		return nil
	}

	j.cur[i] = v
	return nil
}

func (j *Joiner) anyExhausted() bool {
	for _, d := range j.done {
		if d {
			return true
		}
	}
	return false
}
