package bimjoin

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/carbocation/pfx"
	"go.uber.org/multierr"
)

// Output filenames are fixed; a run overwrites the previous run's files.
const (
	NamesFilePattern   = "bij_names_%d.txt"
	MatchesFileName    = "bij_matches.bim"
	MismatchesFileName = "bij_mismatches.bim"
)

// Sink receives the groups the Joiner discovers. A frontier passed to
// either method is only valid for the duration of the call.
type Sink interface {
	// Match receives a frontier whose k records all describe the same
	// variant.
	Match(frontier []*Variant) error

	// Mismatch receives a frontier whose k records share a locus but
	// disagree on alleles.
	Mismatch(frontier []*Variant) error

	io.Closer
}

// FileSink writes join results to the standard output files: one
// bij_names_<i>.txt of matched variant IDs per input (1-indexed), one
// shared bij_matches.bim of representative matched records, and one shared
// bij_mismatches.bim of representative mismatched records.
type FileSink struct {
	MatchCount    int
	MismatchCount int

	names      []*bufio.Writer
	matches    *bufio.Writer
	mismatches *bufio.Writer
	files      []*os.File
}

// NewFileSink creates the output files for a join over n inputs inside
// dir, truncating any previous run's files. On error, everything already
// created is closed again.
func NewFileSink(dir string, n int) (*FileSink, error) {
	fs := &FileSink{}

	create := func(name string) (*bufio.Writer, error) {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			fs.Close()
			return nil, pfx.Err(fmt.Errorf("could not write to %s: %w", name, err))
		}
		fs.files = append(fs.files, f)
		return bufio.NewWriter(f), nil
	}

	for i := 0; i < n; i++ {
		w, err := create(fmt.Sprintf(NamesFilePattern, i+1))
		if err != nil {
			return nil, err
		}
		fs.names = append(fs.names, w)
	}

	var err error
	if fs.matches, err = create(MatchesFileName); err != nil {
		return nil, err
	}
	if fs.mismatches, err = create(MismatchesFileName); err != nil {
		return nil, err
	}

	return fs, nil
}

func (fs *FileSink) Match(frontier []*Variant) error {
	for i, v := range frontier {
		if _, err := fmt.Fprintln(fs.names[i], v.VariantID); err != nil {
			return pfx.Err(err)
		}
	}

	fs.MatchCount++
	if err := WriteBIMLine(fs.matches, Representative(frontier)); err != nil {
		return pfx.Err(err)
	}
	return nil
}

func (fs *FileSink) Mismatch(frontier []*Variant) error {
	fs.MismatchCount++
	if err := WriteBIMLine(fs.mismatches, frontier[0]); err != nil {
		return pfx.Err(err)
	}
	return nil
}

// Close flushes and closes every output file, reporting all failures.
func (fs *FileSink) Close() error {
	var err error
	for _, w := range fs.names {
		err = multierr.Append(err, w.Flush())
	}
	if fs.matches != nil {
		err = multierr.Append(err, fs.matches.Flush())
	}
	if fs.mismatches != nil {
		err = multierr.Append(err, fs.mismatches.Flush())
	}
	for _, f := range fs.files {
		err = multierr.Append(err, f.Close())
	}
	return err
}

// Representative returns the record that stands for a group in .bim
// output: the first record, in index order, with both alleles known, or
// the group's first record if every member has a missing allele.
func Representative(frontier []*Variant) *Variant {
	for _, v := range frontier {
		if !v.HasMissingAllele() {
			return v
		}
	}
	return frontier[0]
}

// WriteBIMLine writes v as one six-column .bim row. The morgans column is
// always written as 0.
func WriteBIMLine(w io.Writer, v *Variant) error {
	_, err := fmt.Fprintf(w, "%d\t%s\t0\t%d\t%s\t%s\n",
		v.Chromosome, v.VariantID, v.Coordinate, v.Allele1, v.Allele2)
	return err
}
