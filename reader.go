package bimjoin

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/genomisc"
	"github.com/carbocation/pfx"
)

// bimFieldCount is the number of whitespace-separated columns in a .bim row
// (chromosome, variant ID, morgans, coordinate, allele 1, allele 2).
const bimFieldCount = 6

// ParsePolicy decides what a VariantReader does with a malformed .bim line.
type ParsePolicy int

const (
	// ParseStrict makes the first malformed line a terminal error for the
	// stream.
	ParseStrict ParsePolicy = iota

	// ParseLenient skips malformed lines, counting them in SkippedLines.
	ParseLenient

	// ParseLegacy extracts whatever fields it can and zeroes numeric fields
	// that do not parse, which is what the original C++ tool's istringstream
	// extraction did silently.
	ParseLegacy
)

func ParsePolicyFromString(s string) (ParsePolicy, error) {
	switch s {
	case "strict":
		return ParseStrict, nil
	case "lenient":
		return ParseLenient, nil
	case "legacy":
		return ParseLegacy, nil
	}

	return 0, fmt.Errorf("unknown parse policy %q (want strict, lenient, or legacy)", s)
}

// ParseError describes a single .bim line that could not be parsed.
type ParseError struct {
	Line   int // 1-based line number within the stream
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// VariantReader produces Variants from a line-oriented .bim stream, one
// call to Read at a time.
type VariantReader struct {
	VariantsRead uint32
	SkippedLines int

	policy  ParsePolicy
	scanner *bufio.Scanner
	line    int
	err     error
}

func NewVariantReader(r io.Reader, policy ParsePolicy) *VariantReader {
	return &VariantReader{
		policy:  policy,
		scanner: bufio.NewScanner(r),
	}
}

// Error returns the first terminal error the reader encountered, if any.
// Read returning nil with a nil Error means the stream is exhausted.
func (vr *VariantReader) Error() error {
	return vr.err
}

// Read returns the next variant in the stream, or nil when the stream has
// ended. A blank line ends the stream, as it did for the original tool.
// Malformed lines are handled according to the reader's ParsePolicy.
func (vr *VariantReader) Read() *Variant {
	if vr.err != nil {
		return nil
	}

	for vr.scanner.Scan() {
		vr.line++

		line := vr.scanner.Text()
		if line == "" {
			return nil
		}

		v, err := vr.parseLine(line)
		if err != nil {
			if vr.policy == ParseLenient {
				vr.SkippedLines++
				continue
			}
			vr.err = pfx.Err(err)
			return nil
		}

		vr.VariantsRead++
		return v
	}

	if err := vr.scanner.Err(); err != nil {
		vr.err = pfx.Err(err)
	}

	return nil
}

func (vr *VariantReader) parseLine(line string) (*Variant, error) {
	fields := strings.Fields(line)
	if len(fields) != bimFieldCount && vr.policy != ParseLegacy {
		return nil, &ParseError{
			Line:   vr.line,
			Reason: fmt.Sprintf("expected %d fields, found %d", bimFieldCount, len(fields)),
		}
	}

	v := &Variant{
		VariantID: fieldAt(fields, genomisc.VariantID),
		Allele1:   fieldAt(fields, genomisc.Allele1),
		Allele2:   fieldAt(fields, genomisc.Allele2),
	}
	// The genomisc.Morgans column is read and discarded.

	chr, err := ParseChromosome(fieldAt(fields, genomisc.Chromosome))
	if err != nil && vr.policy != ParseLegacy {
		return nil, &ParseError{Line: vr.line, Reason: err.Error()}
	}
	v.Chromosome = chr

	coord, err := strconv.ParseUint(fieldAt(fields, genomisc.Coordinate), 10, 32)
	if err != nil && vr.policy != ParseLegacy {
		return nil, &ParseError{
			Line:   vr.line,
			Reason: fmt.Sprintf("coordinate %q is not an unsigned integer", fieldAt(fields, genomisc.Coordinate)),
		}
	}
	v.Coordinate = uint32(coord)

	return v, nil
}

// fieldAt tolerates short rows so that ParseLegacy can extract what exists.
func fieldAt(fields []string, i int) string {
	if i >= len(fields) {
		return ""
	}
	return fields[i]
}
