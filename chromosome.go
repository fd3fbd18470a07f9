package bimjoin

import (
	"fmt"
	"strconv"
)

// PLINK encodes the non-autosomal chromosomes numerically in .bim files,
// but some toolchains emit the letter codes instead.
const (
	ChromosomeX  = 23
	ChromosomeY  = 24
	ChromosomeXY = 25
	ChromosomeMT = 26
)

// ParseChromosome takes the raw chromosome field of a .bim row and returns
// its numeric code, accepting both plain integers and the PLINK letter
// codes X, Y, XY, and MT.
func ParseChromosome(field string) (uint32, error) {
	switch field {
	case "X":
		return ChromosomeX, nil
	case "Y":
		return ChromosomeY, nil
	case "XY":
		return ChromosomeXY, nil
	case "MT", "M":
		return ChromosomeMT, nil
	}

	chr, err := strconv.ParseUint(field, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("chromosome %q is neither numeric nor a recognized code", field)
	}

	return uint32(chr), nil
}

// ChromosomeString takes the numeric chromosome code and returns its
// standard string translation.
func ChromosomeString(chr uint32) string {
	switch chr {
	case ChromosomeX:
		return "X"
	case ChromosomeY:
		return "Y"
	case ChromosomeXY:
		return "XY"
	case ChromosomeMT:
		return "MT"
	}

	return strconv.FormatUint(uint64(chr), 10)
}
