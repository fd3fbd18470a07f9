package bimjoin

import "fmt"

// MissingAllele is the .bim sentinel for an allele that was not determined,
// typically seen when a variant is monomorphic in the genotyped cohort. It
// never participates in allele comparisons.
const MissingAllele = "0"

// Variant is one row of a .bim file. Field names follow genomisc.BIMRow.
// The morgans column is read and discarded, so it is not represented here.
type Variant struct {
	Chromosome uint32
	VariantID  string // E.g., RSID
	Coordinate uint32 // Labeled "position" by most applications
	Allele1    string // Can contain > 1 character
	Allele2    string // Can contain > 1 character
}

// Compare orders variants by (chromosome, coordinate), returning -1, 0, or
// +1. Alleles and IDs never influence the order.
func Compare(a, b *Variant) int {
	if a.Chromosome != b.Chromosome {
		if a.Chromosome < b.Chromosome {
			return -1
		}
		return 1
	}
	if a.Coordinate != b.Coordinate {
		if a.Coordinate < b.Coordinate {
			return -1
		}
		return 1
	}
	return 0
}

// SameLocus reports whether a and b describe the same genomic site. Alleles
// are ignored.
func SameLocus(a, b *Variant) bool {
	return a.Chromosome == b.Chromosome && a.Coordinate == b.Coordinate
}

// AllelesEqual reports whether a and b are the same variant: same locus,
// and compatible alleles.
//
// Allele comparison is made a bit harder because .bim files contain "0"
// when the variant is monomorphic. This means that A/0 and G/A should
// match, while A/0 and T/G should not. The test used here is that the
// number of unique non-"0" alleles across both records is <= 2.
func AllelesEqual(a, b *Variant) bool {
	if !SameLocus(a, b) {
		return false
	}

	alleles := make(map[string]struct{}, 4)
	for _, al := range [...]string{a.Allele1, a.Allele2, b.Allele1, b.Allele2} {
		if al != MissingAllele {
			alleles[al] = struct{}{}
		}
	}

	return len(alleles) <= 2
}

// HasMissingAllele reports whether either allele of v is the "0" sentinel.
func (v *Variant) HasMissingAllele() bool {
	return v.Allele1 == MissingAllele || v.Allele2 == MissingAllele
}

func (v *Variant) String() string {
	return fmt.Sprintf("<Variant %s chr%d:%d, [%s, %s]>",
		v.VariantID, v.Chromosome, v.Coordinate, v.Allele1, v.Allele2)
}
