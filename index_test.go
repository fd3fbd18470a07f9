package bimjoin

import (
	"path/filepath"
	"testing"
)

func TestBJIIndexRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.bji")

	idx, err := CreateBJI(path, 3)
	if err != nil {
		t.Fatal(err)
	}

	for _, variant := range []*Variant{
		v(1, "rs1", 100, "A", "G"),
		v(2, "rs2", 200, "C", "T"),
	} {
		if err := idx.Insert(variant); err != nil {
			t.Fatal(err)
		}
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenBJI(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	md, err := reopened.Metadata()
	if err != nil {
		t.Fatal(err)
	}
	if md.NInputs != 3 {
		t.Errorf("Metadata.NInputs = %d, want 3", md.NInputs)
	}

	rows, err := reopened.DB.Queryx("SELECT * FROM Variant ORDER BY chromosome ASC, position ASC")
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	var got []VariantIndexRow
	for rows.Next() {
		var row VariantIndexRow
		if err := rows.StructScan(&row); err != nil {
			t.Fatal(err)
		}
		got = append(got, row)
	}

	if len(got) != 2 {
		t.Fatalf("indexed %d variants, want 2", len(got))
	}
	if got[0].RSID != "rs1" || got[0].Chromosome != 1 || got[0].Position != 100 {
		t.Errorf("first row = %+v", got[0])
	}
	if got[1].RSID != "rs2" || got[1].Allele1 != "C" || got[1].Allele2 != "T" {
		t.Errorf("second row = %+v", got[1])
	}
}

func TestCreateBJIOverwritesPreviousIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.bji")

	idx, err := CreateBJI(path, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.Insert(v(1, "rs1", 100, "A", "G")); err != nil {
		t.Fatal(err)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}

	// A second run replaces the index rather than appending to it.
	idx, err = CreateBJI(path, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenBJI(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	var n int
	if err := reopened.DB.Get(&n, "SELECT COUNT(*) FROM Variant"); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("recreated index holds %d variants, want 0", n)
	}
}

func TestIndexSinkRecordsMatchesOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.bji")

	idx, err := CreateBJI(path, 2)
	if err != nil {
		t.Fatal(err)
	}

	mem := &memorySink{}
	sink := WithIndex(mem, idx)

	if err := sink.Match([]*Variant{
		v(1, "rs1", 100, "A", "0"),
		v(1, "rs1b", 100, "A", "G"),
	}); err != nil {
		t.Fatal(err)
	}
	if err := sink.Mismatch([]*Variant{
		v(1, "rs2", 200, "A", "G"),
		v(1, "rs2b", 200, "C", "T"),
	}); err != nil {
		t.Fatal(err)
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	if len(mem.matches) != 1 || len(mem.mismatches) != 1 {
		t.Fatalf("inner sink saw %d/%d groups, want 1/1", len(mem.matches), len(mem.mismatches))
	}

	reopened, err := OpenBJI(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	var rows []VariantIndexRow
	if err := reopened.DB.Select(&rows, "SELECT * FROM Variant"); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("index holds %d rows, want 1 (mismatches are not indexed)", len(rows))
	}
	// The representative is the record without the missing allele.
	if rows[0].RSID != "rs1b" {
		t.Errorf("indexed representative = %+v, want rs1b", rows[0])
	}
}
