package bimjoin

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// runJoin drives the full pipeline the way cmd/bimjoin does: open every
// input, join, write the output files into outDir.
func runJoin(t *testing.T, outDir string, paths ...string) {
	t.Helper()

	o := &Opener{}
	defer o.Close()

	readers := make([]*VariantReader, len(paths))
	for i, p := range paths {
		rc, err := o.Open(context.Background(), p)
		if err != nil {
			t.Fatal(err)
		}
		defer rc.Close()
		readers[i] = NewVariantReader(rc, ParseStrict)
	}

	sink, err := NewFileSink(outDir, len(paths))
	if err != nil {
		t.Fatal(err)
	}

	j, err := NewJoiner(readers)
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Run(sink); err != nil {
		t.Fatal(err)
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPipelineEndToEnd(t *testing.T) {
	dir := t.TempDir()

	file1 := writeInput(t, dir, "a.bim",
		"1\trs1\t0.5\t100\tA\t0\n"+
			"1\trs2\t0.5\t200\tC\tT\n"+
			"2\trs3\t0.5\t50\tA\tG\n")
	file2 := writeInput(t, dir, "b.bim",
		"1\trs1b\t0\t100\tA\tG\n"+
			"1\trs2b\t0\t200\tG\tA\n"+
			"2\trs3b\t0\t50\tA\tG\n")

	outDir := filepath.Join(dir, "out")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		t.Fatal(err)
	}
	runJoin(t, outDir, file1, file2)

	// 1:100 matches through the missing-allele rule with rs1b as the
	// representative; 1:200 is a same-locus allele mismatch; 2:50 matches.
	if got := readOutput(t, outDir, "bij_names_1.txt"); got != "rs1\nrs3\n" {
		t.Errorf("bij_names_1.txt = %q", got)
	}
	if got := readOutput(t, outDir, "bij_names_2.txt"); got != "rs1b\nrs3b\n" {
		t.Errorf("bij_names_2.txt = %q", got)
	}

	wantMatches := "1\trs1b\t0\t100\tA\tG\n2\trs3\t0\t50\tA\tG\n"
	if got := readOutput(t, outDir, MatchesFileName); got != wantMatches {
		t.Errorf("%s = %q, want %q", MatchesFileName, got, wantMatches)
	}

	wantMismatches := "1\trs2\t0\t200\tC\tT\n"
	if got := readOutput(t, outDir, MismatchesFileName); got != wantMismatches {
		t.Errorf("%s = %q, want %q", MismatchesFileName, got, wantMismatches)
	}
}

func TestPipelineIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	file1 := writeInput(t, dir, "a.bim", "1\trs1\t0\t100\tA\tG\n1\trs2\t0\t300\tC\tT\n")
	file2 := writeInput(t, dir, "b.bim", "1\trs1b\t0\t100\tA\tG\n1\trs2b\t0\t300\tC\tT\n")

	outDir := filepath.Join(dir, "out")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		t.Fatal(err)
	}

	read := func() [4]string {
		return [4]string{
			readOutput(t, outDir, "bij_names_1.txt"),
			readOutput(t, outDir, "bij_names_2.txt"),
			readOutput(t, outDir, MatchesFileName),
			readOutput(t, outDir, MismatchesFileName),
		}
	}

	runJoin(t, outDir, file1, file2)
	first := read()
	runJoin(t, outDir, file1, file2)
	second := read()

	if first != second {
		t.Errorf("two runs over unchanged inputs differ:\n%q\nvs\n%q", first, second)
	}
}

func TestPipelineReadsGzippedInput(t *testing.T) {
	dir := t.TempDir()

	file1 := writeInput(t, dir, "a.bim", "1\trs1\t0\t100\tA\tG\n")
	file2 := filepath.Join(dir, "b.bim.gz")
	writeGzip(t, file2, "1\trs1b\t0\t100\tA\tG\n")

	outDir := filepath.Join(dir, "out")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		t.Fatal(err)
	}
	runJoin(t, outDir, file1, file2)

	if got := readOutput(t, outDir, "bij_names_2.txt"); got != "rs1b\n" {
		t.Errorf("bij_names_2.txt = %q", got)
	}
}
