package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/carbocation/bimjoin"
	"github.com/carbocation/pfx"
	"go.uber.org/multierr"
)

var (
	outDir    = flag.String("out-dir", ".", "directory the output files are written into")
	indexPath = flag.String("index", "", "optional path for a SQLite join index (.bji) of the matched records")
	parseMode = flag.String("parse", "strict", "malformed-line handling: strict, lenient, or legacy")
	quiet     = flag.Bool("q", false, "suppress progress logging")
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "\tbimjoin [flags] file1.bim file2.bim [ file3.bim, ... ]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Inputs may be local paths or gs:// objects, optionally .gz or .zst")
	fmt.Fprintln(os.Stderr, "compressed, and must be sorted by chromosome, then position.")
	fmt.Fprintln(os.Stderr)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 2 {
		usage()
		os.Exit(1)
	}

	if err := run(context.Background(), flag.Args()); err != nil {
		log.Println(pfx.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, paths []string) (err error) {
	policy, err := bimjoin.ParsePolicyFromString(*parseMode)
	if err != nil {
		return err
	}

	opener := &bimjoin.Opener{}
	defer func() {
		err = multierr.Append(err, opener.Close())
	}()

	readers := make([]*bimjoin.VariantReader, 0, len(paths))
	var inputs []io.Closer
	defer func() {
		for _, in := range inputs {
			err = multierr.Append(err, in.Close())
		}
	}()

	for _, path := range paths {
		if !*quiet {
			log.Println("Opening:", path)
		}

		rc, openErr := opener.Open(ctx, path)
		if openErr != nil {
			return fmt.Errorf("could not open %s: %w", path, openErr)
		}
		inputs = append(inputs, rc)
		readers = append(readers, bimjoin.NewVariantReader(rc, policy))
	}

	fileSink, err := bimjoin.NewFileSink(*outDir, len(paths))
	if err != nil {
		return err
	}

	var sink bimjoin.Sink = fileSink
	if *indexPath != "" {
		idx, idxErr := bimjoin.CreateBJI(*indexPath, len(paths))
		if idxErr != nil {
			return multierr.Append(
				fmt.Errorf("could not create index %s: %w", *indexPath, idxErr),
				fileSink.Close(),
			)
		}
		sink = bimjoin.WithIndex(fileSink, idx)
	}
	defer func() {
		err = multierr.Append(err, sink.Close())
	}()

	joiner, err := bimjoin.NewJoiner(readers)
	if err != nil {
		return err
	}

	if err := joiner.Run(sink); err != nil {
		return err
	}

	if !*quiet {
		log.Printf("Done: %d matched groups, %d same-locus mismatches\n",
			fileSink.MatchCount, fileSink.MismatchCount)
		for i, r := range readers {
			if r.SkippedLines > 0 {
				log.Printf("Skipped %d malformed lines in %s\n", r.SkippedLines, paths[i])
			}
		}
	}

	return nil
}
