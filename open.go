package bimjoin

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/multierr"
)

const googleStoragePrefix = "gs://"

// Opener opens .bim inputs from the local filesystem or from Google Cloud
// Storage (gs://bucket/object paths), transparently decompressing .gz and
// .zst files by extension. The GCS client is created on first use and
// shared across calls.
type Opener struct {
	client *storage.Client
}

// Open attempts to open the named input for reading. The caller owns the
// returned ReadCloser.
func (o *Opener) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	raw, err := o.openRaw(ctx, path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(raw)
		if err != nil {
			raw.Close()
			return nil, pfx.Err(err)
		}
		return &decompressedReader{Reader: gz, close: func() error {
			return multierr.Append(gz.Close(), raw.Close())
		}}, nil

	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(raw)
		if err != nil {
			raw.Close()
			return nil, pfx.Err(err)
		}
		return &decompressedReader{Reader: dec, close: func() error {
			dec.Close()
			return raw.Close()
		}}, nil
	}

	return raw, nil
}

func (o *Opener) openRaw(ctx context.Context, path string) (io.ReadCloser, error) {
	if !strings.HasPrefix(path, googleStoragePrefix) {
		return os.Open(path)
	}

	if o.client == nil {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, pfx.Err(err)
		}
		o.client = client
	}

	bucket, object, found := strings.Cut(strings.TrimPrefix(path, googleStoragePrefix), "/")
	if !found || bucket == "" || object == "" {
		return nil, fmt.Errorf("malformed Google Storage path %q (want gs://bucket/object)", path)
	}

	return o.client.Bucket(bucket).Object(object).NewReader(ctx)
}

// Close releases the GCS client, if one was created.
func (o *Opener) Close() error {
	if o.client == nil {
		return nil
	}
	return o.client.Close()
}

type decompressedReader struct {
	io.Reader
	close func() error
}

func (d *decompressedReader) Close() error {
	return d.close()
}
