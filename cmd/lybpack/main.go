// Command lybpack encodes a batch of fixtures concurrently and bundles
// the resulting .lyb streams into a single gzip-compressed cpio archive,
// with the flate compression level (github.com/klauspost/compress/flate)
// tunable via -level.
//
// Grounded on cmd/distri/initrd.go's cpio.Writer-into-bytes.Buffer then
// pgzip-then-renameio.TempFile pipeline, and on the errgroup fan-out
// pattern used by cmd/minitrd/minitrd.go for independent parallel work.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cavaliercoder/go-cpio"
	"github.com/google/renameio"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/pgzip"
	"github.com/orcaman/writerseeker"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/distr1/lyb"
	"github.com/distr1/lyb/internal/fixture"
	"github.com/distr1/lyb/internal/sink"
)

const help = `lybpack [-flags] <fixture.textpb> ...

Encode each fixture independently (one encoder invocation per fixture,
run concurrently — the encoder keeps no state across Encode calls) and
bundle the resulting streams into a single gzip-compressed cpio archive.

Example:
  % lybpack -out bundle.cpio.gz testdata/*.textpb
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	fset := flag.NewFlagSet("lybpack", flag.ExitOnError)
	var (
		out      = fset.String("out", "", "output .cpio.gz path (required)")
		siblings = fset.Bool("siblings", true, "emit every top-level sibling, not just the first")
		level    = fset.Int("level", flate.DefaultCompression, "flate compression level (flate.NoCompression..flate.BestCompression, or flate.DefaultCompression)")
	)
	fset.Usage = func() {
		fmt.Fprintln(os.Stderr, help)
		fmt.Fprintln(os.Stderr, "Flags:")
		fset.PrintDefaults()
	}
	fset.Parse(os.Args[1:])
	if fset.NArg() == 0 {
		return xerrors.Errorf("syntax: lybpack [-flags] <fixture.textpb> ...")
	}
	if *out == "" {
		return xerrors.Errorf("-out is required")
	}
	if *level != flate.DefaultCompression && (*level < flate.NoCompression || *level > flate.BestCompression) {
		return xerrors.Errorf("-level %d out of range [%d, %d]", *level, flate.NoCompression, flate.BestCompression)
	}

	var opts lyb.Options
	if *siblings {
		opts |= lyb.WithSiblings
	}

	start := time.Now()
	paths := fset.Args()
	encoded := make([][]byte, len(paths))

	var eg errgroup.Group
	for i, path := range paths {
		i, path := i, path
		eg.Go(func() error {
			b, err := encodeOne(path, opts)
			if err != nil {
				return xerrors.Errorf("%s: %w", path, err)
			}
			encoded[i] = b
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	log.Printf("encoded %d fixtures in %v", len(paths), time.Since(start))

	var buf bytes.Buffer
	wr := cpio.NewWriter(&buf)
	for i, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".lyb"
		if err := wr.WriteHeader(&cpio.Header{
			Name: name,
			Mode: cpio.FileMode(0644),
			Size: int64(len(encoded[i])),
		}); err != nil {
			return xerrors.Errorf("cpio header for %s: %w", name, err)
		}
		if _, err := wr.Write(encoded[i]); err != nil {
			return xerrors.Errorf("cpio body for %s: %w", name, err)
		}
	}
	if err := wr.Close(); err != nil {
		return xerrors.Errorf("closing cpio archive: %w", err)
	}

	outf, err := renameio.TempFile("", *out)
	if err != nil {
		return xerrors.Errorf("creating %s: %w", *out, err)
	}
	defer outf.Cleanup()
	zw, err := pgzip.NewWriterLevel(outf, *level)
	if err != nil {
		return xerrors.Errorf("gzip writer: %w", err)
	}
	if _, err := io.Copy(zw, &buf); err != nil {
		return xerrors.Errorf("compressing archive: %w", err)
	}
	if err := zw.Close(); err != nil {
		return xerrors.Errorf("closing gzip writer: %w", err)
	}
	if err := outf.CloseAtomicallyReplace(); err != nil {
		return xerrors.Errorf("committing %s: %w", *out, err)
	}

	log.Printf("wrote %s in %v", *out, time.Since(start))
	return nil
}

// encodeOne runs a single fixture through its own, independent Encode
// call (no shared chunk.State or hash table across fixtures) and
// returns the resulting stream's bytes.
func encodeOne(path string, opts lyb.Options) ([]byte, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("reading fixture: %w", err)
	}
	fx, err := fixture.Parse(b)
	if err != nil {
		return nil, xerrors.Errorf("parsing fixture: %w", err)
	}

	buf := &writerseeker.WriterSeeker{}
	s, err := sink.NewStream(buf)
	if err != nil {
		return nil, xerrors.Errorf("stream sink: %w", err)
	}
	if err := lyb.Encode(s, fx.Context, fx.Data, opts); err != nil {
		return nil, xerrors.Errorf("encode: %w", err)
	}
	return ioutil.ReadAll(buf.Reader())
}
