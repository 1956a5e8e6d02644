package main

import (
	"context"
	"flag"
	"io/ioutil"

	"golang.org/x/xerrors"

	"github.com/distr1/lyb"
	"github.com/distr1/lyb/internal/fixture"
	"github.com/distr1/lyb/internal/sink"
)

const encodeHelp = `lybdump encode [-flags] <fixture.textpb>

Encode a fixture's data forest to an LYB stream.

Example:
  % lybdump encode -out iface.lyb testdata/interfaces.textpb
`

func cmdEncode(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("encode", flag.ExitOnError)
	var (
		out      = fset.String("out", "", "output .lyb path (required)")
		siblings = fset.Bool("siblings", true, "emit every top-level sibling, not just the first")
	)
	fset.Usage = usage(fset, encodeHelp)
	fset.Parse(args)
	if fset.NArg() != 1 {
		return xerrors.Errorf("syntax: encode [-flags] <fixture.textpb>")
	}
	if *out == "" {
		return xerrors.Errorf("-out is required")
	}

	b, err := ioutil.ReadFile(fset.Arg(0))
	if err != nil {
		return xerrors.Errorf("reading fixture: %w", err)
	}
	fx, err := fixture.Parse(b)
	if err != nil {
		return xerrors.Errorf("parsing fixture: %w", err)
	}

	fs, err := sink.NewFile(*out)
	if err != nil {
		return xerrors.Errorf("creating output: %w", err)
	}

	var opts lyb.Options
	if *siblings {
		opts |= lyb.WithSiblings
	}
	if err := lyb.Encode(fs, fx.Context, fx.Data, opts); err != nil {
		_ = fs.Abort()
		return xerrors.Errorf("encode: %w", err)
	}
	if err := fs.Commit(); err != nil {
		return xerrors.Errorf("committing %s: %w", *out, err)
	}
	return nil
}
