package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/xerrors"
)

const inspectHelp = `lybdump inspect <stream.lyb>

Print the header byte, the model registry, and the leading chunk meta
header of an LYB stream.

Anything past the model registry is schema-dependent: this format is
explicitly not self-describing (no random access, see the core
package's documentation), so a generic inspector cannot walk further
into the data forest without the same schema context the encoder used.
`

func cmdInspect(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("inspect", flag.ExitOnError)
	fset.Usage = usage(fset, inspectHelp)
	fset.Parse(args)
	if fset.NArg() != 1 {
		return xerrors.Errorf("syntax: inspect <stream.lyb>")
	}

	b, err := ioutil.ReadFile(fset.Arg(0))
	if err != nil {
		return xerrors.Errorf("reading %s: %w", fset.Arg(0), err)
	}

	color := isatty.IsTerminal(os.Stdout.Fd())
	bold := func(s string) string {
		if !color {
			return s
		}
		return "\x1b[1m" + s + "\x1b[0m"
	}

	if len(b) < 1 {
		return xerrors.Errorf("stream too short: no header byte")
	}
	fmt.Printf("%s 0x%02x\n", bold("header:"), b[0])
	off := 1

	if off+2 > len(b) {
		return xerrors.Errorf("stream too short: no model registry count")
	}
	count := binary.LittleEndian.Uint16(b[off:])
	off += 2
	fmt.Printf("%s %d\n", bold("models:"), count)

	for i := 0; i < int(count); i++ {
		if off+2 > len(b) {
			return xerrors.Errorf("stream truncated in model %d name length", i)
		}
		nlen := int(binary.LittleEndian.Uint16(b[off:]))
		off += 2
		if off+nlen+2 > len(b) {
			return xerrors.Errorf("stream truncated in model %d body", i)
		}
		name := string(b[off : off+nlen])
		off += nlen
		rev := binary.LittleEndian.Uint16(b[off:])
		off += 2
		y, m, d := 0, 0, 0
		if rev != 0 {
			y = 2000 + int(rev>>9&0x7f)
			m = int(rev >> 5 & 0xf)
			d = int(rev & 0x1f)
		}
		if rev == 0 {
			fmt.Printf("  %s (no revision)\n", name)
		} else {
			fmt.Printf("  %s (%04d-%02d-%02d)\n", name, y, m, d)
		}
	}

	if off+2 <= len(b) {
		fmt.Printf("%s size=%d inner_chunks=%d (first top-level chunk; schema required beyond this point)\n",
			bold("chunk:"), b[off], b[off+1])
	}
	return nil
}
