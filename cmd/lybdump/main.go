// Command lybdump encodes a fixture to an LYB stream, or prints the
// header, model registry and first chunk header of an existing one.
//
// Grounded on cmd/distri/distri.go's subcommand-dispatch-by-map pattern
// (a map[string]func(context.Context, []string) error keyed by verb, no
// CLI framework) and cmd/distri/usage.go's flag.FlagSet.Usage helper.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"golang.org/x/xerrors"
)

var debug = flag.Bool("debug", false, "format error messages with additional detail")

func usage(fset *flag.FlagSet, helpText string) func() {
	return func() {
		fmt.Fprintln(os.Stderr, helpText)
		fmt.Fprintf(os.Stderr, "Flags for lybdump %s:\n", fset.Name())
		fset.PrintDefaults()
	}
}

func funcmain() error {
	flag.Parse()

	verbs := map[string]func(context.Context, []string) error{
		"encode":  cmdEncode,
		"inspect": cmdInspect,
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "syntax: lybdump <encode|inspect> [-flags] <args>\n")
		os.Exit(2)
	}
	verb, rest := args[0], args[1:]
	v, ok := verbs[verb]
	if !ok {
		return xerrors.Errorf("unknown command %q", verb)
	}
	if err := v(context.Background(), rest); err != nil {
		if *debug {
			return xerrors.Errorf("%s: %+v", verb, err)
		}
		return xerrors.Errorf("%s: %v", verb, err)
	}
	return nil
}

func main() {
	if err := funcmain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
