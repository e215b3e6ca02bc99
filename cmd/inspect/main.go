// Command inspect decodes model artifacts and prints what they contain.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/okian/scorecast/internal/adapters/artifact"
	"github.com/okian/scorecast/internal/registry"
)

var errUsage = errors.New("usage: inspect [-compact] <artifact.json>...")

type report struct {
	File        string                `json:"file"`
	Error       string                `json:"error,omitempty"`
	Description *artifact.Description `json:"description,omitempty"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run decodes every file named in args and writes one JSON report per file.
// It fails if any file could not be decoded.
func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(out)
	compact := fs.Bool("compact", false, "Write one JSON object per line")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	dec := artifact.NewDecoder()
	registry.RegisterShims(dec)

	enc := json.NewEncoder(out)
	if !*compact {
		enc.SetIndent("", "  ")
	}

	var failed int
	for _, path := range fs.Args() {
		r := report{File: path}
		if v, err := decodeFile(dec, path); err != nil {
			r.Error = err.Error()
			failed++
		} else {
			d := artifact.Describe(v)
			r.Description = &d
		}
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d artifacts failed to decode", failed, fs.NArg())
	}
	return nil
}

func decodeFile(dec *artifact.Decoder, path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return dec.Decode(data)
}
