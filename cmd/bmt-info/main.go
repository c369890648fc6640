// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// bmt-info prints the embedded bitmaps found in a BMT file.
package main

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/maruel/go-bmt/bmt"
	"github.com/maruel/go-bmt/dib"
)

func dump(w io.Writer, buf []byte, headers bool) error {
	fmt.Fprintf(w, "Size:     %d\n", len(buf))
	fmt.Fprintf(w, "Identity: %s\n", bmt.Identity(buf))
	offsets := bmt.Offsets(buf)
	fmt.Fprintf(w, "Candidates: %d\n", len(offsets))
	for _, off := range offsets {
		seg, err := bmt.ValidateAt(buf, off)
		if err != nil {
			fmt.Fprintf(w, "  %8d: skipped: %s\n", off, err)
			continue
		}
		fmt.Fprintf(w, "  %8d: %d bytes\n", off, seg.DeclaredLength)
		if !headers {
			continue
		}
		h, err := dib.Parse(seg.Bytes)
		if err != nil {
			fmt.Fprintf(w, "            header: %s\n", err)
			continue
		}
		fmt.Fprintf(w, "            %dx%d %d bpp compression=%d offbits=%d topdown=%t palette=%d\n",
			h.Width(), h.Height(), h.BitCount(), h.Info.Compression, h.File.OffBits, h.TopDown(), len(h.Palette))
	}
	c, err := bmt.ScanDecoder{}.Decode(buf)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Method:   %s\n", c.Method)
	fmt.Fprintf(w, "Thermal:  %s\n", c.Thermal)
	fmt.Fprintf(w, "Visual:   %s\n", c.Visual)
	for _, s := range c.Nested {
		fmt.Fprintf(w, "Nested:   %s\n", s)
	}
	for _, s := range c.Ignored {
		fmt.Fprintf(w, "Ignored:  %s\n", s)
	}
	return nil
}

func mainImpl() error {
	headers := flag.Bool("headers", true, "print the bitmap headers")
	flag.Parse()

	if flag.NArg() == 0 {
		return fmt.Errorf("supply path to .bmt files")
	}
	for i, p := range flag.Args() {
		buf, err := ioutil.ReadFile(p)
		if err != nil {
			return err
		}
		if i != 0 {
			fmt.Printf("\n")
		}
		fmt.Printf("%s\n", p)
		if err := dump(os.Stdout, buf, *headers); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nbmt-info: %s.\n", err)
		os.Exit(1)
	}
}
