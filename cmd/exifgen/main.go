// exifgen prints synthesized camera metadata, or the metadata found in a JPEG.
package main

import (
	"errors"
	"flag"
	"math/rand/v2"
	"os"

	"k8s.io/klog/v2"

	"github.com/tstromberg/realartifact/pkg/exifgen"
)

var (
	inspect = flag.String("inspect", "", "JPEG file to read synthesized EXIF fields from")
	verify  = flag.Bool("verify", false, "with --inspect, also check the file through exiftool")
	stock   = flag.Bool("default", false, "print the stock lens and owner instead of a random pick")
	seed    = flag.Uint64("seed", 0, "random seed (0 = random)")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *inspect == "" {
		rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		if *seed != 0 {
			rng = rand.New(rand.NewPCG(*seed, *seed))
		}

		s := exifgen.Randomize(rng)
		if *stock {
			s = exifgen.Default(rng)
		}
		if err := s.WriteYAML(os.Stdout); err != nil {
			klog.Exitf("write: %v", err)
		}
		return
	}

	f, err := os.Open(*inspect)
	if err != nil {
		klog.Exitf("open: %v", err)
	}
	defer f.Close()

	s, err := exifgen.Read(f)
	if err != nil {
		klog.Exitf("read %s: %v", *inspect, err)
	}

	if err := s.WriteYAML(os.Stdout); err != nil {
		klog.Exitf("write: %v", err)
	}

	if !*verify {
		return
	}

	err = exifgen.Verify(*inspect, s)
	switch {
	case errors.Is(err, exifgen.ErrNoExiftool):
		klog.Exitf("cannot verify: %v", err)
	case err != nil:
		klog.Exitf("verify %s: %v", *inspect, err)
	}
	klog.Infof("%s: exiftool agrees", *inspect)
}
