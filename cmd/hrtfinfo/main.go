// Command hrtfinfo inspects an HRTF dataset directory.
//
// Usage:
//
//	hrtfinfo [flags] dataset-dir
//
// It loads every grid response at the requested sample rate and prints
// per-direction levels and interaural differences.
//
// Examples:
//
//	hrtfinfo -list
//	hrtfinfo -check ./hrtf
//	hrtfinfo -rate 48000 -elevation 0 ./hrtf
//	hrtfinfo -subject 1002 ./hrtf
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/cwbudde/algo-webaudio/dsp/hrtf"
	timestats "github.com/cwbudde/algo-webaudio/stats/time"
)

func main() {
	subject := flag.String("subject", hrtf.DefaultSubject, "dataset subject name")
	rate := flag.Float64("rate", hrtf.DatasetSampleRate, "sample rate to load the responses at")
	kernel := flag.Int("kernel", 0, "kernel length override in samples (0 = scale to rate)")
	elevation := flag.Int("elevation", 1000, "only print this grid elevation")
	list := flag.Bool("list", false, "list the file names the grid needs and exit")
	check := flag.Bool("check", false, "only report missing files")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: hrtfinfo [flags] dataset-dir\n\n")
		fmt.Fprintf(os.Stderr, "Prints the layout and per-direction levels of an HRTF dataset.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  hrtfinfo -list\n")
		fmt.Fprintf(os.Stderr, "  hrtfinfo -check ./hrtf\n")
		fmt.Fprintf(os.Stderr, "  hrtfinfo -rate 48000 -elevation 0 ./hrtf\n")
	}
	flag.Parse()

	if *list {
		for _, name := range gridFiles(*subject) {
			fmt.Println(name)
		}
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	dir := flag.Arg(0)

	if missing := missingFiles(dir, *subject); len(missing) > 0 {
		for _, name := range missing {
			fmt.Fprintf(os.Stderr, "missing: %s\n", name)
		}
		fmt.Fprintf(os.Stderr, "error: %d of %d files missing\n", len(missing), len(gridFiles(*subject)))
		os.Exit(1)
	}
	if *check {
		fmt.Printf("%s: all %d files present\n", dir, len(gridFiles(*subject)))
		return
	}

	opts := []hrtf.Option{hrtf.WithSubject(*subject)}
	if *kernel > 0 {
		opts = append(opts, hrtf.WithKernelLength(*kernel))
	}
	db, err := hrtf.Load(dir, *rate, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, hrtf.ErrDataset) {
			os.Exit(1)
		}
		os.Exit(2)
	}

	fmt.Printf("dataset %s, subject %s, %.0f Hz, kernel %d samples\n\n", dir, *subject, db.SampleRate(), db.KernelLength())
	printGrid(db, *elevation)
}

// gridFiles returns the distinct file names of the grid in load order.
func gridFiles(subject string) []string {
	seen := make(map[string]bool)
	var names []string
	for ei := range hrtf.NumElevations {
		el := hrtf.MinElevation + ei*hrtf.ElevationSpacing
		for ai := range hrtf.NumAzimuths {
			name := hrtf.FileName(subject, ai*hrtf.AzimuthSpacing, hrtf.MeasuredElevation(ai, el))
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

func missingFiles(dir, subject string) []string {
	var missing []string
	for _, name := range gridFiles(subject) {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			missing = append(missing, name)
		}
	}
	return missing
}

func printGrid(db *hrtf.Database, onlyElevation int) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Azimuth\tElevation\tMeasured\tLeft peak [dB]\tRight peak [dB]\tILD [dB]\tITD [samples]\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}
	if _, err := fmt.Fprintf(tw, "-------\t---------\t--------\t--------------\t---------------\t--------\t-------------\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}

	for ei := range hrtf.NumElevations {
		el := hrtf.MinElevation + ei*hrtf.ElevationSpacing
		if onlyElevation != 1000 && el != onlyElevation {
			continue
		}
		for ai := range hrtf.NumAzimuths {
			r, _ := db.GridResponse(ai, ei)
			left := timestats.Calculate(r.Left)
			right := timestats.Calculate(r.Right)

			if _, err := fmt.Fprintf(tw, "%d\t%d\t%d\t%.2f\t%.2f\t%+.2f\t%+d\n",
				ai*hrtf.AzimuthSpacing,
				el,
				hrtf.MeasuredElevation(ai, el),
				left.Peak_dB,
				right.Peak_dB,
				left.RMS_dB-right.RMS_dB,
				right.PeakPos-left.PeakPos,
			); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output row: %v\n", err)
				return
			}
		}
	}
	if err := tw.Flush(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}
