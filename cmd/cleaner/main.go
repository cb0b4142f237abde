// Command cleaner normalises country names in the monthly dataset, lists the
// distinct countries and verifies the zero rows the cleaning produced.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"bdexports/internal/app"
	"bdexports/internal/cleaning"
	"bdexports/internal/exporter"
)

const usage = "usage: cleaner [flags] clean|countries|verify|all"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "cleaner: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("cleaner", flag.ContinueOnError)
	configFile := fs.String("config", "", "path to a YAML config file")
	baseDir := fs.String("base", "", "base directory holding data/ and logs/")
	in := fs.String("in", "", "monthly CSV to clean")
	out := fs.String("out", "", "cleaned CSV to write")
	load := fs.Bool("store", false, "replace the store contents with the cleaned dataset")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New(usage)
	}

	rt, err := app.Bootstrap(*configFile, *baseDir)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	cfg := rt.Config.Cleaning
	if *in != "" {
		cfg.InputCSV = *in
	}
	if *out != "" {
		cfg.OutputCSV = *out
	}
	cleaner := cleaning.NewCleaner(rt.Logger)

	clean := func() error {
		cleaned, stats, err := cleaner.CleanFile(cfg.InputCSV, cfg.OutputCSV)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Cleaned %d row(s) into %d: %d renamed, %d junk dropped -> %s\n",
			stats.Input, stats.Output, stats.Renamed, stats.Junk, cfg.OutputCSV)
		if !*load {
			return nil
		}
		st, err := app.OpenStore(rt.Config.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.ReplaceMonthly(ctx, cleaned); err != nil {
			return fmt.Errorf("failed to load cleaned dataset: %w", err)
		}
		fmt.Fprintf(stdout, "Loaded %d row(s) into the %s store\n", len(cleaned), rt.Config.Store.Driver)
		return nil
	}
	countries := func() error {
		records, err := exporter.ReadMonthly(cfg.OutputCSV)
		if err != nil {
			return err
		}
		list, err := cleaner.WriteCountries(cfg.CountriesFile, records)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote %d countries to %s\n", len(list), cfg.CountriesFile)
		return nil
	}
	verify := func() error {
		results, err := cleaner.VerifyFiles(cfg.InputCSV, cfg.OutputCSV, cfg.ReportCSV)
		if err != nil {
			return err
		}
		unverified := 0
		for _, v := range results {
			if !v.Verified {
				unverified++
			}
		}
		fmt.Fprintf(stdout, "Checked %d zero row(s), %d unverified -> %s\n", len(results), unverified, cfg.ReportCSV)
		return nil
	}

	switch fs.Arg(0) {
	case "clean":
		return clean()
	case "countries":
		return countries()
	case "verify":
		return verify()
	case "all":
		for _, step := range []func() error{clean, countries, verify} {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown step %q; %s", fs.Arg(0), usage)
	}
}
