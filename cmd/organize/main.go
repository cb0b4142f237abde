// Command organize prepares downloaded workbooks for the processor.
//
//	organize filter   move workbooks with a "2 Digit" sheet from data/raw to data/product_2digit
//	organize rename   rename them after their report period into data/product_wise
//	organize skipped  copy the files listed in failed_files.txt into data/failed_files
//	organize all      filter, then rename
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"bdexports/internal/app"
	"bdexports/internal/organize"
)

const usage = "usage: organize [flags] filter|rename|skipped|all"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "organize: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("organize", flag.ContinueOnError)
	configFile := fs.String("config", "", "path to a YAML config file")
	baseDir := fs.String("base", "", "base directory holding data/ and logs/")
	sheet := fs.String("sheet", "", "sheet a workbook must carry to pass the filter")
	list := fs.String("list", "", "failed/skipped list for the skipped step")
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

	p := rt.Paths
	if *sheet == "" {
		*sheet = rt.Config.Pipeline.SheetName
	}
	if *list == "" {
		*list = rt.Config.Pipeline.FailedList
	}
	org := organize.New(rt.Logger)

	filter := func() error {
		s, err := org.MoveWithSheet(p.RawDir, p.TwoDigitDir, *sheet)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Moved %d file(s) with a %q sheet, skipped %d, unreadable %d\n",
			len(s.Moved), *sheet, len(s.Skipped), len(s.Errors))
		return nil
	}
	rename := func() error {
		s, err := org.Rename(p.TwoDigitDir, rt.Config.Pipeline.InputDir, p.ArchiveDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Renamed %d file(s), skipped %d, errors %d\n", len(s.Moved), len(s.Skipped), len(s.Errors))
		for _, name := range s.Moved {
			fmt.Fprintf(stdout, "  %s\n", name)
		}
		return nil
	}

	switch fs.Arg(0) {
	case "filter":
		return filter()
	case "rename":
		return rename()
	case "all":
		if err := filter(); err != nil {
			return err
		}
		return rename()
	case "skipped":
		s, err := org.CopySkipped(rt.Config.Pipeline.InputDir, *list, p.FailedDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Copied %d file(s) to %s, missing %d\n", len(s.Moved), p.FailedDir, len(s.Skipped))
		return nil
	default:
		return fmt.Errorf("unknown step %q; %s", fs.Arg(0), usage)
	}
}
