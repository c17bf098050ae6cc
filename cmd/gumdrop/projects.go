package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/pinkpixel/gumdrop/project"
)

func projectsCmd(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("projects", flag.ContinueOnError)
	storePath := fset.String("store", "", "project store file")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if *storePath == "" {
		return errors.New("projects: -store is required")
	}
	store := project.NewStore(fileBackend{path: *storePath})

	op := "list"
	if fset.NArg() > 0 {
		op = fset.Arg(0)
	}
	switch op {
	case "list":
		list, err := store.List(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tSIZE\tUPDATED")
		for _, p := range list {
			fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%s\n", p.ID, p.Name, p.Width, p.Height, p.Updated.Local().Format(time.DateTime))
		}
		return tw.Flush()
	case "delete":
		if fset.NArg() != 2 {
			return errors.New("projects: delete wants one id or name")
		}
		return store.Delete(ctx, fset.Arg(1))
	case "clear":
		return store.Clear(ctx)
	default:
		return fmt.Errorf("projects: unknown operation %q", op)
	}
}
