package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) archive(by string, dueOnly bool) error {
	ctx := context.Background()

	if dueOnly {
		e, archived, err := cli.dinnerSvc.ArchiveIfDue(ctx)
		if err != nil {
			return err
		}
		if !archived {
			fmt.Fprintln(cli.out, "Current dinner is not due yet, nothing to archive.")
			return nil
		}
		fmt.Fprintf(cli.out, "Dinner %s archived by %s\n", e.Archived.Date, e.Archived.ArchivedBy)
		return nil
	}

	e, err := cli.dinnerSvc.Archive(ctx, by)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Dinner %s archived by %s\n", e.Archived.Date, e.Archived.ArchivedBy)
	fmt.Fprintf(cli.out, "Current dinner is now %s at %s\n", e.Current.Date, e.Current.Time)
	return nil
}
