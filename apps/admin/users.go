package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"
)

func (cli *commandLine) setAdmin(name string, admin bool) error {
	usr, err := cli.userSvc.SetAdmin(context.Background(), name, admin)
	if err != nil {
		return err
	}
	if admin {
		fmt.Fprintf(cli.out, "%s is now an admin\n", usr.Name)
	} else {
		fmt.Fprintf(cli.out, "%s is no longer an admin\n", usr.Name)
	}
	return nil
}

func (cli *commandLine) listUsers() error {
	users, err := cli.userSvc.QueryAll(context.Background())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADMIN\tCREATED\tLAST LOGIN")
	for _, usr := range users {
		fmt.Fprintf(w, "%s\t%t\t%s\t%s\n",
			usr.Name, usr.IsAdmin, usr.CreatedAt.Format(time.RFC3339), usr.LastLogin.Format(time.RFC3339))
	}
	return w.Flush()
}
