package main

import (
	"context"

	"github.com/trezcool/potluck/storage/database"
)

var gooseRunFunc = database.RunMigrations // mockable

func (cli *commandLine) migrate(args []string) error {
	db, err := database.Open(cli.conf)
	if err != nil {
		return err
	}
	defer db.Close()

	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(context.Background(), db, cli.conf, args[0], arguments...)
}
