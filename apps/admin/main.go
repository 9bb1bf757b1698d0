package main

import (
	"context"
	"fmt"
	"os"

	"github.com/trezcool/potluck/core"
	"github.com/trezcool/potluck/core/dinner"
	"github.com/trezcool/potluck/core/settings"
	"github.com/trezcool/potluck/core/user"
	logsvc "github.com/trezcool/potluck/services/logger"
	"github.com/trezcool/potluck/storage"
	"github.com/trezcool/potluck/storage/docrepos"
)

func main() {
	os.Exit(start(os.Args))
}

func start(args []string) int {
	conf, err := core.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		return 1
	}
	logger := logsvc.NewStdLogger(os.Stderr, conf, "admin")

	cli := commandLine{
		conf: conf,
		in:   os.Stdin,
		out:  os.Stdout,
	}

	// migrate works on the raw database; every other command goes through the store
	if len(args) < 2 || args[1] != "migrate" {
		store, err := storage.Open(context.Background(), conf)
		if err != nil {
			logger.Error("opening storage", "error", err)
			return 1
		}
		defer store.Close()

		settingsSvc := settings.NewService(docrepos.NewSettingsRepository(store))
		cli.userSvc = user.NewService(docrepos.NewUserRepository(store), conf)
		cli.dinnerSvc = dinner.NewService(docrepos.NewDinnerRepository(store), settingsSvc, conf)
	}

	if err := cli.run(args); err != nil {
		if err != errHelp {
			logger.Error("command failed", "error", err)
		}
		return 1
	}
	return 0
}
