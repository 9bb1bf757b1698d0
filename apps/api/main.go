package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // /debug/pprof
	"os/signal"
	"syscall"

	dig_container "github.com/trezcool/potluck/apps/api/di/dig"
	echoapi "github.com/trezcool/potluck/apps/api/echo"
	"github.com/trezcool/potluck/core"
	"github.com/trezcool/potluck/services/archiver"
	"github.com/trezcool/potluck/storage/docstore"
)

func main() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		logger core.Logger,
		store *docstore.Store,
		server echoapi.Server,
		arch *archiver.Archiver,
		shutdown dig_container.Shutdown,
	) {
		// =========================================================================
		// Initialize App

		logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))

		if err := core.ParseEmailTemplates(); err != nil {
			logger.Fatal("parsing email templates", err)
		}

		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("closing storage", err)
			}
		}()
		defer logger.Info("Application stopped")

		// =========================================================================
		// Start Debug Service
		//
		// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
		// /debug/vars - Added to the default mux by importing the expvar package.

		// Expose important info under /debug/vars.
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)
		expvar.NewString("storage").Set(conf.Storage.Backend)

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Start Archiver & API Service

		if conf.Dinner.AutoArchive {
			arch.Start()
			logger.Info("archiver scheduled", map[string]interface{}{"spec": archiver.Spec(conf)})
		}

		signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
		go server.Start()

		// =========================================================================
		// Shutdown

		sig := <-shutdown
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if conf.Dinner.AutoArchive {
			arch.Stop(ctx)
		}
		if err := server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
