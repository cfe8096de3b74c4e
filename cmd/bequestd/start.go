package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/iov-one/bequest/app"
	"github.com/iov-one/bequest/journal"
	"github.com/iov-one/bequest/store"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	flagBind     = "bind"
	flagDebug    = "debug"
	flagLogLevel = "log_level"

	shutdownTimeout = 10 * time.Second
)

type startOptions struct {
	bind     string
	debug    bool
	logLevel string
}

func parseFlags(args []string) (startOptions, error) {
	var opts startOptions
	startFlags := flag.NewFlagSet("start", flag.ExitOnError)
	startFlags.StringVar(&opts.bind, flagBind, "localhost:8480", "address server listens on")
	startFlags.BoolVar(&opts.debug, flagDebug, false, "call stack returned on error")
	startFlags.StringVar(&opts.logLevel, flagLogLevel, "info", "one of debug, info, error or none")
	err := startFlags.Parse(args)
	return opts, err
}

// filterLogger applies the log level to the logger.
func filterLogger(logger log.Logger, level string) (log.Logger, error) {
	opt, err := log.AllowLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewFilter(logger, opt), nil
}

// GenerateLedger opens the ledger stored in the home directory. An empty
// store is initialized from the genesis file.
func GenerateLedger(home string, logger log.Logger, debug bool) (*app.Ledger, error) {
	dataDir := filepath.Join(home, "data")
	cs, err := store.OpenCommitStore("bequest", dataDir)
	if err != nil {
		return nil, err
	}
	j, err := journal.OpenSQLite(filepath.Join(dataDir, "journal.db"))
	if err != nil {
		cs.Close()
		return nil, err
	}
	ledger := app.NewLedger(cs,
		app.WithLogger(logger),
		app.WithJournal(j),
		app.WithDebug(debug))

	if ledger.Version().Version == 0 {
		opts, err := app.LoadGenesis(filepath.Join(home, genesisFile))
		if err != nil {
			ledger.Close()
			return nil, err
		}
		if err := ledger.InitGenesis(opts); err != nil {
			ledger.Close()
			return nil, err
		}
	}
	return ledger, nil
}

// StartCmd opens the ledger and serves the HTTP API until interrupted.
func StartCmd(logger log.Logger, home string, args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	logger, err = filterLogger(logger, opts.logLevel)
	if err != nil {
		return err
	}

	ledger, err := GenerateLedger(home, logger, opts.debug)
	if err != nil {
		return err
	}
	defer ledger.Close()

	srv := &http.Server{
		Addr:              opts.bind,
		Handler:           NewServer(ledger, logger, opts.debug).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "bind", opts.bind, "version", ledger.Version().Version)
		errc <- srv.ListenAndServe()
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)

	select {
	case err := <-errc:
		return err
	case sig := <-sigc:
		logger.Info("Shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
