// Package commands is the scrape CLI: one subcommand per category plus
// run, migrate and exec-sql.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fortuna/diamond/internal/app"
	"github.com/fortuna/diamond/internal/config"
	"github.com/fortuna/diamond/internal/logging"
	"github.com/fortuna/diamond/internal/store"
)

var flags struct {
	noDB   bool
	csvDir string
	season int
	print  bool
	dryRun bool
}

var rootCmd = &cobra.Command{
	Use:           "scrape",
	Short:         "scrape pulls MLB stat tables from ESPN, The Odds API and teamrankings.com.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flags.noDB, "no-db", false, "Do not write to the datastore (CSV and console only).")
	pf.StringVar(&flags.csvDir, "csv-dir", "", "Directory for CSV audit files (default $CSV_DIR or ./data).")
	pf.IntVar(&flags.season, "season", 0, "Season year (default $SEASON or the catalog season).")
	pf.BoolVar(&flags.print, "print", true, "Print each extracted table to the console.")
	pf.BoolVar(&flags.dryRun, "dry-run", false, "Scrape and print only; write no rows or CSV files.")
}

// ExecuteContext runs the CLI and exits non-zero on error.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// environment is what every subcommand needs: config, logger and, unless
// --no-db, a migrated datastore.
type environment struct {
	cfg    *config.Config
	log    *logrus.Logger
	db     *store.Database
	out    io.Writer
	closer io.Closer
}

func (e *environment) Close() {
	if e.db != nil {
		e.db.Close()
	}
	e.closer.Close()
}

func setup(cmd *cobra.Command, needDB bool) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flags.csvDir != "" {
		cfg.CSVDir = flags.csvDir
	}
	if flags.season != 0 {
		cfg.Season = flags.season
	}

	log, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Output: cmd.ErrOrStderr()})
	if err != nil {
		return nil, err
	}
	env := &environment{cfg: cfg, log: log, out: cmd.OutOrStdout(), closer: closer}

	if needDB {
		env.db, err = app.OpenDatabase(cmd.Context(), cfg, log)
		if err != nil {
			closer.Close()
			return nil, err
		}
	}
	return env, nil
}
