package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resetDB bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded migrations (--reset drops every table first).",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd, true)
		if err != nil {
			return err
		}
		defer env.Close()

		if resetDB {
			if err := env.db.Reset(cmd.Context()); err != nil {
				return err
			}
			env.log.Warn("⚠️ database reset")
		}
		fmt.Fprintln(env.out, "✓ migrations applied")
		return nil
	},
}

var sqlFile string

var execSQLCmd = &cobra.Command{
	Use:   "exec-sql [statement]",
	Short: "Run one SQL statement (or --file) against the datastore.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var stmt string
		switch {
		case sqlFile != "":
			data, err := os.ReadFile(sqlFile)
			if err != nil {
				return err
			}
			stmt = string(data)
		case len(args) == 1:
			stmt = args[0]
		}
		if strings.TrimSpace(stmt) == "" {
			return fmt.Errorf("no SQL given")
		}

		env, err := setup(cmd, true)
		if err != nil {
			return err
		}
		defer env.Close()

		n, err := env.db.ExecSQL(cmd.Context(), stmt)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.out, "✓ %d rows affected\n", n)
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&resetDB, "reset", false, "Drop and recreate every table.")
	execSQLCmd.Flags().StringVarP(&sqlFile, "file", "f", "", "Read the statement from a file.")
	rootCmd.AddCommand(migrateCmd, execSQLCmd)
}
