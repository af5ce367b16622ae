package cmd

import (
	"fmt"

	"bootmatch/internal/store"

	"github.com/spf13/cobra"
)

var importDB string

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [DIR]",
		Short: "Copy a configuration directory into the SQLite store",
		Long: `Copies state.yaml and every profile's spec, template and CMDB from DIR
(default: configDir) into the SQLite database used by the sqlite store
backend. Documents already in the database are replaced.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runImport,
	}
	cmd.Flags().StringVar(&importDB, "db", "", "database file (overrides store.sqlitePath)")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := cfg.ConfigDir
	if len(args) == 1 {
		dir = args[0]
	}
	dbPath := cfg.Store.SQLitePath
	if importDB != "" {
		dbPath = importDB
	}

	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.Import(cmd.Context(), dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d documents from %s into %s\n", n, dir, dbPath)
	return nil
}
