package cmd

import (
	"errors"

	"bootmatch/internal/formatting"
	"bootmatch/internal/store"

	"github.com/spf13/cobra"
)

var outputOpts formatting.Options

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputOpts.Format, "output", "o", formatting.FormatTable, "output format (table, yaml)")
	cmd.Flags().BoolVar(&outputOpts.NoColor, "no-color", false, "disable colors in tables")
	cmd.Flags().BoolVar(&outputOpts.Wide, "wide", false, "do not shorten long values")
}

func newProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List profiles in priority order with their budgets",
		Args:  cobra.NoArgs,
		RunE:  runProfiles,
	}
	addOutputFlags(cmd)
	return cmd
}

func runProfiles(cmd *cobra.Command, args []string) error {
	if err := outputOpts.Validate(); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := cmd.Context()
	profiles, err := st.LoadProfiles(ctx)
	if err != nil {
		return err
	}
	rows := make([]formatting.ProfileRow, 0, len(profiles))
	for _, p := range profiles {
		entries, err := st.LoadCMDB(ctx, p.Name)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		rows = append(rows, formatting.NewProfileRow(p, entries))
	}
	return formatting.Profiles(cmd.OutOrStdout(), rows, outputOpts)
}
