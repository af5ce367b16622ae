package cmd

import (
	"fmt"
	"os"

	"bootmatch/internal/cmdb"
	"bootmatch/internal/formatting"
	"bootmatch/internal/ranges"
	"bootmatch/internal/store"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newCMDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cmdb",
		Short: "Inspect and generate CMDBs",
	}

	show := &cobra.Command{
		Use:   "show PROFILE",
		Short: "Show the CMDB entries of a profile",
		Args:  cobra.ExactArgs(1),
		RunE:  runCMDBShow,
	}
	addOutputFlags(show)

	generate := &cobra.Command{
		Use:   "generate MODEL",
		Short: "Expand a CMDB model into entries",
		Long: `Reads MODEL, a YAML mapping whose values may hold ranges, and prints
the generated CMDB entries. Ranged fields advance in lockstep and the
output stops with the shortest one. Fields without a range are copied into
every entry:

  ip: 192.168.1.10-12
  hostname: node1-3
  gateway: 192.168.1.1

gives three entries. The output can be saved as <profile>.cmdb.yaml.`,
		Args: cobra.ExactArgs(1),
		RunE: runCMDBGenerate,
	}

	cmd.AddCommand(show, generate)
	return cmd
}

func runCMDBShow(cmd *cobra.Command, args []string) error {
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

	entries, err := st.LoadCMDB(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return formatting.CMDB(cmd.OutOrStdout(), entries, outputOpts)
}

func runCMDBGenerate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read model: %w", err)
	}
	var model map[string]any
	if err := yaml.Unmarshal(data, &model); err != nil {
		return fmt.Errorf("failed to parse model %s: %w", args[0], err)
	}
	if len(model) == 0 {
		return fmt.Errorf("model %s is empty", args[0])
	}

	var entries []cmdb.Entry
	for _, rec := range ranges.Generate(model) {
		entries = append(entries, cmdb.Entry(rec))
	}
	out, err := store.EncodeCMDB(entries)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
