package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newMatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match [FACTS]",
		Short: "Show which profile a fact dump would get",
		Long: `Runs the profile selection for FACTS (or stdin) without taking the
lock and without changing any state. Prints the selected profile and the
captured variables.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runMatch,
	}
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	facts, err := readFacts(cmd.InOrStdin(), firstArg(args))
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	sel, err := newService(cfg, st).Match(cmd.Context(), facts)
	if err != nil {
		return err
	}

	out := map[string]any{
		"profile":   sel.Profile.Name,
		"remaining": sel.Profile.Uses.String(),
		"vars":      map[string]any(sel.Vars),
		"prefer":    map[string]any(sel.Prefs),
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
