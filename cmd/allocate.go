package cmd

import (
	"bytes"
	"context"

	"bootmatch/internal/allocator"

	"github.com/spf13/cobra"
)

func newAllocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "allocate [FACTS]",
		Short: "Allocate a profile and a CMDB entry for a machine",
		Long: `Reads the fact dump of a machine from FACTS (or stdin), selects the
first eligible profile whose spec matches, reserves a CMDB entry and
persists the new state under the fleet-wide lock.

On success the bindings document and the profile template are written to
stdout. On failure stdout stays empty, the diagnostic goes to stderr and
the exit code tells what happened: 2 when no profile matched, 3 when the
CMDB of the matched profile is full, 1 for anything else.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAllocate,
	}
}

func runAllocate(cmd *cobra.Command, args []string) error {
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

	// The lock wait is unbounded: a machine keeps waiting for its answer.
	res, err := newService(cfg, st).Allocate(context.Background(), facts)
	if err != nil {
		return err
	}

	// Render fully before writing so a failure cannot leave half a response.
	var buf bytes.Buffer
	if err := allocator.WriteResponse(&buf, res); err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
