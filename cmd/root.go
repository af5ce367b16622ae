package cmd

import (
	"errors"
	"fmt"
	"os"

	"bootmatch/internal/cmdb"
	"bootmatch/internal/config"
	"bootmatch/internal/profile"
	"bootmatch/pkg/logging"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments, corrupt state).
	ExitCodeError = 1
	// ExitCodeNoMatch indicates that no profile matched the facts.
	ExitCodeNoMatch = 2
	// ExitCodeExhausted indicates that the CMDB of the matched profile has no entry left.
	ExitCodeExhausted = 3
)

var (
	configFile string
	logLevel   string
)

// rootCmd represents the base command for the bootmatch application.
var rootCmd = &cobra.Command{
	Use:   "bootmatch",
	Short: "Match booting machines to provisioning profiles",
	Long: `bootmatch assigns a freshly probed machine to the first provisioning
profile whose hardware spec matches its facts, reserves an entry for it in
the profile's CMDB and returns the resulting variables together with the
profile's configuration template.

Every failure is fail closed: nothing is sent back to the machine and the
reason is logged on stderr for the operator.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logging.Init(level, cmd.ErrOrStderr())
		return nil
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "bootmatch version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			fmt.Fprint(rootCmd.ErrOrStderr(), cfgErr.DetailedError())
		}
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for the provisioning scripts.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var noMatch *profile.NoMatchError
	if errors.As(err, &noMatch) {
		return ExitCodeNoMatch
	}

	if errors.Is(err, cmdb.ErrPoolExhausted) {
		return ExitCodeExhausted
	}

	return ExitCodeError
}

// loadConfig reads the configuration named by --config. Commands that only
// print or inspect local files do not call it.
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return config.Config{}, err
	}
	if !rootCmd.PersistentFlags().Changed("log-level") && cfg.LogLevel != "" {
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return config.Config{}, err
		}
		logging.Init(level, rootCmd.ErrOrStderr())
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultConfigFile, "configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newAllocateCmd())
	rootCmd.AddCommand(newMatchCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newProfilesCmd())
	rootCmd.AddCommand(newCMDBCmd())
	rootCmd.AddCommand(newImportCmd())
}
