// Package cli implements the cobra-based CLI commands for devdock.
//
// Commands are grouped by what they act on: dev environments, container
// and compose alike (env.go, list.go, loadconfig.go), single containers
// (container.go) and volumes, including compose volume rewrites
// (volume.go). This file defines the root command, which owns
// the global flags and turns errors into exit codes.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/shinji-kodama/devdock/internal/config"
	"github.com/shinji-kodama/devdock/internal/logging"
	"github.com/shinji-kodama/devdock/internal/model"
)

// Global flag variables shared across all subcommands.
var (
	// jsonOutput switches command output (and error output) to JSON.
	jsonOutput bool

	// verbose forces the debug log level.
	verbose bool

	// configPath names an explicit settings file.
	configPath string
)

// settings and logger are initialised by the root command's
// PersistentPreRunE before any subcommand runs.
var (
	settings *config.Settings
	logger   = zap.NewNop()
)

// version, commit, and date are set at build time via ldflags.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "devdock",
		Short: "Manage local development environments on Docker",
		Long: `devdock creates and drives development environments backed by Docker:
single containers run from an image, or docker compose stacks started with
their service dependencies.

Environments are recorded under the config directory (~/.devdock by default)
so they can be brought up again by name with "devdock workon".`,

		// Errors are printed by Execute, in text or JSON.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initRuntime()
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default: <config dir>/config.yaml)")

	rootCmd.AddCommand(NewMkDevContainerCommand())
	rootCmd.AddCommand(NewMkDevComposeCommand())
	rootCmd.AddCommand(NewRmDevCommand())
	rootCmd.AddCommand(NewWorkonCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewLoadConfigCommand())
	rootCmd.AddCommand(NewStartCommand())
	rootCmd.AddCommand(NewStopCommand())
	rootCmd.AddCommand(NewRemoveCommand())
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewShellCommand())
	rootCmd.AddCommand(NewCreateVolumeCommand())
	rootCmd.AddCommand(NewRemoveVolumeCommand())
	rootCmd.AddCommand(NewUpdateVolumesCommand())

	return rootCmd
}

// initRuntime loads settings and builds the logger.
func initRuntime() error {
	s, err := config.Load(configPath)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to load settings", err)
	}
	if verbose {
		s.Log.Level = "debug"
	}

	l, err := logging.New(s.Log.Level)
	if err != nil {
		return model.WrapCLIError(model.ExitInvalidInput, "invalid log level", err)
	}

	settings = s
	logger = l
	return nil
}

// Execute runs the root command and exits with the code matching the
// returned error.
func Execute(rootCmd *cobra.Command) {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err == nil {
		return
	}

	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		printError(os.Stderr, cliErr.Message, cliErr.Err)
	} else {
		printError(os.Stderr, err.Error(), nil)
	}
	os.Exit(int(model.ExitCodeFor(err)))
}

// printError outputs an error message in text or JSON, depending on the
// --json flag. The "Error:" prefix is red when w is a terminal.
func printError(w io.Writer, message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"message": message,
		}
		if underlying != nil {
			errObj["detail"] = underlying.Error()
		}
		data, _ := json.MarshalIndent(map[string]interface{}{"error": errObj}, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	prefix := color.New(color.FgRed, color.Bold)
	if isTerminal(w) {
		prefix.EnableColor()
	} else {
		prefix.DisableColor()
	}

	if underlying != nil {
		fmt.Fprintf(w, "%s %s: %v\n", prefix.Sprint("Error:"), message, underlying)
	} else {
		fmt.Fprintf(w, "%s %s\n", prefix.Sprint("Error:"), message)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// VerboseLog writes a debug-level message. It is shown with --verbose or
// log.level=debug.
func VerboseLog(format string, args ...interface{}) {
	logger.Sugar().Debugf(format, args...)
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
