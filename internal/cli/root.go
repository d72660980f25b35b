// Package cli wires Cobra subcommands to application dependencies; it is a
// thin controller with no business logic.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/brainstem-ai/brainstem/internal/config"
	"github.com/brainstem-ai/brainstem/internal/logging"
)

// NewRootCmd creates the root command and registers all subcommands.
func NewRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "stem",
		Short: "Brainstem assistant CLI",
		// Let main handle fatal error rendering through structured logs.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if verbose {
				logging.SetLevel(slog.LevelInfo)
			} else {
				logging.SetLevel(slog.LevelWarn)
			}

			// config and version only read state and should not trigger
			// first-run onboarding.
			switch cmd.Name() {
			case "config", "version":
				return nil
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			configPath := cfg.ConfigFilePath()
			if _, err := os.Stat(configPath); err == nil {
				return nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("stat config file %q: %w", configPath, err)
			}

			if err := os.MkdirAll(cfg.HomeDir, 0o755); err != nil {
				return fmt.Errorf("create home directory %q: %w", cfg.HomeDir, err)
			}
			if err := config.WriteDefaultConfigFile(configPath); err != nil {
				return err
			}

			// First-run bootstrap is an onboarding path, not a fatal error.
			// Print guidance and exit cleanly so logs do not report failures.
			if _, err := fmt.Fprintf(
				cmd.ErrOrStderr(),
				"First run setup complete.\nEdit config file: %s\nThen run stem again.\n",
				configPath,
			); err != nil {
				return err
			}
			os.Exit(0)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to `stem chat` when no subcommand is provided.
			chatCmd, _, err := cmd.Find([]string{"chat"})
			if err != nil {
				return err
			}
			chatCmd.SetContext(cmd.Context())
			return chatCmd.RunE(chatCmd, args)
		},
	}

	root.AddCommand(newChatCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging (info level)")

	return root
}
