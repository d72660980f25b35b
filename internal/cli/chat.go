package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brainstem-ai/brainstem/internal/channels"
	"github.com/brainstem-ai/brainstem/internal/config"
	"github.com/brainstem-ai/brainstem/internal/runtime"
)

func newChatCmd() *cobra.Command {
	var prompt string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Send a message (or start interactive chat without -p)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := config.ValidateStartup(cfg); err != nil {
				return err
			}

			orch, err := buildOrchestrator(cfg, "cli")
			if err != nil {
				return err
			}

			trimmedPrompt := strings.TrimSpace(prompt)
			if trimmedPrompt != "" {
				if strings.HasPrefix(trimmedPrompt, "/") {
					return fmt.Errorf("slash commands are not supported in one-shot -p mode")
				}
				writer := &singleShotWriter{out: cmd.OutOrStdout()}
				return orch.HandleMessage(cmd.Context(), writer, &runtime.Message{Text: trimmedPrompt})
			}

			listener := channels.NewCLI(cmd.InOrStdin(), cmd.OutOrStdout())
			return listener.Listen(cmd.Context(), orch)
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Prompt message")

	return cmd
}

type singleShotWriter struct {
	out io.Writer
}

// WriteMessage writes one response message for one-shot prompt mode.
func (w *singleShotWriter) WriteMessage(_ context.Context, text string) error {
	_, err := fmt.Fprintln(w.out, text)
	return err
}
