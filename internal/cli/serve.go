package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brainstem-ai/brainstem/internal/channels"
	"github.com/brainstem-ai/brainstem/internal/config"
	"github.com/brainstem-ai/brainstem/internal/logging"
	"github.com/brainstem-ai/brainstem/internal/runtime"
	"github.com/brainstem-ai/brainstem/internal/scheduler"
)

const serveDispatchQueue = 20

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram channel and nudge scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := config.ValidateStartup(cfg); err != nil {
				return err
			}

			telegramCfg, ok := cfg.Channels["telegram"]
			if !ok || !telegramCfg.Enabled {
				return fmt.Errorf("serve requires channels.telegram.enabled = true")
			}

			orch, err := buildOrchestrator(cfg, "telegram")
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			dispatcher := runtime.NewDispatcher(orch, serveDispatchQueue)
			if err := dispatcher.Start(runCtx); err != nil {
				return err
			}

			listener, err := channels.NewTelegram(telegramCfg.Token, telegramCfg.ChatID, dispatcher)
			if err != nil {
				return err
			}

			if cfg.Scheduler.Enabled {
				nudgeStore := scheduler.NewStore(cfg.JobsPath())
				service := scheduler.NewService(nudgeStore, func(ctx context.Context, prompt string) error {
					return dispatcher.Enqueue(ctx, &runtime.Message{Text: prompt}, listener.Writer())
				})
				if err := service.Start(runCtx); err != nil {
					return err
				}
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := service.Stop(shutdownCtx); err != nil {
						logging.Logger().Warn("scheduler shutdown incomplete", "err", err)
					}
				}()
			}

			logging.Logger().Info("starting server", "home_dir", cfg.HomeDir)
			if err := listener.Listen(runCtx, orch); err != nil {
				return err
			}

			dispatcher.Stop()
			dispatcher.Wait()
			logging.Logger().Info("server stopped")
			return nil
		},
	}
}
