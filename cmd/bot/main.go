package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Jacobbrewer1/ticketbot/cmd/bot/config"
	"github.com/Jacobbrewer1/ticketbot/pkg/logging"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           config.AppName,
		Short:         "Discord ticket bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBot,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Connect to Discord and handle tickets",
			RunE:  runBot,
		},
		newCategoriesCmd(),
	)
	return root
}

func runBot(cmd *cobra.Command, _ []string) error {
	a, err := InitializeApp()
	if err != nil {
		log.Println(err)
		return err
	}

	if err := config.Parse(a.Logger); err != nil {
		a.Error("Error parsing configuration", slog.String(logging.KeyError, err.Error()))
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Info("Starting application")
	if err := a.Run(ctx); err != nil {
		a.Error("Error running application", slog.String(logging.KeyError, err.Error()))
		return err
	}
	return nil
}
