/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/teslo-shop/apiserver/config"
	"github.com/teslo-shop/apiserver/internal/logging"
	"github.com/teslo-shop/apiserver/internal/mq"
)

// eventsCmd tails product change events from the configured queue.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print product change events as they are published",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		log := logging.New(cfg.Log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queue, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return fmt.Errorf("open mq: %w", err)
		}
		if queue == nil {
			return errors.New("MQ_BACKEND is not configured")
		}
		defer queue.Close()

		out := cmd.OutOrStdout()
		err = queue.Subscribe(ctx, mq.ProductsChannel, func(ctx context.Context, msg mq.Message) error {
			event, err := mq.DecodeProductEvent(msg)
			if err != nil {
				log.Warn("skip product event", logging.Err(err))
				return nil
			}
			fmt.Fprintf(out, "%s\t%s\t%s\n", event.OccurredAt.Format(time.RFC3339), event.Type, event.ProductID)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
