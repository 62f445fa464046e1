/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/recoverytrack/apiserver/config"
	"github.com/recoverytrack/apiserver/internal/mq"
	"github.com/recoverytrack/apiserver/internal/services"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consumes mood check-in events and raises craving alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg, "worker")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		queue, err := mq.NewFromConfig(ctx, cfg)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("worker requires MQ_BACKEND to be rabbitmq or pubsub")
		}
		defer queue.Close()

		alerts := services.NewCravingAlertHandler(log)
		log.Info(log.WithField(ctx, "channel", mq.ChannelMoodLogs), "worker.start")
		if err := queue.SubscribeEvents(ctx, mq.ChannelMoodLogs, alerts.Handle); err != nil && !errors.Is(err, ctx.Err()) {
			return fmt.Errorf("subscribe %s: %w", mq.ChannelMoodLogs, err)
		}
		log.Info(log.WithField(ctx, "alerts", alerts.Alerts()), "worker.stop")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
